package authgate

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used across the package. Arguments are
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// IdentityProvider is the remote authority that signs users in and out and
// publishes identity changes.
type IdentityProvider interface {
	// CurrentIdentity returns the provider's last known identity or nil.
	CurrentIdentity() *Identity

	// Subscribe registers change listeners. onChange receives nil when the
	// user is signed out. The returned func removes the listeners.
	Subscribe(onChange func(*Identity), onError func(error)) (unsubscribe func())

	// SignIn authenticates with a provider specific credential. Listeners
	// have observed the new identity by the time it returns.
	SignIn(ctx context.Context, credential string) error

	// SignOut ends the provider session.
	SignOut(ctx context.Context) error
}

// ProfileStore persists profile records keyed by identity ID.
type ProfileStore interface {
	// Get returns ErrProfileNotFound when no record exists.
	Get(ctx context.Context, id string) (*ProfileRecord, error)

	// Create inserts the record only if no record with the same ID exists,
	// otherwise it returns ErrProfileExists.
	Create(ctx context.Context, record *ProfileRecord) error

	// Update applies the non nil fields of update.
	Update(ctx context.Context, id string, update ProfileUpdate) error
}

type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger adapts a zerolog.Logger to Logger.
func NewZerologLogger(zl zerolog.Logger) Logger {
	return zerologLogger{zl: zl}
}

// NewLogger returns the default logger for the named component.
func NewLogger(name string) Logger {
	return newLogger(os.Stderr, name)
}

func newLogger(w io.Writer, name string) Logger {
	zl := zerolog.New(w).With().Timestamp().Str("logger", name).Logger()
	return zerologLogger{zl: zl}
}

func (l zerologLogger) Debug(msg string, args ...any) { l.zl.Debug().Fields(args).Msg(msg) }
func (l zerologLogger) Info(msg string, args ...any)  { l.zl.Info().Fields(args).Msg(msg) }
func (l zerologLogger) Warn(msg string, args ...any)  { l.zl.Warn().Fields(args).Msg(msg) }
func (l zerologLogger) Error(msg string, args ...any) { l.zl.Error().Fields(args).Msg(msg) }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

func resolveLogger(name string, l Logger) Logger {
	if l != nil {
		return l
	}
	return NewLogger(name)
}
