package fiberguard

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-authgate"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 24 * time.Hour

// SessionFactory builds a fresh session, usually with its own provider.
type SessionFactory func() *authgate.Session

type sessionEntry struct {
	session  *authgate.Session
	lastSeen time.Time
}

// Sessions is an in memory registry of sessions keyed by cookie value.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	factory SessionFactory
	ttl     time.Duration
	now     func() time.Time
	logger  authgate.Logger
}

// SessionsOption customizes Sessions.
type SessionsOption func(*Sessions)

// WithSessionTTL sets the idle timeout.
func WithSessionTTL(ttl time.Duration) SessionsOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionsClock injects a custom clock.
func WithSessionsClock(clock func() time.Time) SessionsOption {
	return func(s *Sessions) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSessionsLogger overrides the logger.
func WithSessionsLogger(l authgate.Logger) SessionsOption {
	return func(s *Sessions) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSessions creates a registry. factory must not be nil.
func NewSessions(factory SessionFactory, opts ...SessionsOption) *Sessions {
	if factory == nil {
		panic("AUTHGATE: fiberguard sessions: factory is required.")
	}

	s := &Sessions{
		entries: map[string]*sessionEntry{},
		factory: factory,
		ttl:     DefaultSessionTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = authgate.NewLogger("authgate.fiberguard")
	}
	return s
}

// TTL returns the idle timeout.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Get returns a live session and refreshes its idle timer.
func (s *Sessions) Get(id string) (*authgate.Session, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	entry, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}

	now := s.now()
	if now.Sub(entry.lastSeen) > s.ttl {
		delete(s.entries, id)
		s.mu.Unlock()
		entry.session.Close()
		return nil, false
	}

	entry.lastSeen = now
	s.mu.Unlock()
	return entry.session, true
}

// Create registers a new session under a random id.
func (s *Sessions) Create() (string, *authgate.Session) {
	session := s.factory()
	id := uuid.NewString()

	s.mu.Lock()
	s.entries[id] = &sessionEntry{session: session, lastSeen: s.now()}
	s.mu.Unlock()

	return id, session
}

// Rekey moves a live session to a new random id and returns it. The old
// id stops resolving.
func (s *Sessions) Rekey(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return "", false
	}

	next := uuid.NewString()
	delete(s.entries, id)
	entry.lastSeen = s.now()
	s.entries[next] = entry
	return next, true
}

// Delete closes and removes the session.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if ok {
		entry.session.Close()
	}
}

// Len returns the number of registered sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes idle sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	now := s.now()

	var expired []*sessionEntry
	s.mu.Lock()
	for id, entry := range s.entries {
		if now.Sub(entry.lastSeen) > s.ttl {
			expired = append(expired, entry)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range expired {
		entry.session.Close()
	}
	return len(expired)
}

// Run sweeps every interval until ctx ends.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("swept idle sessions", "count", n)
			}
		}
	}
}

// Close closes every session.
func (s *Sessions) Close() {
	s.mu.Lock()
	entries := s.entries
	s.entries = map[string]*sessionEntry{}
	s.mu.Unlock()

	for _, entry := range entries {
		entry.session.Close()
	}
}
