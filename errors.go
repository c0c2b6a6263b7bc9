package authgate

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeProviderUnavailable = "AUTHGATE_PROVIDER_UNAVAILABLE"
	TextCodeProviderChange      = "AUTHGATE_PROVIDER_CHANGE_ERROR"
	TextCodeInvalidCredential   = "AUTHGATE_INVALID_CREDENTIAL"
	TextCodeProfileNotFound     = "AUTHGATE_PROFILE_NOT_FOUND"
	TextCodeProfileExists       = "AUTHGATE_PROFILE_EXISTS"
	TextCodeStoreFailure        = "AUTHGATE_STORE_FAILURE"
)

// ErrProviderUnavailable is reported when the minimal provider configuration
// is missing. Auth degrades to an unauthenticated, ready state.
var ErrProviderUnavailable = goerrors.New("identity provider not configured", goerrors.CategoryOperation).
	WithTextCode(TextCodeProviderUnavailable)

// ErrProviderChange wraps errors surfaced by the provider change stream.
var ErrProviderChange = goerrors.New("identity provider change error", goerrors.CategoryAuth).
	WithTextCode(TextCodeProviderChange)

// ErrInvalidCredential is returned by providers that reject a sign in credential.
var ErrInvalidCredential = goerrors.New("invalid credential", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrProfileNotFound is returned by stores when no record exists for an ID.
var ErrProfileNotFound = goerrors.New("profile not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProfileNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrProfileExists is returned by Create when a record with the ID exists.
var ErrProfileExists = goerrors.New("profile already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeProfileExists).
	WithCode(goerrors.CodeConflict)

// ErrStoreFailure marks read or write failures against the profile store.
var ErrStoreFailure = goerrors.New("profile store failure", goerrors.CategoryInternal).
	WithTextCode(TextCodeStoreFailure)

// ErrIdentityRequired is returned when an operation needs an identity.
var ErrIdentityRequired = goerrors.New("identity is required", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrStoreRequired is returned when an operation needs a profile store.
var ErrStoreRequired = goerrors.New("profile store is required", goerrors.CategoryOperation)

// IsProfileNotFound reports whether err means the record is missing.
func IsProfileNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound)
}

// IsProfileExists reports whether err means a concurrent create won.
func IsProfileExists(err error) bool {
	return errors.Is(err, ErrProfileExists)
}

func storeFailure(err error, op string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "profile store "+op+" failed").
		WithTextCode(TextCodeStoreFailure)
}
