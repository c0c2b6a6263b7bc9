package authgate_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-authgate"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsProfileNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Sentinel",
			err:      authgate.ErrProfileNotFound,
			expected: true,
		},
		{
			name:     "Wrapped sentinel",
			err:      fmt.Errorf("bunstore: %w", authgate.ErrProfileNotFound),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      authgate.ErrProfileExists,
			expected: false,
		},
		{
			name:     "Plain error",
			err:      errors.New("not found"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, authgate.IsProfileNotFound(tt.err))
		})
	}
}

func TestIsProfileExists(t *testing.T) {
	assert.True(t, authgate.IsProfileExists(authgate.ErrProfileExists))
	assert.True(t, authgate.IsProfileExists(fmt.Errorf("create: %w", authgate.ErrProfileExists)))
	assert.False(t, authgate.IsProfileExists(authgate.ErrProfileNotFound))
	assert.False(t, authgate.IsProfileExists(nil))
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, goerrors.CategoryBadInput, authgate.ErrIdentityRequired.Category)
	assert.Equal(t, goerrors.CategoryOperation, authgate.ErrStoreRequired.Category)
	assert.Equal(t, goerrors.CategoryAuth, authgate.ErrProviderChange.Category)
}

func TestSentinelCategories(t *testing.T) {
	tests := []struct {
		err      error
		category goerrors.Category
		textCode string
	}{
		{authgate.ErrProviderUnavailable, goerrors.CategoryOperation, authgate.TextCodeProviderUnavailable},
		{authgate.ErrInvalidCredential, goerrors.CategoryAuth, authgate.TextCodeInvalidCredential},
		{authgate.ErrProfileNotFound, goerrors.CategoryNotFound, authgate.TextCodeProfileNotFound},
		{authgate.ErrProfileExists, goerrors.CategoryConflict, authgate.TextCodeProfileExists},
		{authgate.ErrStoreFailure, goerrors.CategoryInternal, authgate.TextCodeStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.textCode, func(t *testing.T) {
			var richErr *goerrors.Error
			if assert.ErrorAs(t, tt.err, &richErr) {
				assert.Equal(t, tt.category, richErr.Category)
				assert.Equal(t, tt.textCode, richErr.TextCode)
			}
		})
	}
}
