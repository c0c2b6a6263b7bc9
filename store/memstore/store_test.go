package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	_, err := store.Get(ctx, "u1")
	assert.True(t, authgate.IsProfileNotFound(err))

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	admin := false
	require.NoError(t, store.Create(ctx, &authgate.ProfileRecord{
		ID:        "u1",
		Role:      authgate.RoleClient,
		Email:     "a@x.com",
		IsAdmin:   &admin,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	err = store.Create(ctx, &authgate.ProfileRecord{ID: "u1", Role: authgate.RoleAdmin})
	assert.True(t, authgate.IsProfileExists(err))

	name := "Ann"
	require.NoError(t, store.Update(ctx, "u1", authgate.ProfileUpdate{DisplayName: &name}))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, authgate.RoleClient, got.Role)
	assert.Equal(t, "Ann", got.DisplayName)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, 1, store.Len())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Create(ctx, &authgate.ProfileRecord{ID: "u1", Role: authgate.RoleClient}))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	got.Role = authgate.RoleAdmin

	again, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, authgate.RoleClient, again.Role)
}

func TestStore_UpdateMissing(t *testing.T) {
	role := authgate.RoleAdmin
	err := memstore.New().Update(context.Background(), "nope", authgate.ProfileUpdate{Role: &role})
	assert.True(t, authgate.IsProfileNotFound(err))
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memstore.New().Get(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}
