package bunstore

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-authgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

func setupStore(t *testing.T) (*Store, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	store := New(bunDB)
	require.NoError(t, store.CreateTable(context.Background()))

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return store, cleanup
}

func newRecord(id string, role authgate.Role, isAdmin bool) *authgate.ProfileRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return &authgate.ProfileRecord{
		ID:          id,
		Role:        role,
		Email:       id + "@example.com",
		DisplayName: "User " + id,
		IsAdmin:     &isAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.Get(ctx, "u1")
	assert.True(t, authgate.IsProfileNotFound(err))

	require.NoError(t, store.Create(ctx, newRecord("u1", authgate.RoleAdmin, true)))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, authgate.RoleAdmin, got.Role)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.Equal(t, "User u1", got.DisplayName)
	require.NotNil(t, got.IsAdmin)
	assert.True(t, *got.IsAdmin)
}

func TestStoreCreateConflict(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newRecord("u1", authgate.RoleClient, false)))

	err := store.Create(ctx, newRecord("u1", authgate.RoleAdmin, true))
	assert.True(t, authgate.IsProfileExists(err))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, authgate.RoleClient, got.Role)
}

func TestStoreConcurrentCreateHasOneWinner(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		exists  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Create(ctx, newRecord("u1", authgate.RoleClient, false))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case authgate.IsProfileExists(err):
				exists++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 7, exists)
}

func TestStoreUpdatePartial(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newRecord("u1", authgate.RoleClient, false)))

	name := "Ann"
	updatedAt := time.Now().UTC().Add(time.Minute).Truncate(time.Second)
	require.NoError(t, store.Update(ctx, "u1", authgate.ProfileUpdate{
		DisplayName: &name,
		UpdatedAt:   updatedAt,
	}))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.DisplayName)
	assert.Equal(t, authgate.RoleClient, got.Role)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.True(t, got.UpdatedAt.Equal(updatedAt))

	role := authgate.RoleAdmin
	isAdmin := true
	require.NoError(t, store.Update(ctx, "u1", authgate.ProfileUpdate{Role: &role, IsAdmin: &isAdmin}))

	got, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, authgate.RoleAdmin, got.Role)
	require.NotNil(t, got.IsAdmin)
	assert.True(t, *got.IsAdmin)
}

func TestStoreUpdateMissing(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	role := authgate.RoleAdmin
	err := store.Update(context.Background(), "missing", authgate.ProfileUpdate{Role: &role})
	assert.True(t, authgate.IsProfileNotFound(err))
}

func TestStoreUpdateNoFields(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	assert.NoError(t, store.Update(context.Background(), "missing", authgate.ProfileUpdate{}))
}

func TestStoreWithReconciler(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	reconciler := authgate.NewReconciler(store, authgate.NewAllowList("boss@example.com"),
		authgate.WithReconcilerLogger(authgate.NopLogger()),
	)

	state := authgate.NewProfileState()
	reconciler.EnsureProfile(ctx, state, &authgate.Identity{ID: "b1", Email: "Boss@Example.com", DisplayName: "Boss"})

	assert.True(t, state.Ready())
	role, ok := state.Role()
	assert.True(t, ok)
	assert.Equal(t, authgate.RoleAdmin, role)

	got, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, authgate.RoleAdmin, got.Role)
	assert.Equal(t, "Boss", got.DisplayName)
}
