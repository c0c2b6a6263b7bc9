package authgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyCell(t *testing.T) {
	cell := newReadyCell()
	assert.False(t, cell.isReady())

	cell.mu.Lock()
	assert.True(t, cell.markReadyLocked())
	assert.False(t, cell.markReadyLocked(), "second mark is a no-op")
	cell.mu.Unlock()

	assert.True(t, cell.isReady())
	assert.NoError(t, cell.wait(context.Background()))
}

func TestProfileState_ResetRearmsWaiters(t *testing.T) {
	state := NewProfileState()
	state.setRole(RoleAdmin, true)
	state.markReady()

	role, ok := state.Role()
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
	assert.NoError(t, state.WaitUntilReady(context.Background()))

	state.Reset()
	assert.False(t, state.Ready())
	_, ok = state.Role()
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, state.WaitUntilReady(ctx), context.DeadlineExceeded)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			errs <- state.WaitUntilReady(ctx)
		}()
	}

	state.setRole(RoleClient, true)
	state.markReady()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	role, _ = state.Role()
	assert.Equal(t, RoleClient, role)
}

func TestProfileState_SetRoleWithoutRole(t *testing.T) {
	state := NewProfileState()
	state.setRole(RoleAdmin, false)

	role, ok := state.Role()
	assert.False(t, ok)
	assert.Equal(t, Role(""), role)
}

func TestProfileState_MarkNotReadyKeepsRole(t *testing.T) {
	state := NewProfileState()
	state.setRole(RoleClient, true)
	state.markReady()

	state.markNotReady()

	assert.False(t, state.Ready())
	role, ok := state.Role()
	assert.True(t, ok)
	assert.Equal(t, RoleClient, role)
}
