package authgate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/provider/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var localConfig = authgate.ProviderConfig{Local: true}

func newAuthState() *authgate.AuthState {
	return authgate.NewAuthState(authgate.WithAuthStateLogger(authgate.NopLogger()))
}

func TestAuthState_NotReadyUntilProviderAnswers(t *testing.T) {
	provider := memory.New()
	state := newAuthState()
	state.Activate(provider, localConfig)

	assert.True(t, state.Attached())
	assert.False(t, state.Ready())
	assert.Nil(t, state.CurrentIdentity())

	provider.SignInAs(&authgate.Identity{ID: "u1", Email: "a@example.com"})

	assert.True(t, state.Ready())
	require.NotNil(t, state.CurrentIdentity())
	assert.Equal(t, "u1", state.CurrentIdentity().ID)
}

func TestAuthState_WaitUntilReadyReleasesAllWaiters(t *testing.T) {
	provider := memory.New()
	state := newAuthState()
	state.Activate(provider, localConfig)

	const waiters = 10
	var wg sync.WaitGroup
	results := make(chan *authgate.Identity, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := state.WaitUntilReady(ctx); err == nil {
				results <- state.CurrentIdentity()
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	provider.SignInAs(&authgate.Identity{ID: "u1"})
	wg.Wait()
	close(results)

	n := 0
	for identity := range results {
		require.NotNil(t, identity)
		assert.Equal(t, "u1", identity.ID)
		n++
	}
	assert.Equal(t, waiters, n)
}

func TestAuthState_WaitUntilReadyReturnsImmediatelyWhenReady(t *testing.T) {
	state := newAuthState()
	state.Activate(memory.NewResolved(nil), localConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, state.Ready())
	assert.NoError(t, state.WaitUntilReady(ctx))
}

func TestAuthState_WaitUntilReadyHonoursContext(t *testing.T) {
	state := newAuthState()
	state.Activate(memory.New(), localConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := state.WaitUntilReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, state.Ready())
}

func TestAuthState_ReadyNeverReverts(t *testing.T) {
	provider := memory.NewResolved(&authgate.Identity{ID: "u1"})
	state := newAuthState()
	state.Activate(provider, localConfig)
	require.True(t, state.Ready())

	require.NoError(t, provider.SignOut(context.Background()))
	assert.True(t, state.Ready())
	assert.Nil(t, state.CurrentIdentity())

	provider.SignInAs(&authgate.Identity{ID: "u2"})
	assert.True(t, state.Ready())
	assert.Equal(t, "u2", state.CurrentIdentity().ID)
}

func TestAuthState_ActivateSubscribesOnce(t *testing.T) {
	provider := memory.NewResolved(nil)
	state := newAuthState()

	state.Activate(provider, localConfig)
	state.Activate(provider, localConfig)
	state.Activate(provider, localConfig)

	assert.Equal(t, 1, provider.Listeners())

	state.Close()
	assert.Equal(t, 0, provider.Listeners())
}

func TestAuthState_ReactivateWhileUnreadyReadsSnapshot(t *testing.T) {
	provider := memory.New()
	state := newAuthState()

	state.Activate(provider, localConfig)
	require.False(t, state.Ready())

	state.Activate(provider, localConfig)
	assert.True(t, state.Ready())
	assert.Nil(t, state.CurrentIdentity())
	assert.Equal(t, 1, provider.Listeners())
}

func TestAuthState_ProviderErrorSignsOut(t *testing.T) {
	provider := memory.NewResolved(&authgate.Identity{ID: "u1"})
	state := newAuthState()
	state.Activate(provider, localConfig)
	require.NotNil(t, state.CurrentIdentity())

	provider.Fail(errors.New("token revoked"))

	assert.True(t, state.Ready())
	assert.Nil(t, state.CurrentIdentity())
}

func TestAuthState_MissingConfigFailsOpen(t *testing.T) {
	provider := memory.New()
	state := newAuthState()

	state.Activate(provider, authgate.ProviderConfig{Issuer: "https://auth.example.com/"})

	assert.True(t, state.Ready())
	assert.Nil(t, state.CurrentIdentity())
	assert.False(t, state.Attached())
	assert.Equal(t, 0, provider.Listeners())

	state = newAuthState()
	state.Activate(nil, localConfig)
	assert.True(t, state.Ready())
}

func TestProviderConfig_HasMinimalConfig(t *testing.T) {
	assert.False(t, authgate.ProviderConfig{}.HasMinimalConfig())
	assert.False(t, authgate.ProviderConfig{Issuer: "https://a/"}.HasMinimalConfig())
	assert.True(t, authgate.ProviderConfig{Issuer: "https://a/", SigningKey: "k"}.HasMinimalConfig())
	assert.True(t, authgate.ProviderConfig{Issuer: "https://a/", JWKSURL: "https://a/jwks"}.HasMinimalConfig())
	assert.True(t, authgate.ProviderConfig{Local: true}.HasMinimalConfig())
}

func TestAuthState_CurrentIdentityIsACopy(t *testing.T) {
	state := newAuthState()
	state.Activate(memory.NewResolved(&authgate.Identity{ID: "u1"}), localConfig)

	identity := state.CurrentIdentity()
	identity.ID = "mutated"

	assert.Equal(t, "u1", state.CurrentIdentity().ID)
}
