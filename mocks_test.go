package authgate_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-authgate"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore implements authgate.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Get(ctx context.Context, id string) (*authgate.ProfileRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*authgate.ProfileRecord)
	return record, args.Error(1)
}

func (m *MockProfileStore) Create(ctx context.Context, record *authgate.ProfileRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockProfileStore) Update(ctx context.Context, id string, update authgate.ProfileUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

// spySession implements authgate.GuardSession and records every call.
type spySession struct {
	mu         sync.Mutex
	configured bool
	identity   *authgate.Identity
	role       authgate.Role
	hasRole    bool
	waitErr    error
	calls      []string
	ensured    []bool
	resets     int
}

func (s *spySession) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *spySession) ProviderConfigured() bool {
	s.record("ProviderConfigured")
	return s.configured
}

func (s *spySession) WaitUntilReady(ctx context.Context) error {
	s.record("WaitUntilReady")
	if s.waitErr != nil {
		return s.waitErr
	}
	return ctx.Err()
}

func (s *spySession) CurrentIdentity() *authgate.Identity {
	s.record("CurrentIdentity")
	return s.identity
}

func (s *spySession) EnsureProfile(ctx context.Context, force bool) {
	s.record("EnsureProfile")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = append(s.ensured, force)
}

func (s *spySession) Role() (authgate.Role, bool) {
	s.record("Role")
	return s.role, s.hasRole
}

func (s *spySession) ResetProfile() {
	s.record("ResetProfile")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.role = ""
	s.hasRole = false
}

func (s *spySession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
