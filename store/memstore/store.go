// Package memstore keeps profile records in process memory.
package memstore

import (
	"context"
	"sync"

	"github.com/goliatone/go-authgate"
)

// Store implements authgate.ProfileStore with a map.
type Store struct {
	mu      sync.RWMutex
	records map[string]*authgate.ProfileRecord
}

var _ authgate.ProfileStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{records: map[string]*authgate.ProfileRecord{}}
}

// Get implements authgate.ProfileStore.
func (s *Store) Get(ctx context.Context, id string) (*authgate.ProfileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, authgate.ErrProfileNotFound
	}
	return record.Clone(), nil
}

// Create implements authgate.ProfileStore.
func (s *Store) Create(ctx context.Context, record *authgate.ProfileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil || record.ID == "" {
		return authgate.ErrIdentityRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; ok {
		return authgate.ErrProfileExists
	}
	s.records[record.ID] = record.Clone()
	return nil
}

// Update implements authgate.ProfileStore.
func (s *Store) Update(ctx context.Context, id string, update authgate.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return authgate.ErrProfileNotFound
	}
	update.Apply(record)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
