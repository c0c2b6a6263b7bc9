// Package bunstore persists profile records in a SQL database through bun.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/goliatone/go-authgate"
	"github.com/uptrace/bun"
)

const tableName = "profiles"

// Store implements authgate.ProfileStore using bun.
type Store struct {
	db *bun.DB
}

var _ authgate.ProfileStore = (*Store)(nil)

// New creates a new store.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// CreateTable creates the profiles table if it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*authgate.ProfileRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Get implements authgate.ProfileStore.
func (s *Store) Get(ctx context.Context, id string) (*authgate.ProfileRecord, error) {
	record := new(authgate.ProfileRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authgate.ErrProfileNotFound
		}
		return nil, err
	}
	return record, nil
}

// Create implements authgate.ProfileStore. The insert is a single
// statement so concurrent creators cannot both succeed.
func (s *Store) Create(ctx context.Context, record *authgate.ProfileRecord) error {
	if record == nil || record.ID == "" {
		return authgate.ErrIdentityRequired
	}

	res, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return authgate.ErrProfileExists
	}
	return nil
}

// Update implements authgate.ProfileStore. Only the queued fields are written.
func (s *Store) Update(ctx context.Context, id string, update authgate.ProfileUpdate) error {
	fields := update.Fields()
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := s.db.NewUpdate().Table(tableName)
	for _, k := range keys {
		q = q.Set("? = ?", bun.Ident(k), fields[k])
	}

	res, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return authgate.ErrProfileNotFound
	}
	return nil
}
