// Package redisstore persists profile records as JSON documents in Redis
// under "<prefix><id>" keys.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-authgate"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix matches the users/{id} document layout.
const DefaultPrefix = "users/"

const maxUpdateRetries = 5

// Store implements authgate.ProfileStore on Redis.
type Store struct {
	client *redis.Client
	prefix string
}

var _ authgate.ProfileStore = (*Store)(nil)

// New creates a Redis-backed profile store.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Get implements authgate.ProfileStore.
func (s *Store) Get(ctx context.Context, id string) (*authgate.ProfileRecord, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, authgate.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return decode(val)
}

// Create implements authgate.ProfileStore using SETNX.
func (s *Store) Create(ctx context.Context, record *authgate.ProfileRecord) error {
	if record == nil || record.ID == "" {
		return authgate.ErrIdentityRequired
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redisstore: failed to marshal: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(record.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return authgate.ErrProfileExists
	}
	return nil
}

// Update implements authgate.ProfileStore. The read-modify-write runs under
// WATCH and is retried when another writer touches the key.
func (s *Store) Update(ctx context.Context, id string, update authgate.ProfileUpdate) error {
	if update.Empty() && update.UpdatedAt.IsZero() {
		return nil
	}

	key := s.key(id)
	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return authgate.ErrProfileNotFound
		}
		if err != nil {
			return err
		}

		record, err := decode(val)
		if err != nil {
			return err
		}
		update.Apply(record)

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("redisstore: failed to marshal: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("redisstore: update of %s kept conflicting", key)
}

func decode(val []byte) (*authgate.ProfileRecord, error) {
	var record authgate.ProfileRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return nil, fmt.Errorf("redisstore: failed to unmarshal: %w", err)
	}
	return &record, nil
}
