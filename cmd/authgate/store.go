package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/store/bunstore"
	"github.com/goliatone/go-authgate/store/memstore"
	"github.com/goliatone/go-authgate/store/mongostore"
	"github.com/goliatone/go-authgate/store/redisstore"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// openStore returns the configured profile store and a release func. The
// "none" driver yields a nil store.
func openStore(ctx context.Context, cfg authgate.StoreConfig) (authgate.ProfileStore, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case authgate.StoreDriverNone:
		return nil, noop, nil

	case authgate.StoreDriverMemory:
		return memstore.New(), noop, nil

	case authgate.StoreDriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())

		store := bunstore.New(db)
		if err := store.CreateTable(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("create profiles table: %w", err)
		}
		return store, func() { _ = db.Close() }, nil

	case authgate.StoreDriverMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, noop, fmt.Errorf("connect mongo: %w", err)
		}

		store := mongostore.New(client.Database(cfg.MongoDatabase), "")
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, noop, fmt.Errorf("create mongo indexes: %w", err)
		}
		return store, func() { _ = client.Disconnect(context.Background()) }, nil

	case authgate.StoreDriverRedis:
		client, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		return redisstore.New(client, cfg.RedisPrefix), func() { _ = client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
