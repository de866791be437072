// db.go
//
// Store selection for the server and the migrate command.
//   - memory: process-local, nothing to migrate.
//   - sqlite: single file, created with its parent directory if missing.
//   - postgres: connection string; migrations run over the pgx stdlib driver.
//
// Both SQL backends apply the embedded goose migrations when opened.

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/edi19863/just-one-webparty/internal/store"
	"github.com/edi19863/just-one-webparty/internal/store/migrations"
)

// openStore returns the store selected by cfg, migrated and ready.
func openStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.store {
	case storeSQLite:
		log.Info().Str("path", cfg.sqlitePath).Msg("opening sqlite store")
		st, err := store.NewSQLite(ctx, cfg.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	case storePostgres:
		log.Info().Msg("opening postgres store")
		st, err := store.NewPostgres(ctx, cfg.postgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, nil
	case storeMemory:
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.store)
}

// migrateStore applies pending migrations and reports the schema version.
func migrateStore(ctx context.Context, cfg *Config) (int64, error) {
	var (
		db      *sql.DB
		dialect migrations.Dialect
		err     error
	)
	switch cfg.store {
	case storeSQLite:
		db, err = store.OpenSQLiteDB(cfg.sqlitePath)
		dialect = migrations.SQLite
	case storePostgres:
		db, err = sql.Open("pgx", cfg.postgresURL)
		dialect = migrations.Postgres
	default:
		log.Warn().Str("store", cfg.store).Msg("nothing to migrate")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := migrations.Up(ctx, db, dialect); err != nil {
		return 0, err
	}
	return migrations.Version(ctx, db, dialect)
}
