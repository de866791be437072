// Package migrations holds the SQL schema of the SQL store backends and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedMigrations embed.FS

// Dialect selects the migration set.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

func (d Dialect) dir() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// goose keeps its base FS and dialect in package state.
var mu sync.Mutex

// Up applies every pending migration of dialect to db.
func Up(ctx context.Context, db *sql.DB, dialect Dialect) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("set goose dialect %s: %w", dialect, err)
	}
	if err := goose.UpContext(ctx, db, dialect.dir()); err != nil {
		return fmt.Errorf("apply %s migrations: %w", dialect, err)
	}
	return nil
}

// Version returns the applied schema version of db.
func Version(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return 0, fmt.Errorf("set goose dialect %s: %w", dialect, err)
	}
	return goose.GetDBVersionContext(ctx, db)
}

// gooseLogger routes goose output to zerolog.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) { log.Fatal().Msgf(format, v...) }
func (gooseLogger) Printf(format string, v ...interface{}) { log.Info().Msgf(format, v...) }
