// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
//
// Responsibilities:
//   - Open the database file with safe defaults (WAL, busy timeout, foreign keys).
//   - Apply the embedded goose migrations.
//   - Keep each game as a JSON document next to the columns used for lookups
//     (code, status) and for the conditional update (updated_at, unix micros).
//
// Subscriptions are served by the embedded Broker, so they only reach
// subscribers in this process.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/edi19863/just-one-webparty/internal/game"
	"github.com/edi19863/just-one-webparty/internal/store/migrations"
)

// SQLite is a Store over a single database file.
type SQLite struct {
	*Broker
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteDB opens (and creates if missing) a SQLite database file.
// The parent directory of relative paths such as ./data/app.db is created.
func OpenSQLiteDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// NewSQLite opens path, migrates it and returns the store.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := OpenSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, db, migrations.SQLite); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{Broker: NewBroker(), db: db, now: time.Now}, nil
}

func micros(t time.Time) int64 { return t.UnixMicro() }

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *SQLite) Create(ctx context.Context, g game.Game) (game.Game, error) {
	g = g.Clone()
	g.Code = game.NormalizeCode(g.Code)
	doc, err := encodeGame(g)
	if err != nil {
		return game.Game{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (id, code, status, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Code, string(g.Status), string(doc), micros(g.CreatedAt), micros(g.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return game.Game{}, ErrCodeTaken
		}
		return game.Game{}, unavailable(err)
	}
	return g, nil
}

func (s *SQLite) scanOne(row *sql.Row) (game.Game, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Game{}, ErrNotFound
		}
		return game.Game{}, unavailable(err)
	}
	return decodeGame([]byte(doc))
}

func (s *SQLite) GetByID(ctx context.Context, id string) (game.Game, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `SELECT doc FROM games WHERE id = ?`, id))
}

func (s *SQLite) GetByCode(ctx context.Context, code string) (game.Game, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT doc FROM games WHERE code = ?
		 ORDER BY (status = 'game_over'), created_at DESC LIMIT 1`,
		game.NormalizeCode(code)))
}

func (s *SQLite) Update(ctx context.Context, g game.Game) (game.Game, error) {
	doc, err := encodeGame(g)
	if err != nil {
		return game.Game{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET status = ?, doc = ?, updated_at = ? WHERE id = ?`,
		string(g.Status), string(doc), micros(g.UpdatedAt), g.ID)
	if err != nil {
		return game.Game{}, unavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.Game{}, ErrNotFound
	}
	return g.Clone(), nil
}

func (s *SQLite) UpdateIf(ctx context.Context, g game.Game, expected time.Time) (game.Game, error) {
	doc, err := encodeGame(g)
	if err != nil {
		return game.Game{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET status = ?, doc = ?, updated_at = ? WHERE id = ? AND updated_at = ?`,
		string(g.Status), string(doc), micros(g.UpdatedAt), g.ID, micros(expected))
	if err != nil {
		return game.Game{}, unavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetByID(ctx, g.ID); err != nil {
			return game.Game{}, err
		}
		return game.Game{}, ErrStaleWrite
	}
	return g.Clone(), nil
}

func (s *SQLite) gameExists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return unavailable(err)
}

func (s *SQLite) SetClueDecision(ctx context.Context, gameID string, round int, playerID string, status DecisionStatus) error {
	if err := checkDecision(gameID, round, playerID, status); err != nil {
		return err
	}
	if err := s.gameExists(ctx, gameID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clue_decisions (game_id, round_number, player_id, status, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (game_id, round_number, player_id)
		 DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		gameID, round, playerID, string(status), micros(s.now()))
	return unavailable(err)
}

func (s *SQLite) GetClueDecisions(ctx context.Context, gameID string, round int) ([]ClueDecision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, status, updated_at FROM clue_decisions
		 WHERE game_id = ? AND round_number = ? ORDER BY player_id`, gameID, round)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	out := []ClueDecision{}
	for rows.Next() {
		d := ClueDecision{GameID: gameID, RoundNumber: round}
		var status string
		var at int64
		if err := rows.Scan(&d.PlayerID, &status, &at); err != nil {
			return nil, unavailable(err)
		}
		d.Status = DecisionStatus(status)
		d.UpdatedAt = time.UnixMicro(at).UTC()
		out = append(out, d)
	}
	return out, unavailable(rows.Err())
}

func (s *SQLite) ClearClueDecisions(ctx context.Context, gameID string, round int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM clue_decisions WHERE game_id = ? AND round_number = ?`, gameID, round)
	return unavailable(err)
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
