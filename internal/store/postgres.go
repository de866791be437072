package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/edi19863/just-one-webparty/internal/game"
	"github.com/edi19863/just-one-webparty/internal/store/migrations"
)

// Postgres is a Store over a pgx connection pool. Games are JSONB documents.
type Postgres struct {
	*Broker
	pool *pgxpool.Pool
	now  func() time.Time
}

// MigratePostgres applies the schema through the database/sql pgx driver.
func MigratePostgres(ctx context.Context, connString string) error {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()
	return migrations.Up(ctx, db, migrations.Postgres)
}

// NewPostgres migrates the database and connects a pool to it.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	if err := MigratePostgres(ctx, connString); err != nil {
		return nil, unavailable(err)
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, unavailable(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable(err)
	}
	return &Postgres{Broker: NewBroker(), pool: pool, now: time.Now}, nil
}

func (p *Postgres) Create(ctx context.Context, g game.Game) (game.Game, error) {
	g = g.Clone()
	g.Code = game.NormalizeCode(g.Code)
	doc, err := encodeGame(g)
	if err != nil {
		return game.Game{}, err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO games (id, code, status, doc, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.Code, string(g.Status), doc, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 is unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return game.Game{}, ErrCodeTaken
		}
		return game.Game{}, unavailable(err)
	}
	return g, nil
}

func (p *Postgres) scanOne(row pgx.Row) (game.Game, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return game.Game{}, ErrNotFound
		}
		return game.Game{}, unavailable(err)
	}
	return decodeGame(doc)
}

func (p *Postgres) GetByID(ctx context.Context, id string) (game.Game, error) {
	return p.scanOne(p.pool.QueryRow(ctx, `SELECT doc FROM games WHERE id = $1`, id))
}

func (p *Postgres) GetByCode(ctx context.Context, code string) (game.Game, error) {
	return p.scanOne(p.pool.QueryRow(ctx,
		`SELECT doc FROM games WHERE code = $1
		 ORDER BY (status = 'game_over'), created_at DESC LIMIT 1`,
		game.NormalizeCode(code)))
}

func (p *Postgres) Update(ctx context.Context, g game.Game) (game.Game, error) {
	doc, err := encodeGame(g)
	if err != nil {
		return game.Game{}, err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE games SET status = $1, doc = $2, updated_at = $3 WHERE id = $4`,
		string(g.Status), doc, g.UpdatedAt, g.ID)
	if err != nil {
		return game.Game{}, unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return game.Game{}, ErrNotFound
	}
	return g.Clone(), nil
}

func (p *Postgres) UpdateIf(ctx context.Context, g game.Game, expected time.Time) (game.Game, error) {
	doc, err := encodeGame(g)
	if err != nil {
		return game.Game{}, err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE games SET status = $1, doc = $2, updated_at = $3 WHERE id = $4 AND updated_at = $5`,
		string(g.Status), doc, g.UpdatedAt, g.ID, expected)
	if err != nil {
		return game.Game{}, unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := p.GetByID(ctx, g.ID); err != nil {
			return game.Game{}, err
		}
		return game.Game{}, ErrStaleWrite
	}
	return g.Clone(), nil
}

func (p *Postgres) SetClueDecision(ctx context.Context, gameID string, round int, playerID string, status DecisionStatus) error {
	if err := checkDecision(gameID, round, playerID, status); err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO clue_decisions (game_id, round_number, player_id, status, updated_at)
		 SELECT id, $2, $3, $4, $5 FROM games WHERE id = $1
		 ON CONFLICT (game_id, round_number, player_id)
		 DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		gameID, round, playerID, string(status), p.now().UTC().Truncate(time.Microsecond))
	if err != nil {
		return unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetClueDecisions(ctx context.Context, gameID string, round int) ([]ClueDecision, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT player_id, status, updated_at FROM clue_decisions
		 WHERE game_id = $1 AND round_number = $2 ORDER BY player_id`, gameID, round)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	out := []ClueDecision{}
	for rows.Next() {
		d := ClueDecision{GameID: gameID, RoundNumber: round}
		var status string
		if err := rows.Scan(&d.PlayerID, &status, &d.UpdatedAt); err != nil {
			return nil, unavailable(err)
		}
		d.Status = DecisionStatus(status)
		d.UpdatedAt = d.UpdatedAt.UTC()
		out = append(out, d)
	}
	return out, unavailable(rows.Err())
}

func (p *Postgres) ClearClueDecisions(ctx context.Context, gameID string, round int) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM clue_decisions WHERE game_id = $1 AND round_number = $2`, gameID, round)
	return unavailable(err)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
