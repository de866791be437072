// internal/store/store.go
//
// Session Store contract shared by the memory, SQLite and Postgres backends.
//
// Responsibilities:
//   - Persist whole Game records and look them up by id or join code.
//   - Conditional update keyed on the expected UpdatedAt (stale writes are
//     rejected instead of silently overwriting a newer version).
//   - Fan out typed events to subscribers of a game (see broker.go).
//   - Keep the IRL clue-decision side channel, separate from the record.
//
// Errors:
//   - Lookups that miss return ErrNotFound.
//   - Backend failures are wrapped with ErrUnavailable; callers match with
//     errors.Is and surface a retryable error.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edi19863/just-one-webparty/internal/events"
	"github.com/edi19863/just-one-webparty/internal/game"
)

var (
	ErrNotFound        = errors.New("not-found")
	ErrStaleWrite      = errors.New("stale-write")
	ErrCodeTaken       = errors.New("code-taken")
	ErrUnavailable     = errors.New("store-unavailable")
	ErrInvalidDecision = errors.New("invalid-decision")
)

// DecisionStatus is the table's verdict on one physical clue (IRL mode).
type DecisionStatus string

const (
	Unique    DecisionStatus = "unique"
	Duplicate DecisionStatus = "duplicate"
	// Undecided is never stored; it marks clues without a decision in views.
	Undecided DecisionStatus = "undecided"
)

// Valid reports whether s can be stored.
func (s DecisionStatus) Valid() bool { return s == Unique || s == Duplicate }

// ClueDecision is one stored verdict.
type ClueDecision struct {
	GameID      string         `json:"gameId"`
	RoundNumber int            `json:"roundNumber"`
	PlayerID    string         `json:"playerId"`
	Status      DecisionStatus `json:"status"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Store persists games and notifies subscribers.
type Store interface {
	// Create persists a new game. A code still used by an unfinished game
	// yields ErrCodeTaken.
	Create(ctx context.Context, g game.Game) (game.Game, error)

	GetByID(ctx context.Context, id string) (game.Game, error)

	// GetByCode is case-insensitive. When a code was reused, the unfinished
	// game wins.
	GetByCode(ctx context.Context, code string) (game.Game, error)

	// Update overwrites the record with the same id.
	Update(ctx context.Context, g game.Game) (game.Game, error)

	// UpdateIf overwrites only if the stored UpdatedAt equals expected.
	UpdateIf(ctx context.Context, g game.Game, expected time.Time) (game.Game, error)

	// Subscribe delivers events for id until ctx is done or cancel is called.
	Subscribe(ctx context.Context, id string) (<-chan events.Event, func())
	Publish(ctx context.Context, ev events.Event)

	SetClueDecision(ctx context.Context, gameID string, round int, playerID string, status DecisionStatus) error
	GetClueDecisions(ctx context.Context, gameID string, round int) ([]ClueDecision, error)
	ClearClueDecisions(ctx context.Context, gameID string, round int) error

	Close() error
}

// unavailable wraps a backend failure. Context errors pass through.
func unavailable(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func encodeGame(g game.Game) ([]byte, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	return b, nil
}

func decodeGame(b []byte) (game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(b, &g); err != nil {
		return game.Game{}, fmt.Errorf("decode game: %w", err)
	}
	if g.Players == nil {
		g.Players = []game.Player{}
	}
	if g.Rounds == nil {
		g.Rounds = []game.Round{}
	}
	return g, nil
}

func checkDecision(gameID string, round int, playerID string, status DecisionStatus) error {
	if gameID == "" || playerID == "" || round < 1 || !status.Valid() {
		return ErrInvalidDecision
	}
	return nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)
