// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used for ephemeral sessions in development/testing, or when durability is
// not required.
//
// Characteristics:
//   - Games keyed by ID, with a secondary code → ID index.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Values are cloned on the way in and out; callers never share slices
//     with the store.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edi19863/just-one-webparty/internal/game"
)

type decisionKey struct {
	gameID   string
	round    int
	playerID string
}

// Memory is a map-based Store.
type Memory struct {
	*Broker

	mu        sync.RWMutex
	games     map[string]game.Game // keyed by Game.ID
	codes     map[string]string    // code → Game.ID of the latest game using it
	decisions map[decisionKey]ClueDecision

	now func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{
		Broker:    NewBroker(),
		games:     make(map[string]game.Game),
		codes:     make(map[string]string),
		decisions: make(map[decisionKey]ClueDecision),
		now:       time.Now,
	}
}

// Create adds g unless its code belongs to an unfinished game.
func (m *Memory) Create(ctx context.Context, g game.Game) (game.Game, error) {
	if err := ctx.Err(); err != nil {
		return game.Game{}, err
	}
	code := game.NormalizeCode(g.Code)

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.codes[code]; ok && m.games[id].Status != game.StatusGameOver {
		return game.Game{}, ErrCodeTaken
	}
	g = g.Clone()
	g.Code = code
	m.games[g.ID] = g
	m.codes[code] = g.ID
	return g.Clone(), nil
}

// GetByID looks up a game by ID.
func (m *Memory) GetByID(ctx context.Context, id string) (game.Game, error) {
	if err := ctx.Err(); err != nil {
		return game.Game{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g.Clone(), nil
	}
	return game.Game{}, ErrNotFound
}

// GetByCode looks up a game by its join code.
func (m *Memory) GetByCode(ctx context.Context, code string) (game.Game, error) {
	if err := ctx.Err(); err != nil {
		return game.Game{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.codes[game.NormalizeCode(code)]; ok {
		return m.games[id].Clone(), nil
	}
	return game.Game{}, ErrNotFound
}

// Update replaces the stored game.
func (m *Memory) Update(ctx context.Context, g game.Game) (game.Game, error) {
	if err := ctx.Err(); err != nil {
		return game.Game{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.ID]; !ok {
		return game.Game{}, ErrNotFound
	}
	m.games[g.ID] = g.Clone()
	return g.Clone(), nil
}

// UpdateIf replaces the stored game if it is still at version expected.
func (m *Memory) UpdateIf(ctx context.Context, g game.Game, expected time.Time) (game.Game, error) {
	if err := ctx.Err(); err != nil {
		return game.Game{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.games[g.ID]
	if !ok {
		return game.Game{}, ErrNotFound
	}
	if !cur.UpdatedAt.Equal(expected) {
		return game.Game{}, ErrStaleWrite
	}
	m.games[g.ID] = g.Clone()
	return g.Clone(), nil
}

func (m *Memory) SetClueDecision(ctx context.Context, gameID string, round int, playerID string, status DecisionStatus) error {
	if err := checkDecision(gameID, round, playerID, status); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return ErrNotFound
	}
	m.decisions[decisionKey{gameID, round, playerID}] = ClueDecision{
		GameID:      gameID,
		RoundNumber: round,
		PlayerID:    playerID,
		Status:      status,
		UpdatedAt:   m.now().UTC().Truncate(time.Microsecond),
	}
	return nil
}

// GetClueDecisions returns the decisions of one round ordered by player id.
func (m *Memory) GetClueDecisions(ctx context.Context, gameID string, round int) ([]ClueDecision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []ClueDecision{}
	for k, d := range m.decisions {
		if k.gameID == gameID && k.round == round {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (m *Memory) ClearClueDecisions(ctx context.Context, gameID string, round int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.decisions {
		if k.gameID == gameID && k.round == round {
			delete(m.decisions, k)
		}
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
