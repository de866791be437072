// internal/coordinator/coordinator.go
//
// Client-side replica of one game.
//
// A Coordinator holds the last known version of a game and accepts a new one
// only if its UpdatedAt is strictly newer (last write wins). Versions reach
// it two ways: pushed events from a store subscription, and polling when no
// push has arrived within the idle window. Both paths go through Accept, so
// duplicates and out-of-order deliveries are dropped silently.
//
// The websocket handler runs one Coordinator per connection.

package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edi19863/just-one-webparty/internal/events"
	"github.com/edi19863/just-one-webparty/internal/game"
)

// DefaultPollInterval is the idle window before a re-fetch.
const DefaultPollInterval = 5 * time.Second

// Fetcher loads the current version of a game. store.Store satisfies it.
type Fetcher interface {
	GetByID(ctx context.Context, id string) (game.Game, error)
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	gameID string
	fetch  Fetcher
	poll   time.Duration

	mu      sync.RWMutex
	current game.Game
	known   bool
}

// New returns a Coordinator for gameID. A non-positive poll uses
// DefaultPollInterval.
func New(gameID string, fetch Fetcher, poll time.Duration) *Coordinator {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Coordinator{gameID: gameID, fetch: fetch, poll: poll}
}

// Accept replaces the local game with g if g is strictly newer, and reports
// whether it did.
func (c *Coordinator) Accept(g game.Game) bool {
	if g.ID != c.gameID {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known && !g.UpdatedAt.After(c.current.UpdatedAt) {
		return false
	}
	c.current = g.Clone()
	c.known = true
	return true
}

// Current returns the local game, if any version was accepted yet.
func (c *Coordinator) Current() (game.Game, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.known {
		return game.Game{}, false
	}
	return c.current.Clone(), true
}

// Refresh fetches the game and accepts it if newer.
func (c *Coordinator) Refresh(ctx context.Context) (game.Game, bool, error) {
	g, err := c.fetch.GetByID(ctx, c.gameID)
	if err != nil {
		return game.Game{}, false, err
	}
	return g, c.Accept(g), nil
}

// Run delivers to emit every accepted version and every snapshot-less event
// (IRL decisions), until ctx is done or emit fails.
//
// It starts with a fetch. After that, pushed events from feed reset the idle
// timer; when the timer fires the game is re-fetched. A closed feed leaves
// polling as the only source.
func (c *Coordinator) Run(ctx context.Context, feed <-chan events.Event, emit func(events.Event) error) error {
	if g, ok, err := c.Refresh(ctx); err != nil {
		return err
	} else if ok {
		if err := emit(snapshot(g)); err != nil {
			return err
		}
	}

	idle := time.NewTimer(c.poll)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, open := <-feed:
			if !open {
				feed = nil
				continue
			}
			resetTimer(idle, c.poll)
			if ev.Game != nil && !c.Accept(*ev.Game) {
				continue
			}
			if err := emit(ev); err != nil {
				return err
			}

		case <-idle.C:
			idle.Reset(c.poll)
			g, ok, err := c.Refresh(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				log.Warn().Err(err).Str("gameId", c.gameID).Msg("poll game")
				continue
			}
			if !ok {
				continue
			}
			if err := emit(snapshot(g)); err != nil {
				return err
			}
		}
	}
}

func snapshot(g game.Game) events.Event { return events.New(events.Snapshot, g) }

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
