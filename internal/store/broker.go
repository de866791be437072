package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edi19863/just-one-webparty/internal/events"
)

// subscriberBuffer bounds how far a subscriber may lag before events are
// dropped for it. Dropped subscribers catch up by polling.
const subscriberBuffer = 16

type subscriber struct {
	ch   chan events.Event
	done chan struct{}
	once sync.Once
}

// Broker fans out events per game id. All backends embed one; events are
// published after the write commits, in process.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewBroker constructs an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a subscriber for gameID. The returned cancel func
// closes the channel and is safe to call more than once.
func (b *Broker) Subscribe(ctx context.Context, gameID string) (<-chan events.Event, func()) {
	s := &subscriber{
		ch:   make(chan events.Event, subscriberBuffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[*subscriber]struct{})
	}
	b.subs[gameID][s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			b.mu.Lock()
			delete(b.subs[gameID], s)
			if len(b.subs[gameID]) == 0 {
				delete(b.subs, gameID)
			}
			close(s.ch)
			close(s.done)
			b.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-s.done:
		}
	}()
	return s.ch, cancel
}

// Publish delivers ev to every subscriber of ev.GameID without blocking.
func (b *Broker) Publish(_ context.Context, ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs[ev.GameID] {
		select {
		case s.ch <- ev:
		default:
			log.Debug().Str("gameId", ev.GameID).Str("event", string(ev.Kind)).Msg("subscriber lagging, event dropped")
		}
	}
}

// Subscribers returns the number of subscribers of gameID.
func (b *Broker) Subscribers(gameID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[gameID])
}
