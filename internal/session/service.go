// internal/session/service.go
//
// Action service: the server-side caller of the game engine.
//
// Every action follows the same path:
//   load (store) → pure transition (game.Engine) → conditional save
//   (Store.UpdateIf on the loaded UpdatedAt) → typed event (Store.Publish).
//
// Concurrency:
//   - A per-game mutex serializes actions inside this process.
//   - Writers in other processes are caught by UpdateIf; on ErrStaleWrite
//     the transition is re-applied to the fresh record, up to
//     maxApplyAttempts times.
//
// Online rounds filter clues automatically once the last clue is in, after
// ReviewDelay. IRL rounds have no filtering pass: the table adjudicates
// clues through the decision side channel.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edi19863/just-one-webparty/internal/events"
	"github.com/edi19863/just-one-webparty/internal/game"
	"github.com/edi19863/just-one-webparty/internal/store"
)

const (
	maxApplyAttempts = 3
	maxCodeAttempts  = 8
)

var (
	ErrNotInGame     = errors.New("not-in-game")
	ErrNotHost       = errors.New("not-host")
	ErrNotGuesser    = errors.New("not-guesser")
	ErrCodeExhausted = errors.New("code-exhausted")
	ErrNoClue        = errors.New("no-clue")
	ErrRoundMismatch = errors.New("round-mismatch")
)

// Options tunes the service.
type Options struct {
	// ReviewDelay is the pause between the last clue and the filtering pass.
	// Zero filters immediately, in the submitting request.
	ReviewDelay time.Duration
}

// Service applies player actions to stored games.
type Service struct {
	store  store.Store
	engine *game.Engine
	opts   Options

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New constructs a Service.
func New(st store.Store, engine *game.Engine, opts Options) *Service {
	return &Service{
		store:  st,
		engine: engine,
		opts:   opts,
		locks:  make(map[string]*sync.Mutex),
		timers: make(map[string]*time.Timer),
	}
}

// Created is the result of CreateGame.
type Created struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Code     string `json:"code"`
}

// Joined is the result of JoinGame.
type Joined struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

func (s *Service) lock(gameID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[gameID] = l
	}
	return l
}

// mutate loads the game, applies fn and saves the result conditionally.
// When fn returns the game unchanged nothing is written.
func (s *Service) mutate(ctx context.Context, gameID string, fn func(game.Game) (game.Game, error)) (game.Game, bool, error) {
	l := s.lock(gameID)
	l.Lock()
	defer l.Unlock()

	for attempt := 1; ; attempt++ {
		cur, err := s.store.GetByID(ctx, gameID)
		if err != nil {
			return game.Game{}, false, err
		}
		next, err := fn(cur)
		if err != nil {
			return cur, false, err
		}
		if next.UpdatedAt.Equal(cur.UpdatedAt) {
			return cur, false, nil
		}

		saved, err := s.store.UpdateIf(ctx, next, cur.UpdatedAt)
		if errors.Is(err, store.ErrStaleWrite) && attempt < maxApplyAttempts {
			log.Debug().Str("gameId", gameID).Int("attempt", attempt).Msg("stale write, re-applying")
			continue
		}
		if err != nil {
			return cur, false, err
		}
		return saved, true, nil
	}
}

func (s *Service) publish(ctx context.Context, kind events.Kind, g game.Game, playerID string) {
	ev := events.New(kind, g).WithPlayer(playerID)
	s.store.Publish(ctx, ev)
	log.Info().
		Str("event", string(kind)).
		Str("gameId", g.ID).
		Str("code", g.Code).
		Str("playerId", playerID).
		Int("round", ev.Round).
		Str("status", string(g.Status)).
		Msg("game event")
}

func requireMember(g game.Game, playerID string) error {
	if !g.HasPlayer(playerID) {
		return ErrNotInGame
	}
	return nil
}

// CreateGame creates a lobby hosted by a new player. A colliding join code
// is replaced and the insert retried.
func (s *Service) CreateGame(ctx context.Context, nickname, mode string) (Created, error) {
	m, err := game.ParseMode(mode)
	if err != nil {
		return Created{}, err
	}
	for i := 0; i < maxCodeAttempts; i++ {
		g, err := s.engine.CreateGame("", nickname, m)
		if err != nil {
			return Created{}, err
		}
		saved, err := s.store.Create(ctx, g)
		if errors.Is(err, store.ErrCodeTaken) {
			log.Debug().Str("code", g.Code).Msg("join code taken, retrying")
			continue
		}
		if err != nil {
			return Created{}, err
		}
		s.publish(ctx, events.GameCreated, saved, saved.HostID)
		return Created{GameID: saved.ID, PlayerID: saved.HostID, Code: saved.Code}, nil
	}
	return Created{}, ErrCodeExhausted
}

// JoinGame adds a player to the lobby behind code.
func (s *Service) JoinGame(ctx context.Context, code, nickname string) (Joined, error) {
	found, err := s.store.GetByCode(ctx, game.NormalizeCode(code))
	if err != nil {
		return Joined{}, err
	}
	var playerID string
	g, _, err := s.mutate(ctx, found.ID, func(g game.Game) (game.Game, error) {
		next, id, err := s.engine.AddPlayer(g, nickname)
		playerID = id
		return next, err
	})
	if err != nil {
		return Joined{}, err
	}
	s.publish(ctx, events.PlayerJoined, g, playerID)
	return Joined{GameID: g.ID, PlayerID: playerID}, nil
}

// Game returns the stored game.
func (s *Service) Game(ctx context.Context, gameID string) (game.Game, error) {
	return s.store.GetByID(ctx, gameID)
}

// Me returns playerID's entry, or ErrNotInGame once they are gone.
func (s *Service) Me(ctx context.Context, gameID, playerID string) (game.Player, error) {
	g, err := s.store.GetByID(ctx, gameID)
	if err != nil {
		return game.Player{}, err
	}
	p, ok := g.Player(playerID)
	if !ok {
		return game.Player{}, ErrNotInGame
	}
	return p, nil
}

// StartRound starts the next round. Only the host may do it.
func (s *Service) StartRound(ctx context.Context, gameID, playerID string) (game.Game, error) {
	g, _, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		if err := requireMember(g, playerID); err != nil {
			return g, err
		}
		if !g.IsHost(playerID) {
			return g, ErrNotHost
		}
		return s.engine.StartRound(g)
	})
	if err != nil {
		return g, err
	}
	s.publish(ctx, events.RoundStarted, g, playerID)
	return g, nil
}

// SubmitClue validates and records a typed clue (online games).
func (s *Service) SubmitClue(ctx context.Context, gameID, playerID, word string) (game.Game, error) {
	g, _, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		if err := requireMember(g, playerID); err != nil {
			return g, err
		}
		online, ok := s.engine.Session(g).(game.OnlineSession)
		if !ok {
			return g, game.ErrWrongMode
		}
		if g.Status == game.StatusSubmittingClues && g.CurrentRound != nil {
			if err := game.ValidateClue(word, g.CurrentRound.SecretWord); err != nil {
				return g, err
			}
		}
		return online.SubmitClue(playerID, word)
	})
	if err != nil {
		return g, err
	}
	s.publish(ctx, events.ClueAdded, g, playerID)
	return s.afterClues(ctx, g), nil
}

// MarkClueWritten records that a player wrote their clue (IRL games).
func (s *Service) MarkClueWritten(ctx context.Context, gameID, playerID string) (game.Game, error) {
	g, _, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		if err := requireMember(g, playerID); err != nil {
			return g, err
		}
		irl, ok := s.engine.Session(g).(game.IRLSession)
		if !ok {
			return g, game.ErrWrongMode
		}
		return irl.MarkClueWritten(playerID)
	})
	if err != nil {
		return g, err
	}
	s.publish(ctx, events.ClueMarked, g, playerID)
	return g, nil
}

// SubmitGuess settles an online round. playerID may be empty; when given it
// must be the round's guesser.
func (s *Service) SubmitGuess(ctx context.Context, gameID, playerID, guess string) (game.Game, error) {
	g, _, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		online, ok := s.engine.Session(g).(game.OnlineSession)
		if !ok {
			return g, game.ErrWrongMode
		}
		if playerID != "" {
			if err := requireMember(g, playerID); err != nil {
				return g, err
			}
			if g.CurrentRound != nil && g.CurrentRound.GuesserID != playerID {
				return g, ErrNotGuesser
			}
		}
		return online.SubmitGuess(guess)
	})
	if err != nil {
		return g, err
	}
	s.publish(ctx, events.GuessSubmitted, g, playerID)
	return g, nil
}

// SubmitGuessResult settles an IRL round with the table's verdict.
func (s *Service) SubmitGuessResult(ctx context.Context, gameID string, correct bool) (game.Game, error) {
	g, _, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		irl, ok := s.engine.Session(g).(game.IRLSession)
		if !ok {
			return g, game.ErrWrongMode
		}
		return irl.RecordGuessResult(correct)
	})
	if err != nil {
		return g, err
	}
	s.publish(ctx, events.GuessResultRecorded, g, "")
	return g, nil
}

// LeaveGame removes playerID. The last player leaving ends the game.
func (s *Service) LeaveGame(ctx context.Context, gameID, playerID string) (game.Game, error) {
	ended := false
	g, changed, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		if err := requireMember(g, playerID); err != nil {
			return g, err
		}
		next, err := s.engine.RemovePlayer(g, playerID)
		if errors.Is(err, game.ErrLastPlayer) {
			ended = true
			if g.Status == game.StatusGameOver {
				return g, nil
			}
			return s.engine.EndGame(g)
		}
		ended = false
		return next, err
	})
	if err != nil {
		return g, err
	}
	if ended {
		if changed {
			s.forget(gameID)
			s.publish(ctx, events.GameOver, g, playerID)
		}
		return g, nil
	}
	if g.Abandoned() || g.Status == game.StatusLobby {
		s.stopTimer(gameID)
	}
	s.publish(ctx, events.PlayerLeft, g, playerID)
	return s.afterClues(ctx, g), nil
}

// EndGame finishes the game. Only the host may do it.
func (s *Service) EndGame(ctx context.Context, gameID, playerID string) (game.Game, error) {
	g, _, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		if err := requireMember(g, playerID); err != nil {
			return g, err
		}
		if !g.IsHost(playerID) {
			return g, ErrNotHost
		}
		return s.engine.EndGame(g)
	})
	if err != nil {
		return g, err
	}
	s.forget(gameID)
	s.publish(ctx, events.GameOver, g, playerID)
	return g, nil
}

// Tally returns the partial results of the game so far.
func (s *Service) Tally(ctx context.Context, gameID string) (game.Tally, error) {
	g, err := s.store.GetByID(ctx, gameID)
	if err != nil {
		return game.Tally{}, err
	}
	return game.TallyOf(g), nil
}

// FilterClues runs the filtering pass now. Running it on an already
// filtered round changes nothing and publishes nothing.
func (s *Service) FilterClues(ctx context.Context, gameID string) (game.Game, error) {
	g, changed, err := s.mutate(ctx, gameID, func(g game.Game) (game.Game, error) {
		if _, ok := s.engine.Session(g).(game.OnlineSession); !ok {
			return g, game.ErrWrongMode
		}
		return s.engine.FilterClues(g)
	})
	if err != nil {
		return g, err
	}
	if changed {
		s.publish(ctx, events.CluesFiltered, g, "")
	}
	return g, nil
}

// afterClues starts the filtering pass of an online round whose clues are
// all in. It returns the game the caller should report.
func (s *Service) afterClues(ctx context.Context, g game.Game) game.Game {
	if g.Status != game.StatusReviewingClues || g.Mode != game.ModeOnline {
		return g
	}
	if s.opts.ReviewDelay <= 0 {
		filtered, err := s.FilterClues(ctx, g.ID)
		if err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("filter clues")
			return g
		}
		return filtered
	}
	s.scheduleFilter(g.ID)
	return g
}

func (s *Service) scheduleFilter(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, pending := s.timers[gameID]; pending {
		return
	}
	s.timers[gameID] = time.AfterFunc(s.opts.ReviewDelay, func() {
		s.mu.Lock()
		delete(s.timers, gameID)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := s.FilterClues(ctx, gameID)
		if err != nil && !errors.Is(err, game.ErrWrongStatus) && !errors.Is(err, game.ErrRoundAbandoned) {
			log.Warn().Err(err).Str("gameId", gameID).Msg("scheduled clue filtering failed")
		}
	})
}

func (s *Service) stopTimer(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[gameID]; ok {
		t.Stop()
		delete(s.timers, gameID)
	}
}

// forget drops the lock and pending timer of a finished game.
func (s *Service) forget(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[gameID]; ok {
		t.Stop()
		delete(s.timers, gameID)
	}
	delete(s.locks, gameID)
}

// Close stops pending filtering timers.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
