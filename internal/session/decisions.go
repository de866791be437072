package session

import (
	"context"

	"github.com/edi19863/just-one-webparty/internal/events"
	"github.com/edi19863/just-one-webparty/internal/game"
	"github.com/edi19863/just-one-webparty/internal/store"
)

// ClueStatus is the view of one written clue during IRL review.
type ClueStatus struct {
	PlayerID   string               `json:"playerId"`
	PlayerName string               `json:"playerName"`
	Status     store.DecisionStatus `json:"status"`
}

// irlRound loads an IRL game and checks that round exists in it.
func (s *Service) irlRound(ctx context.Context, gameID string, round int) (game.Game, game.Round, error) {
	g, err := s.store.GetByID(ctx, gameID)
	if err != nil {
		return game.Game{}, game.Round{}, err
	}
	if _, ok := s.engine.Session(g).(game.IRLSession); !ok {
		return g, game.Round{}, game.ErrWrongMode
	}
	if round < 1 || round > len(g.Rounds) {
		return g, game.Round{}, ErrRoundMismatch
	}
	return g, g.Rounds[round-1], nil
}

// SetClueDecision records whether the written clue of playerID in round was
// judged unique or a duplicate. Only the running round accepts decisions.
func (s *Service) SetClueDecision(ctx context.Context, gameID string, round int, playerID string, status store.DecisionStatus) error {
	if !status.Valid() {
		return store.ErrInvalidDecision
	}
	g, r, err := s.irlRound(ctx, gameID, round)
	if err != nil {
		return err
	}
	if r.Completed {
		return game.ErrRoundCompleted
	}
	if _, ok := r.ClueBy(playerID); !ok {
		return ErrNoClue
	}
	if err := s.store.SetClueDecision(ctx, gameID, round, playerID, status); err != nil {
		return err
	}
	s.store.Publish(ctx, events.Decision(events.ClueDecisionSet, g.ID, round, playerID, s.engine.Now()))
	return nil
}

// ClueStatuses lists every clue of round with its decision, undecided
// when the table has not judged it yet.
func (s *Service) ClueStatuses(ctx context.Context, gameID string, round int) ([]ClueStatus, error) {
	_, r, err := s.irlRound(ctx, gameID, round)
	if err != nil {
		return nil, err
	}
	decisions, err := s.store.GetClueDecisions(ctx, gameID, round)
	if err != nil {
		return nil, err
	}
	byPlayer := make(map[string]store.DecisionStatus, len(decisions))
	for _, d := range decisions {
		byPlayer[d.PlayerID] = d.Status
	}

	out := make([]ClueStatus, 0, len(r.Clues))
	for _, c := range r.Clues {
		st, ok := byPlayer[c.PlayerID]
		if !ok {
			st = store.Undecided
		}
		out = append(out, ClueStatus{PlayerID: c.PlayerID, PlayerName: c.PlayerName, Status: st})
	}
	return out, nil
}

// ClearClueDecisions drops every decision of round.
func (s *Service) ClearClueDecisions(ctx context.Context, gameID string, round int) error {
	g, _, err := s.irlRound(ctx, gameID, round)
	if err != nil {
		return err
	}
	if err := s.store.ClearClueDecisions(ctx, gameID, round); err != nil {
		return err
	}
	s.store.Publish(ctx, events.Decision(events.ClueDecisionsCleared, g.ID, round, "", s.engine.Now()))
	return nil
}
