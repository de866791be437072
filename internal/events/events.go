// Package events defines the typed notifications published after every
// persisted change to a game. Subscribers switch on Kind instead of diffing
// snapshots.
package events

import (
	"time"

	"github.com/edi19863/just-one-webparty/internal/game"
)

// Kind names one logical change.
type Kind string

const (
	GameCreated          Kind = "game_created"
	PlayerJoined         Kind = "player_joined"
	PlayerLeft           Kind = "player_left"
	RoundStarted         Kind = "round_started"
	ClueAdded            Kind = "clue_added"
	ClueMarked           Kind = "clue_marked"
	CluesFiltered        Kind = "clues_filtered"
	GuessSubmitted       Kind = "guess_submitted"
	GuessResultRecorded  Kind = "guess_result_recorded"
	ClueDecisionSet      Kind = "clue_decision_set"
	ClueDecisionsCleared Kind = "clue_decisions_cleared"
	GameOver             Kind = "game_over"

	// Snapshot carries a fetched version rather than a change: the initial
	// state of a subscription or the result of a poll.
	Snapshot Kind = "snapshot"
)

// Event is one notification for a game.
//
// Game is the persisted snapshot after the change. It is nil for the IRL
// decision events, which do not touch the game record.
type Event struct {
	Kind     Kind       `json:"type"`
	GameID   string     `json:"gameId"`
	Game     *game.Game `json:"game,omitempty"`
	Round    int        `json:"round,omitempty"`
	PlayerID string     `json:"playerId,omitempty"`
	At       time.Time  `json:"at"`
}

// New builds an event carrying a snapshot of g.
func New(kind Kind, g game.Game) Event {
	snap := g.Clone()
	ev := Event{Kind: kind, GameID: g.ID, Game: &snap, At: g.UpdatedAt}
	if g.CurrentRound != nil {
		ev.Round = g.CurrentRound.RoundNumber
	}
	return ev
}

// WithPlayer sets the player the event is about.
func (e Event) WithPlayer(id string) Event {
	e.PlayerID = id
	return e
}

// Decision builds a snapshot-less event for the IRL decision side channel.
func Decision(kind Kind, gameID string, round int, playerID string, at time.Time) Event {
	return Event{Kind: kind, GameID: gameID, Round: round, PlayerID: playerID, At: at.UTC()}
}

// UpdatedAt is the version of the carried snapshot, or zero without one.
func (e Event) UpdatedAt() time.Time {
	if e.Game == nil {
		return time.Time{}
	}
	return e.Game.UpdatedAt
}
