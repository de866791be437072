// internal/game/types.go
//
// Core type definitions for the session state machine.
// Defines:
//   - Status: the lifecycle state of a game (lobby → rounds → game over).
//   - Mode: online (typed clues/guesses) or IRL (physical clues, spoken guess).
//   - Player, Clue, Round, Game: the persisted session record.
//
// JSON names follow the stored record so every store backend and every
// connected client reads the same document.

package game

import "time"

// Status is the current phase of a game.
type Status string

const (
	StatusLobby           Status = "lobby"
	StatusSubmittingClues Status = "submitting_clues"
	StatusReviewingClues  Status = "reviewing_clues"
	StatusGuessing        Status = "guessing"
	StatusRoundResult     Status = "round_result"
	StatusGameOver        Status = "game_over"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLobby, StatusSubmittingClues, StatusReviewingClues,
		StatusGuessing, StatusRoundResult, StatusGameOver:
		return true
	}
	return false
}

// Mode selects the transition set a game uses.
type Mode string

const (
	ModeOnline Mode = "online"
	ModeIRL    Mode = "irl"
)

// ParseMode maps user input to a Mode. Empty input means online.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeOnline:
		return ModeOnline, nil
	case ModeIRL:
		return ModeIRL, nil
	}
	return "", ErrInvalidMode
}

// Player is a participant of a game.
type Player struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	IsHost    bool   `json:"isHost"`
	IsGuesser bool   `json:"isGuesser"`
}

// Clue is a single word submitted by a non-guesser for the current round.
// Filtered is computed once, in bulk, by FilterClues.
type Clue struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Word       string `json:"word"`
	Filtered   bool   `json:"filtered"`
}

// Round is one guesser's turn. Guess, Correct and Completed are set exactly
// once, when the round ends.
type Round struct {
	RoundNumber int     `json:"roundNumber"` // 1-based
	SecretWord  string  `json:"secretWord"`
	GuesserID   string  `json:"guesserId"`
	GuesserName string  `json:"guesserName"`
	Clues       []Clue  `json:"clues"`
	Guess       *string `json:"guess"`
	Correct     *bool   `json:"correct"`
	Completed   bool    `json:"completed"`
}

// Game is the whole session record.
//
// CurrentRound is a denormalized copy of the last entry of Rounds; both are
// always written together.
type Game struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	HostID       string    `json:"host_id"`
	Status       Status    `json:"status"`
	Mode         Mode      `json:"mode"`
	Players      []Player  `json:"players"`
	CurrentRound *Round    `json:"current_round"`
	Rounds       []Round   `json:"rounds"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the round.
func (r Round) Clone() Round {
	out := r
	if r.Clues != nil {
		out.Clues = make([]Clue, len(r.Clues))
		copy(out.Clues, r.Clues)
	}
	if r.Guess != nil {
		g := *r.Guess
		out.Guess = &g
	}
	if r.Correct != nil {
		c := *r.Correct
		out.Correct = &c
	}
	return out
}

// Clone returns a deep copy of the game. Transitions work on clones so the
// caller's value is never modified.
func (g Game) Clone() Game {
	out := g
	if g.Players != nil {
		out.Players = make([]Player, len(g.Players))
		copy(out.Players, g.Players)
	}
	if g.Rounds != nil {
		out.Rounds = make([]Round, len(g.Rounds))
		for i, r := range g.Rounds {
			out.Rounds[i] = r.Clone()
		}
	}
	if g.CurrentRound != nil {
		cr := g.CurrentRound.Clone()
		out.CurrentRound = &cr
	}
	return out
}

// Player looks up a player by id.
func (g Game) Player(id string) (Player, bool) {
	if i := g.playerIndex(id); i >= 0 {
		return g.Players[i], true
	}
	return Player{}, false
}

// HasPlayer reports whether id belongs to a current participant.
func (g Game) HasPlayer(id string) bool { return g.playerIndex(id) >= 0 }

// IsHost reports whether id is the current host.
func (g Game) IsHost(id string) bool { return id != "" && g.HostID == id }

func (g Game) playerIndex(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// NonGuesserCount is the number of players expected to give a clue.
func (g Game) NonGuesserCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.IsGuesser {
			n++
		}
	}
	return n
}

// Guesser returns the guesser of the current round, if still present.
func (g Game) Guesser() (Player, bool) {
	if g.CurrentRound == nil {
		return Player{}, false
	}
	return g.Player(g.CurrentRound.GuesserID)
}

// ActiveRound reports whether a round is in progress (started, not completed).
func (g Game) ActiveRound() bool {
	return g.CurrentRound != nil && !g.CurrentRound.Completed
}

// Abandoned reports whether the in-progress round lost its guesser.
func (g Game) Abandoned() bool {
	if !g.ActiveRound() {
		return false
	}
	_, ok := g.Guesser()
	return !ok
}

// ClueBy returns the current round's clue from playerID.
func (r Round) ClueBy(playerID string) (Clue, bool) {
	for _, c := range r.Clues {
		if c.PlayerID == playerID {
			return c, true
		}
	}
	return Clue{}, false
}

// VisibleClues returns the clues that survived filtering.
func (r Round) VisibleClues() []Clue {
	out := make([]Clue, 0, len(r.Clues))
	for _, c := range r.Clues {
		if !c.Filtered {
			out = append(out, c)
		}
	}
	return out
}
