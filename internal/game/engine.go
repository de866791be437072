// internal/game/engine.go
//
// Core state machine for a single game session.
// Responsibilities:
//   - Create games and add/remove players (host hand-over on departure).
//   - Start rounds: round-robin guesser, random secret word.
//   - Collect clues (typed online, presence markers IRL) and gate the move
//     to review once every non-guesser has one.
//   - Filter clues, then settle the round with a typed guess or an IRL result.
//
// Notes:
//   - Every transition takes a Game value and returns a new one; the input is
//     never modified. A failing transition returns the input unchanged plus a
//     sentinel error from errors.go.
//   - The only non-deterministic inputs (word, ids, clock) come from the
//     Engine fields so tests can pin them.
//   - UpdatedAt strictly increases on every change.
package game

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinPlayers is the number of players needed to start a round.
	MinPlayers = 2

	maxNicknameLen = 24

	// IRLClueMarker is the word stored for an IRL clue; the real clue is on paper.
	IRLClueMarker = "WRITTEN"

	// WrongAnswer is stored as the guess of an IRL round judged incorrect.
	WrongAnswer = "WRONG ANSWER"
)

// WordPicker supplies secret words.
type WordPicker interface {
	Random() string
}

// Engine applies transitions. The zero value is not usable; use NewEngine.
type Engine struct {
	Words   WordPicker
	NewID   func() string
	NewCode func() string
	Now     func() time.Time
}

// NewEngine constructs an Engine drawing secret words from words.
func NewEngine(words WordPicker) *Engine {
	return &Engine{
		Words:   words,
		NewID:   NewID,
		NewCode: NewCode,
		Now:     time.Now,
	}
}

// stamp moves UpdatedAt forward. Stamps are kept at microsecond precision
// (what every store can round-trip) and bumped if the clock did not advance.
func (e *Engine) stamp(g *Game) {
	now := e.Now().UTC().Truncate(time.Microsecond)
	if !now.After(g.UpdatedAt) {
		now = g.UpdatedAt.Add(time.Microsecond)
	}
	g.UpdatedAt = now
}

// syncRound writes r as the last round and as the current round.
func syncRound(g *Game, r Round) {
	for i := len(g.Rounds) - 1; i >= 0; i-- {
		if g.Rounds[i].RoundNumber == r.RoundNumber {
			g.Rounds[i] = r
			break
		}
	}
	cr := r.Clone()
	g.CurrentRound = &cr
}

func normalizeNickname(nickname string) (string, error) {
	n := strings.TrimSpace(nickname)
	if n == "" || utf8.RuneCountInString(n) > maxNicknameLen {
		return "", ErrInvalidNickname
	}
	return n, nil
}

// CreateGame returns a new lobby with hostID as the only (host) player.
// An empty hostID gets a generated one.
func (e *Engine) CreateGame(hostID, nickname string, mode Mode) (Game, error) {
	name, err := normalizeNickname(nickname)
	if err != nil {
		return Game{}, err
	}
	if mode != ModeOnline && mode != ModeIRL {
		return Game{}, ErrInvalidMode
	}
	if hostID == "" {
		hostID = e.NewID()
	}

	now := e.Now().UTC().Truncate(time.Microsecond)
	return Game{
		ID:      e.NewID(),
		Code:    e.NewCode(),
		HostID:  hostID,
		Status:  StatusLobby,
		Mode:    mode,
		Players: []Player{{ID: hostID, Nickname: name, IsHost: true}},
		Rounds:  []Round{},

		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddPlayer appends a new player and returns its id. Joining is only
// possible from the lobby.
func (e *Engine) AddPlayer(g Game, nickname string) (Game, string, error) {
	if g.Status != StatusLobby {
		return g, "", ErrWrongStatus
	}
	name, err := normalizeNickname(nickname)
	if err != nil {
		return g, "", err
	}

	out := g.Clone()
	id := e.NewID()
	out.Players = append(out.Players, Player{ID: id, Nickname: name})
	e.stamp(&out)
	return out, id, nil
}

// StartRound begins the next round.
//
// The guesser rotates through Players in order: players[0] first, then the
// player after the previous round's guesser, wrapping around. If the
// previous guesser has left, their index is -1 and the rotation restarts at
// players[0].
//
// A round can start from the lobby, after a round result, or when the
// running round was abandoned by its guesser.
func (e *Engine) StartRound(g Game) (Game, error) {
	switch {
	case g.Status == StatusLobby, g.Status == StatusRoundResult:
	case g.Status != StatusGameOver && g.Abandoned():
	default:
		return g, ErrWrongStatus
	}
	if len(g.Players) < MinPlayers {
		return g, ErrNotEnoughPlayers
	}
	word := strings.ToUpper(strings.TrimSpace(e.Words.Random()))
	if word == "" {
		return g, ErrEmptyWordBank
	}

	next := 0
	if n := len(g.Rounds); n > 0 {
		last := g.playerIndex(g.Rounds[n-1].GuesserID)
		next = (last + 1) % len(g.Players)
	}

	out := g.Clone()
	guesser := out.Players[next]
	for i := range out.Players {
		out.Players[i].IsGuesser = out.Players[i].ID == guesser.ID
	}

	r := Round{
		RoundNumber: len(out.Rounds) + 1,
		SecretWord:  word,
		GuesserID:   guesser.ID,
		GuesserName: guesser.Nickname,
		Clues:       []Clue{},
	}
	out.Rounds = append(out.Rounds, r)
	cr := r.Clone()
	out.CurrentRound = &cr
	out.Status = StatusSubmittingClues
	e.stamp(&out)
	return out, nil
}

// AddClue records a typed clue from playerID (online mode).
// The word is stored trimmed and uppercased. A second clue from the same
// player replaces the first, so each non-guesser holds at most one clue.
func (e *Engine) AddClue(g Game, playerID, word string) (Game, error) {
	return e.recordClue(g, playerID, NormalizeClue(word))
}

// MarkClueWritten records that playerID wrote their clue on paper (IRL mode).
func (e *Engine) MarkClueWritten(g Game, playerID string) (Game, error) {
	return e.recordClue(g, playerID, IRLClueMarker)
}

func (e *Engine) recordClue(g Game, playerID, word string) (Game, error) {
	if g.CurrentRound == nil {
		return g, ErrNoRound
	}
	if g.CurrentRound.Completed {
		return g, ErrRoundCompleted
	}
	if g.Abandoned() {
		return g, ErrRoundAbandoned
	}
	p, ok := g.Player(playerID)
	if !ok {
		return g, ErrPlayerNotFound
	}
	if g.Status != StatusSubmittingClues {
		return g, ErrWrongStatus
	}
	if p.ID == g.CurrentRound.GuesserID {
		return g, ErrGuesserCannotClue
	}

	out := g.Clone()
	r := out.CurrentRound.Clone()
	clue := Clue{PlayerID: p.ID, PlayerName: p.Nickname, Word: word}

	replaced := false
	for i := range r.Clues {
		if r.Clues[i].PlayerID == p.ID {
			r.Clues[i] = clue
			replaced = true
			break
		}
	}
	if !replaced {
		r.Clues = append(r.Clues, clue)
	}
	syncRound(&out, r)

	if allCluesIn(out) {
		out.Status = StatusReviewingClues
	}
	e.stamp(&out)
	return out, nil
}

// allCluesIn reports whether every present non-guesser has a clue in the
// current round. Clues left behind by departed players do not count.
func allCluesIn(g Game) bool {
	want := g.NonGuesserCount()
	if want == 0 || g.CurrentRound == nil {
		return false
	}
	have := 0
	for _, c := range g.CurrentRound.Clues {
		if p, ok := g.Player(c.PlayerID); ok && !p.IsGuesser {
			have++
		}
	}
	return have == want
}

// FilterClues marks invalid clues (duplicates, the secret word, look-alikes
// of the secret word) and opens guessing. Running it again on the result is
// a no-op and returns the game as is.
func (e *Engine) FilterClues(g Game) (Game, error) {
	if g.CurrentRound == nil {
		return g, ErrNoRound
	}
	if g.CurrentRound.Completed {
		return g, ErrRoundCompleted
	}
	if g.Status != StatusReviewingClues && g.Status != StatusGuessing {
		return g, ErrWrongStatus
	}
	if g.Abandoned() {
		return g, ErrRoundAbandoned
	}

	clues := markFiltered(g.CurrentRound.Clues, g.CurrentRound.SecretWord)
	if g.Status == StatusGuessing && sameFlags(g.CurrentRound.Clues, clues) {
		return g, nil
	}

	out := g.Clone()
	r := out.CurrentRound.Clone()
	r.Clues = clues
	syncRound(&out, r)
	out.Status = StatusGuessing
	e.stamp(&out)
	return out, nil
}

func sameFlags(a, b []Clue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SubmitGuess settles the round with the guesser's typed answer (online
// mode). The raw text is kept for display; correctness ignores case and
// surrounding whitespace. Guesses longer than MaxWordLen are refused.
func (e *Engine) SubmitGuess(g Game, guess string) (Game, error) {
	if g.CurrentRound == nil {
		return g, ErrNoRound
	}
	if g.CurrentRound.Completed {
		return g, ErrRoundCompleted
	}
	if g.Status != StatusGuessing {
		return g, ErrWrongStatus
	}
	if g.Abandoned() {
		return g, ErrRoundAbandoned
	}
	if utf8.RuneCountInString(strings.TrimSpace(guess)) > MaxWordLen {
		return g, ErrGuessTooLong
	}

	correct := strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(g.CurrentRound.SecretWord))
	return e.completeRound(g, guess, correct), nil
}

// RecordGuessResult settles an IRL round, where the guess was spoken aloud
// and the table judged it. The stored guess is the secret word on success
// and WrongAnswer otherwise.
func (e *Engine) RecordGuessResult(g Game, correct bool) (Game, error) {
	if g.CurrentRound == nil {
		return g, ErrNoRound
	}
	if g.CurrentRound.Completed {
		return g, ErrRoundCompleted
	}
	if g.Status != StatusReviewingClues && g.Status != StatusGuessing {
		return g, ErrWrongStatus
	}
	if g.Abandoned() {
		return g, ErrRoundAbandoned
	}

	guess := WrongAnswer
	if correct {
		guess = g.CurrentRound.SecretWord
	}
	return e.completeRound(g, guess, correct), nil
}

func (e *Engine) completeRound(g Game, guess string, correct bool) Game {
	out := g.Clone()
	r := out.CurrentRound.Clone()
	r.Guess = &guess
	r.Correct = &correct
	r.Completed = true
	syncRound(&out, r)
	out.Status = StatusRoundResult
	e.stamp(&out)
	return out
}

// RemovePlayer drops playerID from the game. If the host leaves, the first
// remaining player becomes host.
//
// Mid-game departures:
//   - a clue-writer leaving while clues are collected starts review once
//     everyone left has a clue in;
//   - the guesser leaving abandons the round: it takes no more actions and
//     a new round may start (see StartRound);
//   - dropping below MinPlayers sends the game back to the lobby so others
//     can join. An unfinished round stays unfinished.
func (e *Engine) RemovePlayer(g Game, playerID string) (Game, error) {
	idx := g.playerIndex(playerID)
	if idx < 0 {
		return g, ErrPlayerNotFound
	}
	if len(g.Players) == 1 {
		return g, ErrLastPlayer
	}

	out := g.Clone()
	out.Players = append(out.Players[:idx], out.Players[idx+1:]...)

	if playerID == out.HostID {
		out.Players[0].IsHost = true
		out.HostID = out.Players[0].ID
	}

	switch {
	case len(out.Players) < MinPlayers && out.Status != StatusLobby && out.Status != StatusGameOver:
		out.Status = StatusLobby
		for i := range out.Players {
			out.Players[i].IsGuesser = false
		}
	case out.Status == StatusSubmittingClues && !out.Abandoned() && allCluesIn(out):
		out.Status = StatusReviewingClues
	}
	e.stamp(&out)
	return out, nil
}

// EndGame moves the game to its terminal state.
func (e *Engine) EndGame(g Game) (Game, error) {
	if g.Status == StatusGameOver {
		return g, ErrWrongStatus
	}
	out := g.Clone()
	out.Status = StatusGameOver
	e.stamp(&out)
	return out, nil
}

// Tally is the running result of the completed rounds of one game.
type Tally struct {
	Played  int `json:"played"`
	Correct int `json:"correct"`
}

// TallyOf counts completed and correctly guessed rounds.
func TallyOf(g Game) Tally {
	var t Tally
	for _, r := range g.Rounds {
		if !r.Completed {
			continue
		}
		t.Played++
		if r.Correct != nil && *r.Correct {
			t.Correct++
		}
	}
	return t
}
