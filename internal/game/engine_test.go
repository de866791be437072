package game

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordFunc func() string

func (f wordFunc) Random() string { return f() }

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestEngine returns an engine with sequential ids, a frozen clock and
// a fixed secret word.
func newTestEngine(word string) *Engine {
	n := 0
	return &Engine{
		Words: wordFunc(func() string { return word }),
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		NewCode: func() string { return "ABCDE" },
		Now:     func() time.Time { return testEpoch },
	}
}

// lobby creates Alice (h1) plus the given nicknames.
func lobby(t *testing.T, e *Engine, names ...string) (Game, []string) {
	t.Helper()
	g, err := e.CreateGame("h1", "Alice", ModeOnline)
	require.NoError(t, err)
	ids := []string{"h1"}
	for _, name := range names {
		var id string
		g, id, err = e.AddPlayer(g, name)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return g, ids
}

// playRound starts a round, has every non-guesser submit a distinct clue,
// filters and guesses correctly.
func playRound(t *testing.T, e *Engine, g Game) Game {
	t.Helper()
	g, err := e.StartRound(g)
	require.NoError(t, err)
	for i, p := range g.Players {
		if p.IsGuesser {
			continue
		}
		g, err = e.AddClue(g, p.ID, fmt.Sprintf("hint%c", 'a'+i))
		require.NoError(t, err)
	}
	require.Equal(t, StatusReviewingClues, g.Status)
	g, err = e.FilterClues(g)
	require.NoError(t, err)
	g, err = e.SubmitGuess(g, g.CurrentRound.SecretWord)
	require.NoError(t, err)
	return g
}

func TestCreateGame(t *testing.T) {
	e := newTestEngine("APPLE")
	g, err := e.CreateGame("h1", "Alice", ModeOnline)
	require.NoError(t, err)

	assert.Equal(t, StatusLobby, g.Status)
	assert.Equal(t, ModeOnline, g.Mode)
	assert.Equal(t, "h1", g.HostID)
	assert.Equal(t, []Player{{ID: "h1", Nickname: "Alice", IsHost: true}}, g.Players)
	assert.Empty(t, g.Rounds)
	assert.NotNil(t, g.Rounds)
	assert.Nil(t, g.CurrentRound)
	assert.Equal(t, g.CreatedAt, g.UpdatedAt)

	// real code generator
	g, err = NewEngine(wordFunc(func() string { return "X" })).CreateGame("h1", "Alice", ModeOnline)
	require.NoError(t, err)
	assert.Len(t, g.Code, CodeLength)
	assert.True(t, ValidCode(g.Code))
}

func TestCreateGameValidation(t *testing.T) {
	e := newTestEngine("APPLE")

	_, err := e.CreateGame("h1", "   ", ModeOnline)
	assert.ErrorIs(t, err, ErrInvalidNickname)

	_, err = e.CreateGame("h1", strings.Repeat("x", 25), ModeOnline)
	assert.ErrorIs(t, err, ErrInvalidNickname)

	_, err = e.CreateGame("h1", "Alice", Mode("board"))
	assert.ErrorIs(t, err, ErrInvalidMode)

	g, err := e.CreateGame("", "  Alice ", ModeIRL)
	require.NoError(t, err)
	assert.NotEmpty(t, g.HostID)
	assert.Equal(t, g.HostID, g.Players[0].ID)
	assert.Equal(t, "Alice", g.Players[0].Nickname)
}

func TestAddPlayer(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara")

	assert.Equal(t, StatusLobby, g.Status)
	require.Len(t, g.Players, 3)
	assert.Equal(t, "Bob", g.Players[1].Nickname)
	assert.Equal(t, ids[1], g.Players[1].ID)
	assert.False(t, g.Players[1].IsHost)
	assert.False(t, g.Players[1].IsGuesser)
	assert.NotEqual(t, ids[1], ids[2])

	started, err := e.StartRound(g)
	require.NoError(t, err)
	same, _, err := e.AddPlayer(started, "Dan")
	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.Equal(t, started, same)
}

func TestStartRound(t *testing.T) {
	e := newTestEngine("apple ")
	g, _ := lobby(t, e, "Bob", "Cara")

	g, err := e.StartRound(g)
	require.NoError(t, err)

	assert.Equal(t, StatusSubmittingClues, g.Status)
	require.Len(t, g.Rounds, 1)
	require.NotNil(t, g.CurrentRound)
	assert.Equal(t, g.Rounds[0], *g.CurrentRound)

	r := g.CurrentRound
	assert.Equal(t, 1, r.RoundNumber)
	assert.Equal(t, "APPLE", r.SecretWord)
	assert.Equal(t, "h1", r.GuesserID)
	assert.Equal(t, "Alice", r.GuesserName)
	assert.NotNil(t, r.Clues)
	assert.Nil(t, r.Guess)
	assert.Nil(t, r.Correct)
	assert.False(t, r.Completed)

	assert.True(t, g.Players[0].IsGuesser)
	assert.False(t, g.Players[1].IsGuesser)
	assert.False(t, g.Players[2].IsGuesser)
}

func TestStartRoundGuards(t *testing.T) {
	e := newTestEngine("APPLE")
	solo, _ := lobby(t, e)
	_, err := e.StartRound(solo)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	g, _ := lobby(t, e, "Bob")
	g, err = e.StartRound(g)
	require.NoError(t, err)
	_, err = e.StartRound(g)
	assert.ErrorIs(t, err, ErrWrongStatus)

	over, err := e.EndGame(g)
	require.NoError(t, err)
	_, err = e.StartRound(over)
	assert.ErrorIs(t, err, ErrWrongStatus)

	empty := newTestEngine("  ")
	g, _ = lobby(t, empty, "Bob")
	_, err = empty.StartRound(g)
	assert.ErrorIs(t, err, ErrEmptyWordBank)
}

func TestRoundRobinFairness(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara", "Dan")

	var guessers []string
	for i := 0; i < 2*len(ids); i++ {
		g = playRound(t, e, g)
		guessers = append(guessers, g.CurrentRound.GuesserID)
	}
	assert.Equal(t, append(append([]string{}, ids...), ids...), guessers)

	for i, r := range g.Rounds {
		assert.Equal(t, i+1, r.RoundNumber)
		assert.True(t, r.Completed)
	}
}

func TestClueCountGating(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara", "Dan")
	g, err := e.StartRound(g)
	require.NoError(t, err)

	g, err = e.AddClue(g, ids[1], "tree")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmittingClues, g.Status)

	// resubmission replaces, it does not count twice
	g, err = e.AddClue(g, ids[1], "orchard")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmittingClues, g.Status)
	require.Len(t, g.CurrentRound.Clues, 1)
	assert.Equal(t, "ORCHARD", g.CurrentRound.Clues[0].Word)

	g, err = e.AddClue(g, ids[2], "red")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmittingClues, g.Status)

	g, err = e.AddClue(g, ids[3], "  pie ")
	require.NoError(t, err)
	assert.Equal(t, StatusReviewingClues, g.Status)
	assert.Equal(t, Clue{PlayerID: ids[3], PlayerName: "Dan", Word: "PIE"}, g.CurrentRound.Clues[2])
	assert.Equal(t, *g.CurrentRound, g.Rounds[0])

	_, err = e.AddClue(g, ids[1], "late")
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestAddClueRejections(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob")

	same, err := e.AddClue(g, ids[1], "tree")
	assert.ErrorIs(t, err, ErrNoRound)
	assert.Equal(t, g, same)

	g, err = e.StartRound(g)
	require.NoError(t, err)

	same, err = e.AddClue(g, "ghost", "tree")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Equal(t, g, same)

	_, err = e.AddClue(g, ids[0], "tree")
	assert.ErrorIs(t, err, ErrGuesserCannotClue)
}

func TestFilterCluesScenarios(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara", "Dan", "Eve")
	g, err := e.StartRound(g)
	require.NoError(t, err)

	for i, w := range []string{"FRUIT", "fruit", "APPLY", "tree"} {
		g, err = e.AddClue(g, ids[i+1], w)
		require.NoError(t, err)
	}
	require.Equal(t, StatusReviewingClues, g.Status)

	g, err = e.FilterClues(g)
	require.NoError(t, err)
	assert.Equal(t, StatusGuessing, g.Status)

	got := map[string]bool{}
	for _, c := range g.CurrentRound.Clues {
		got[c.Word] = c.Filtered
	}
	assert.Equal(t, map[string]bool{"FRUIT": true, "APPLY": true, "TREE": false}, got)
	assert.Equal(t, *g.CurrentRound, g.Rounds[0])
	assert.Equal(t, []Clue{{PlayerID: ids[4], PlayerName: "Eve", Word: "TREE"}}, g.CurrentRound.VisibleClues())
}

func TestFilterCluesMarksSecretWord(t *testing.T) {
	clues := []Clue{{PlayerID: "a", Word: "APPLE"}, {PlayerID: "b", Word: "PEAR"}}
	out := markFiltered(clues, "apple")
	assert.True(t, out[0].Filtered)
	assert.False(t, out[1].Filtered)
	assert.False(t, clues[0].Filtered, "input must not be modified")
}

func TestFilterCluesIdempotent(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara", "Dan")
	g, err := e.StartRound(g)
	require.NoError(t, err)
	for i, w := range []string{"pie", "PIE", "orchard"} {
		g, err = e.AddClue(g, ids[i+1], w)
		require.NoError(t, err)
	}

	once, err := e.FilterClues(g)
	require.NoError(t, err)
	twice, err := e.FilterClues(once)
	require.NoError(t, err)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second filter changed the game (-once +twice):\n%s", diff)
	}
}

func TestFilterCluesGuards(t *testing.T) {
	e := newTestEngine("APPLE")
	g, _ := lobby(t, e, "Bob")
	_, err := e.FilterClues(g)
	assert.ErrorIs(t, err, ErrNoRound)

	g, err = e.StartRound(g)
	require.NoError(t, err)
	_, err = e.FilterClues(g)
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestSubmitGuess(t *testing.T) {
	cases := []struct {
		guess   string
		correct bool
	}{
		{"apple", true},
		{" Apple ", true},
		{"APPLE", true},
		{"apples", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.guess, func(t *testing.T) {
			e := newTestEngine("APPLE")
			g, ids := lobby(t, e, "Bob")
			g, err := e.StartRound(g)
			require.NoError(t, err)
			g, err = e.AddClue(g, ids[1], "tree")
			require.NoError(t, err)

			_, err = e.SubmitGuess(g, tc.guess)
			assert.ErrorIs(t, err, ErrWrongStatus)

			g, err = e.FilterClues(g)
			require.NoError(t, err)
			g, err = e.SubmitGuess(g, tc.guess)
			require.NoError(t, err)

			assert.Equal(t, StatusRoundResult, g.Status)
			r := g.CurrentRound
			require.NotNil(t, r.Guess)
			require.NotNil(t, r.Correct)
			assert.Equal(t, tc.guess, *r.Guess)
			assert.Equal(t, tc.correct, *r.Correct)
			assert.True(t, r.Completed)
			assert.Equal(t, *r, g.Rounds[0])
		})
	}
}

func TestCompletedRoundImmutable(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara")
	g = playRound(t, e, g)
	done := g.Rounds[0].Clone()

	_, err := e.AddClue(g, ids[1], "again")
	assert.ErrorIs(t, err, ErrRoundCompleted)
	_, err = e.MarkClueWritten(g, ids[1])
	assert.ErrorIs(t, err, ErrRoundCompleted)
	_, err = e.FilterClues(g)
	assert.ErrorIs(t, err, ErrRoundCompleted)
	_, err = e.SubmitGuess(g, "other")
	assert.ErrorIs(t, err, ErrRoundCompleted)
	_, err = e.RecordGuessResult(g, false)
	assert.ErrorIs(t, err, ErrRoundCompleted)

	g = playRound(t, e, g)
	g, err = e.RemovePlayer(g, ids[2])
	require.NoError(t, err)
	g, err = e.EndGame(g)
	require.NoError(t, err)

	if diff := cmp.Diff(done, g.Rounds[0]); diff != "" {
		t.Fatalf("completed round changed (-want +got):\n%s", diff)
	}
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara")
	g, err := e.StartRound(g)
	require.NoError(t, err)
	g, err = e.AddClue(g, ids[1], "tree")
	require.NoError(t, err)

	before := g.Clone()
	_, err = e.AddClue(g, ids[2], "tree")
	require.NoError(t, err)
	_, err = e.RemovePlayer(g, ids[0])
	require.NoError(t, err)

	if diff := cmp.Diff(before, g); diff != "" {
		t.Fatalf("input modified (-before +after):\n%s", diff)
	}
}

func TestUpdatedAtStrictlyIncreases(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob")
	prev := g.UpdatedAt

	steps := []func(Game) (Game, error){
		e.StartRound,
		func(g Game) (Game, error) { return e.AddClue(g, ids[1], "tree") },
		e.FilterClues,
		func(g Game) (Game, error) { return e.SubmitGuess(g, "pear") },
		e.StartRound,
		e.EndGame,
	}
	for i, step := range steps {
		next, err := step(g)
		require.NoError(t, err, "step %d", i)
		assert.True(t, next.UpdatedAt.After(prev), "step %d", i)
		prev, g = next.UpdatedAt, next
	}
	assert.Equal(t, time.UTC, g.UpdatedAt.Location())
}

func TestRemovePlayerHostTransfer(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara")

	g, err := e.RemovePlayer(g, "h1")
	require.NoError(t, err)
	assert.Equal(t, ids[1], g.HostID)
	require.Len(t, g.Players, 2)
	assert.True(t, g.Players[0].IsHost)
	assert.False(t, g.Players[1].IsHost)

	g, err = e.RemovePlayer(g, ids[2])
	require.NoError(t, err)
	assert.Equal(t, ids[1], g.HostID)

	_, err = e.RemovePlayer(g, "ghost")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	same, err := e.RemovePlayer(g, ids[1])
	assert.ErrorIs(t, err, ErrLastPlayer)
	assert.Equal(t, g, same)
}

func TestRemoveClueWriterCompletesCollection(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara", "Dan")
	g, err := e.StartRound(g)
	require.NoError(t, err)

	g, err = e.AddClue(g, ids[1], "tree")
	require.NoError(t, err)
	g, err = e.AddClue(g, ids[2], "red")
	require.NoError(t, err)
	require.Equal(t, StatusSubmittingClues, g.Status)

	g, err = e.RemovePlayer(g, ids[3])
	require.NoError(t, err)
	assert.Equal(t, StatusReviewingClues, g.Status)
	assert.Len(t, g.CurrentRound.Clues, 2)
}

func TestDepartedClueDoesNotCount(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara", "Dan")
	g, err := e.StartRound(g)
	require.NoError(t, err)

	g, err = e.AddClue(g, ids[1], "tree")
	require.NoError(t, err)
	g, err = e.RemovePlayer(g, ids[1])
	require.NoError(t, err)
	assert.Equal(t, StatusSubmittingClues, g.Status)

	g, err = e.AddClue(g, ids[2], "red")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmittingClues, g.Status)
	g, err = e.AddClue(g, ids[3], "pie")
	require.NoError(t, err)
	assert.Equal(t, StatusReviewingClues, g.Status)
}

func TestGuesserLeavesAbandonsRound(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara")
	g = playRound(t, e, g) // Alice guessed
	g, err := e.StartRound(g)
	require.NoError(t, err)
	require.Equal(t, ids[1], g.CurrentRound.GuesserID)

	g, err = e.RemovePlayer(g, ids[1])
	require.NoError(t, err)
	assert.True(t, g.Abandoned())
	assert.Equal(t, StatusSubmittingClues, g.Status)
	assert.Equal(t, ids[1], g.CurrentRound.GuesserID)

	_, err = e.AddClue(g, "h1", "tree")
	assert.ErrorIs(t, err, ErrRoundAbandoned)
	_, err = e.MarkClueWritten(g, ids[2])
	assert.ErrorIs(t, err, ErrRoundAbandoned)

	// previous guesser is gone: rotation restarts at players[0]
	g, err = e.StartRound(g)
	require.NoError(t, err)
	assert.Equal(t, 3, g.CurrentRound.RoundNumber)
	assert.Equal(t, "h1", g.CurrentRound.GuesserID)
	assert.False(t, g.Rounds[1].Completed)
}

func TestAbandonedRoundCannotBeSettled(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob", "Cara", "Dan")
	g, err := e.StartRound(g)
	require.NoError(t, err)
	for _, id := range ids[1:] {
		g, err = e.AddClue(g, id, "hint"+id)
		require.NoError(t, err)
	}
	require.Equal(t, StatusReviewingClues, g.Status)

	reviewing, err := e.RemovePlayer(g, "h1")
	require.NoError(t, err)
	require.True(t, reviewing.Abandoned())
	_, err = e.FilterClues(reviewing)
	assert.ErrorIs(t, err, ErrRoundAbandoned)
	_, err = e.RecordGuessResult(reviewing, true)
	assert.ErrorIs(t, err, ErrRoundAbandoned)

	g, err = e.FilterClues(g)
	require.NoError(t, err)
	guessing, err := e.RemovePlayer(g, "h1")
	require.NoError(t, err)
	assert.Equal(t, StatusGuessing, guessing.Status)

	same, err := e.SubmitGuess(guessing, "apple")
	assert.ErrorIs(t, err, ErrRoundAbandoned)
	assert.Equal(t, guessing, same)
	_, err = e.RecordGuessResult(guessing, true)
	assert.ErrorIs(t, err, ErrRoundAbandoned)
	assert.Equal(t, Tally{}, TallyOf(guessing))

	next, err := e.StartRound(guessing)
	require.NoError(t, err)
	assert.Equal(t, 2, next.CurrentRound.RoundNumber)
}

func TestTooFewPlayersReturnsToLobby(t *testing.T) {
	t.Run("clue-writer leaves mid-round", func(t *testing.T) {
		e := newTestEngine("APPLE")
		g, ids := lobby(t, e, "Bob")
		g, err := e.StartRound(g)
		require.NoError(t, err)

		g, err = e.RemovePlayer(g, ids[1])
		require.NoError(t, err)
		assert.Equal(t, StatusLobby, g.Status)
		require.Len(t, g.Players, 1)
		assert.False(t, g.Players[0].IsGuesser)

		g, dan, err := e.AddPlayer(g, "Dan")
		require.NoError(t, err)
		g, err = e.StartRound(g)
		require.NoError(t, err)
		assert.Equal(t, 2, g.CurrentRound.RoundNumber)
		assert.Equal(t, dan, g.CurrentRound.GuesserID)
		assert.False(t, g.Rounds[0].Completed)
	})

	t.Run("guesser leaves mid-round", func(t *testing.T) {
		e := newTestEngine("APPLE")
		g, ids := lobby(t, e, "Bob")
		g, err := e.StartRound(g)
		require.NoError(t, err)

		g, err = e.RemovePlayer(g, "h1")
		require.NoError(t, err)
		assert.Equal(t, StatusLobby, g.Status)
		assert.Equal(t, ids[1], g.HostID)
		_, err = e.AddClue(g, ids[1], "tree")
		assert.ErrorIs(t, err, ErrRoundAbandoned)

		_, _, err = e.AddPlayer(g, "Dan")
		assert.NoError(t, err)
	})

	t.Run("after a round result", func(t *testing.T) {
		e := newTestEngine("APPLE")
		g, ids := lobby(t, e, "Bob")
		g = playRound(t, e, g)

		g, err := e.RemovePlayer(g, ids[1])
		require.NoError(t, err)
		assert.Equal(t, StatusLobby, g.Status)
		assert.Equal(t, Tally{Played: 1, Correct: 1}, TallyOf(g))

		_, _, err = e.AddPlayer(g, "Dan")
		assert.NoError(t, err)
	})
}

func TestIRLRound(t *testing.T) {
	e := newTestEngine("APPLE")
	g, err := e.CreateGame("h1", "Alice", ModeIRL)
	require.NoError(t, err)
	g, bob, err := e.AddPlayer(g, "Bob")
	require.NoError(t, err)
	g, cara, err := e.AddPlayer(g, "Cara")
	require.NoError(t, err)
	g, err = e.StartRound(g)
	require.NoError(t, err)

	g, err = e.MarkClueWritten(g, bob)
	require.NoError(t, err)
	g, err = e.MarkClueWritten(g, bob)
	require.NoError(t, err)
	require.Len(t, g.CurrentRound.Clues, 1)
	assert.Equal(t, IRLClueMarker, g.CurrentRound.Clues[0].Word)
	assert.Equal(t, StatusSubmittingClues, g.Status)

	g, err = e.MarkClueWritten(g, cara)
	require.NoError(t, err)
	assert.Equal(t, StatusReviewingClues, g.Status)

	lost, err := e.RecordGuessResult(g, false)
	require.NoError(t, err)
	assert.Equal(t, WrongAnswer, *lost.CurrentRound.Guess)
	assert.False(t, *lost.CurrentRound.Correct)
	assert.Equal(t, StatusRoundResult, lost.Status)

	won, err := e.RecordGuessResult(g, true)
	require.NoError(t, err)
	assert.Equal(t, "APPLE", *won.CurrentRound.Guess)
	assert.True(t, *won.CurrentRound.Correct)
	assert.True(t, won.CurrentRound.Completed)
}

func TestSessionVariants(t *testing.T) {
	e := newTestEngine("APPLE")
	online, err := e.CreateGame("h1", "Alice", ModeOnline)
	require.NoError(t, err)
	irl, err := e.CreateGame("h2", "Zoe", ModeIRL)
	require.NoError(t, err)

	switch s := e.Session(online).(type) {
	case OnlineSession:
		assert.Equal(t, ModeOnline, s.Mode())
		assert.Equal(t, online, s.Game())
	default:
		t.Fatalf("online game bound to %T", s)
	}

	switch s := e.Session(irl).(type) {
	case IRLSession:
		assert.Equal(t, ModeIRL, s.Mode())
		_, err := s.MarkClueWritten("h2")
		assert.ErrorIs(t, err, ErrNoRound)
	default:
		t.Fatalf("irl game bound to %T", s)
	}
}

func TestEndGame(t *testing.T) {
	e := newTestEngine("APPLE")
	g, _ := lobby(t, e, "Bob")
	g, err := e.EndGame(g)
	require.NoError(t, err)
	assert.Equal(t, StatusGameOver, g.Status)

	_, err = e.EndGame(g)
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestTallyOf(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob")
	assert.Equal(t, Tally{}, TallyOf(g))

	g = playRound(t, e, g)
	g, err := e.StartRound(g)
	require.NoError(t, err)
	g, err = e.AddClue(g, ids[0], "tree")
	require.NoError(t, err)
	g, err = e.FilterClues(g)
	require.NoError(t, err)
	g, err = e.SubmitGuess(g, "pear")
	require.NoError(t, err)
	g, err = e.StartRound(g)
	require.NoError(t, err)

	assert.Equal(t, Tally{Played: 2, Correct: 1}, TallyOf(g))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, m)

	m, err = ParseMode("irl")
	require.NoError(t, err)
	assert.Equal(t, ModeIRL, m)

	_, err = ParseMode("IRL!")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSubmitGuessTooLong(t *testing.T) {
	e := newTestEngine("APPLE")
	g, ids := lobby(t, e, "Bob")
	g, err := e.StartRound(g)
	require.NoError(t, err)
	g, err = e.AddClue(g, ids[1], "tree")
	require.NoError(t, err)
	g, err = e.FilterClues(g)
	require.NoError(t, err)

	same, err := e.SubmitGuess(g, strings.Repeat("a", MaxWordLen+1))
	assert.ErrorIs(t, err, ErrGuessTooLong)
	assert.Equal(t, g, same)

	_, err = e.SubmitGuess(g, " "+strings.Repeat("a", MaxWordLen)+" ")
	assert.NoError(t, err)
}
