package game

import "errors"

// Transition failures. A transition that fails returns its input unchanged
// together with one of these.
var (
	ErrInvalidMode       = errors.New("invalid-mode")
	ErrInvalidNickname   = errors.New("invalid-nickname")
	ErrWrongStatus       = errors.New("wrong-status")
	ErrWrongMode         = errors.New("wrong-mode")
	ErrNoRound           = errors.New("no-round")
	ErrRoundCompleted    = errors.New("round-completed")
	ErrRoundAbandoned    = errors.New("round-abandoned")
	ErrPlayerNotFound    = errors.New("player-not-found")
	ErrNotEnoughPlayers  = errors.New("not-enough-players")
	ErrGuesserCannotClue = errors.New("guesser-cannot-clue")
	ErrLastPlayer        = errors.New("last-player")
	ErrEmptyWordBank     = errors.New("empty-word-bank")
	ErrGuessTooLong      = errors.New("guess-too-long")
)

// Clue validation failures.
var (
	ErrEmptyClue      = errors.New("empty-clue")
	ErrClueTooLong    = errors.New("clue-too-long")
	ErrMultiWordClue  = errors.New("multi-word-clue")
	ErrClueIsSecret   = errors.New("clue-is-secret")
	ErrClueTooSimilar = errors.New("clue-too-similar")
)

// IsInvalidClue reports whether err is one of the clue validation failures.
func IsInvalidClue(err error) bool {
	return errors.Is(err, ErrEmptyClue) || errors.Is(err, ErrClueTooLong) ||
		errors.Is(err, ErrMultiWordClue) || errors.Is(err, ErrClueIsSecret) ||
		errors.Is(err, ErrClueTooSimilar)
}
