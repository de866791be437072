package game

// Session is a game bound to the transitions of its mode. It is sealed:
// the only implementations are OnlineSession and IRLSession.
type Session interface {
	Game() Game
	Mode() Mode
	sealed()
}

// OnlineSession exposes the typed clue and typed guess transitions.
type OnlineSession struct {
	e *Engine
	g Game
}

// IRLSession exposes the written-clue marker and the judged guess result.
type IRLSession struct {
	e *Engine
	g Game
}

// Session binds g to its mode variant. Games with an unknown mode are
// treated as online.
func (e *Engine) Session(g Game) Session {
	if g.Mode == ModeIRL {
		return IRLSession{e: e, g: g}
	}
	return OnlineSession{e: e, g: g}
}

func (s OnlineSession) Game() Game { return s.g }
func (s OnlineSession) Mode() Mode { return ModeOnline }
func (OnlineSession) sealed()      {}

// SubmitClue adds a typed clue from playerID.
func (s OnlineSession) SubmitClue(playerID, word string) (Game, error) {
	return s.e.AddClue(s.g, playerID, word)
}

// SubmitGuess settles the round with the guesser's typed answer.
func (s OnlineSession) SubmitGuess(guess string) (Game, error) {
	return s.e.SubmitGuess(s.g, guess)
}

func (s IRLSession) Game() Game { return s.g }
func (s IRLSession) Mode() Mode { return ModeIRL }
func (IRLSession) sealed()      {}

// MarkClueWritten records that playerID has written their clue down.
func (s IRLSession) MarkClueWritten(playerID string) (Game, error) {
	return s.e.MarkClueWritten(s.g, playerID)
}

// RecordGuessResult settles the round with the table's verdict.
func (s IRLSession) RecordGuessResult(correct bool) (Game, error) {
	return s.e.RecordGuessResult(s.g, correct)
}
