// internal/httpserver/routes_games.go
//
// HTTP routes for game actions, all under /games:
//   - POST   /games                           → create a lobby, caller becomes host
//   - POST   /games/join                      → join a lobby by its code
//   - GET    /games/{id}                      → current game
//   - GET    /games/{id}/me/{playerId}        → membership check
//   - POST   /games/{id}/rounds               → start the next round (host)
//   - POST   /games/{id}/clues                → typed clue (online)
//   - POST   /games/{id}/clues/written        → clue written on paper (IRL)
//   - POST   /games/{id}/clues/filter         → run the filtering pass now (online)
//   - POST   /games/{id}/guess                → typed guess (online)
//   - POST   /games/{id}/guess/result         → table's verdict (IRL)
//   - PUT    /games/{id}/rounds/{n}/decisions → judge one written clue (IRL)
//   - GET    /games/{id}/rounds/{n}/decisions → clue decisions of a round (IRL)
//   - DELETE /games/{id}/rounds/{n}/decisions → forget a round's decisions (IRL)
//   - POST   /games/{id}/leave                → leave the game
//   - POST   /games/{id}/end                  → end the game (host)
//   - GET    /games/{id}/tally                → rounds played / guessed so far
//
// Players identify themselves with the playerId they got on create/join.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edi19863/just-one-webparty/internal/game"
	"github.com/edi19863/just-one-webparty/internal/session"
	"github.com/edi19863/just-one-webparty/internal/store"
)

// mountGames registers all /games routes.
func (s *Server) mountGames(r chi.Router) {
	r.Route("/games", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Post("/join", s.handleJoin)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Get("/me/{playerId}", s.handleMe)
			r.Post("/rounds", s.handleStartRound)
			r.Post("/clues", s.handleClue)
			r.Post("/clues/written", s.handleClueWritten)
			r.Post("/clues/filter", s.handleFilter)
			r.Post("/guess", s.handleGuess)
			r.Post("/guess/result", s.handleGuessResult)
			r.Route("/rounds/{n}/decisions", func(r chi.Router) {
				r.Put("/", s.handleSetDecision)
				r.Get("/", s.handleDecisions)
				r.Delete("/", s.handleClearDecisions)
			})
			r.Post("/leave", s.handleLeave)
			r.Post("/end", s.handleEnd)
			r.Get("/tally", s.handleTally)
		})
	})
}

// ------------------------------ payloads -----------------------------------

type createReq struct {
	Nickname string `json:"nickname"`
	Mode     string `json:"mode"` // "online" | "irl"
}

type joinReq struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

// playerReq is the body of actions that only name the acting player.
type playerReq struct {
	PlayerID string `json:"playerId"`
}

type clueReq struct {
	PlayerID string `json:"playerId"`
	Word     string `json:"word"`
}

type guessReq struct {
	PlayerID string `json:"playerId"` // optional
	Guess    string `json:"guess"`
}

type guessResultReq struct {
	Correct *bool `json:"correct"`
}

type decisionReq struct {
	PlayerID string               `json:"playerId"`
	Status   store.DecisionStatus `json:"status"`
}

type gameRes struct {
	Game game.Game `json:"game"`
}

// ------------------------------ handlers -----------------------------------

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.CreateGame(r.Context(), req.Nickname, req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if !decode(w, r, &req) {
		return
	}
	if !game.ValidCode(game.NormalizeCode(req.Code)) {
		writeError(w, r, store.ErrNotFound)
		return
	}
	res, err := s.svc.JoinGame(r.Context(), req.Code, req.Nickname)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Game(r.Context(), chi.URLParam(r, "id"))
	s.respondGame(w, r, g, err)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Me(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "playerId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req playerReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.svc.StartRound(r.Context(), chi.URLParam(r, "id"), req.PlayerID)
	s.respondGame(w, r, g, err)
}

func (s *Server) handleClue(w http.ResponseWriter, r *http.Request) {
	var req clueReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.svc.SubmitClue(r.Context(), chi.URLParam(r, "id"), req.PlayerID, req.Word)
	s.respondGame(w, r, g, err)
}

func (s *Server) handleClueWritten(w http.ResponseWriter, r *http.Request) {
	var req playerReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.svc.MarkClueWritten(r.Context(), chi.URLParam(r, "id"), req.PlayerID)
	s.respondGame(w, r, g, err)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.FilterClues(r.Context(), chi.URLParam(r, "id"))
	s.respondGame(w, r, g, err)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.svc.SubmitGuess(r.Context(), chi.URLParam(r, "id"), req.PlayerID, req.Guess)
	s.respondGame(w, r, g, err)
}

func (s *Server) handleGuessResult(w http.ResponseWriter, r *http.Request) {
	var req guessResultReq
	if !decode(w, r, &req) {
		return
	}
	if req.Correct == nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	g, err := s.svc.SubmitGuessResult(r.Context(), chi.URLParam(r, "id"), *req.Correct)
	s.respondGame(w, r, g, err)
}

func (s *Server) handleSetDecision(w http.ResponseWriter, r *http.Request) {
	n, ok := roundParam(w, r)
	if !ok {
		return
	}
	var req decisionReq
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.SetClueDecision(r.Context(), chi.URLParam(r, "id"), n, req.PlayerID, req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	n, ok := roundParam(w, r)
	if !ok {
		return
	}
	list, err := s.svc.ClueStatuses(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]session.ClueStatus{"clues": list})
}

func (s *Server) handleClearDecisions(w http.ResponseWriter, r *http.Request) {
	n, ok := roundParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.ClearClueDecisions(r.Context(), chi.URLParam(r, "id"), n); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req playerReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.svc.LeaveGame(r.Context(), chi.URLParam(r, "id"), req.PlayerID)
	s.respondGame(w, r, g, err)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req playerReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.svc.EndGame(r.Context(), chi.URLParam(r, "id"), req.PlayerID)
	s.respondGame(w, r, g, err)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Tally(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// respondGame writes g, or err when the action failed.
func (s *Server) respondGame(w http.ResponseWriter, r *http.Request, g game.Game, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameRes{Game: g})
}

// roundParam parses the {n} path segment.
func roundParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		http.Error(w, `{"error":"bad_round"}`, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
