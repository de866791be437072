// internal/httpserver/server.go
//
// HTTP server wiring for the Just One backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     request logging, per-client rate limiting).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game actions under /games (routes_games.go).
//   - Live updates over a websocket per game (ws.go).
//   - QR code of a game's join link (qr.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled for a single client origin.
//   - Handler errors go through writeError, which maps sentinel errors from
//     the game, session and store packages to a status and a stable code.
//   - The websocket route sits outside the request timeout.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/edi19863/just-one-webparty/internal/game"
	"github.com/edi19863/just-one-webparty/internal/session"
	"github.com/edi19863/just-one-webparty/internal/store"
	"github.com/edi19863/just-one-webparty/internal/words"
)

// Options configures the HTTP surface.
type Options struct {
	ClientOrigin   string        // allowed CORS / websocket origin
	PublicURL      string        // base of the join link encoded in QR codes
	PollInterval   time.Duration // idle window of websocket coordinators
	RequestTimeout time.Duration
	RateLimit      float64 // actions per second per client IP; <= 0 disables
	RateBurst      int
}

func (o Options) withDefaults() Options {
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:5173"
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 10
	}
	return o
}

// Server bundles router, action service and store.
type Server struct {
	r     *chi.Mux
	svc   *session.Service
	store store.Store
	bank  *words.Bank
	opts  Options

	limiters *ipLimiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(svc *session.Service, st store.Store, bank *words.Bank, opts Options) *Server {
	opts = opts.withDefaults()
	s := &Server{r: chi.NewRouter(), svc: svc, store: st, bank: bank, opts: opts}
	if opts.RateLimit > 0 {
		s.limiters = newIPLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"just-one","endpoints":["/health","POST /games","POST /games/join","/games/{id}/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(s.bank.Stats())
	})

	// live updates: no request timeout
	s.r.Get("/games/{id}/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))
		if s.limiters != nil {
			r.Use(s.limiters.middleware)
		}
		s.mountGames(r)
		r.Get("/join/{code}/qr", s.handleQR)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Serve runs the server on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request once it has been served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("http request")
	})
}

// limiterIdle is how long a client's bucket survives without requests.
const limiterIdle = 10 * time.Minute

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		limit:     limit,
		burst:     burst,
		now:       time.Now,
		clients:   make(map[string]*client),
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) get(addr string) *rate.Limiter {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= limiterIdle/2 {
		l.reap(now)
	}
	c, ok := l.clients[host]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[host] = c
	}
	c.lastSeen = now
	return c.lim
}

// reap removes clients idle longer than limiterIdle. l.mu must be held.
func (l *ipLimiter) reap(now time.Time) {
	cutoff := now.Add(-limiterIdle)
	for host, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, host)
		}
	}
	l.lastSweep = now
}

// middleware rejects writes beyond the client's budget. Reads are free.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !l.get(r.RemoteAddr).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ errors -------------------------------------

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// errorCodes maps sentinel errors to a status and a response code. The
// first match wins.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{store.ErrNotFound, http.StatusNotFound, "not_found"},
	{game.ErrPlayerNotFound, http.StatusNotFound, "player_not_found"},
	{session.ErrNotInGame, http.StatusForbidden, "not_in_game"},
	{session.ErrNotHost, http.StatusForbidden, "not_host"},
	{session.ErrNotGuesser, http.StatusForbidden, "not_guesser"},
	{game.ErrInvalidNickname, http.StatusBadRequest, "invalid_nickname"},
	{game.ErrInvalidMode, http.StatusBadRequest, "invalid_mode"},
	{game.ErrGuessTooLong, http.StatusBadRequest, "guess_too_long"},
	{store.ErrInvalidDecision, http.StatusBadRequest, "invalid_decision"},
	{session.ErrNoClue, http.StatusBadRequest, "no_clue"},
	{session.ErrRoundMismatch, http.StatusBadRequest, "round_mismatch"},
	{game.ErrWrongStatus, http.StatusConflict, "wrong_status"},
	{game.ErrWrongMode, http.StatusConflict, "wrong_mode"},
	{game.ErrNoRound, http.StatusConflict, "no_round"},
	{game.ErrRoundCompleted, http.StatusConflict, "round_completed"},
	{game.ErrRoundAbandoned, http.StatusConflict, "round_abandoned"},
	{game.ErrNotEnoughPlayers, http.StatusConflict, "not_enough_players"},
	{game.ErrGuesserCannotClue, http.StatusConflict, "guesser_cannot_clue"},
	{game.ErrLastPlayer, http.StatusConflict, "last_player"},
	{store.ErrStaleWrite, http.StatusConflict, "stale_write"},
	{store.ErrCodeTaken, http.StatusConflict, "code_taken"},
	{session.ErrCodeExhausted, http.StatusServiceUnavailable, "code_exhausted"},
	{store.ErrUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
}

// writeError maps err to a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if game.IsInvalidClue(err) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_clue", Reason: err.Error()})
		return
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			if ec.status >= http.StatusInternalServerError {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
			}
			writeJSON(w, ec.status, errorBody{Error: ec.code})
			return
		}
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// maxBodyBytes bounds action request bodies.
const maxBodyBytes = 4 << 10

// decode reads a JSON body into v, answering bad_json on failure and
// body_too_large past maxBodyBytes.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, `{"error":"body_too_large"}`, http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return false
	}
	return true
}
