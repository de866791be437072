// internal/httpserver/ws.go
//
// GET /games/{id}/ws streams a game to one client.
//
// Each connection runs a coordinator fed by a store subscription, so the
// client receives a snapshot first, then every newer version as a typed
// event. Older or duplicate versions are dropped before they reach the
// socket. Inbound messages are ignored; reading only detects the close.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/edi19863/just-one-webparty/internal/coordinator"
	"github.com/edi19863/just-one-webparty/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.opts.ClientOrigin == "*" || origin == s.opts.ClientOrigin
		},
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.svc.Game(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		log.Debug().Err(err).Str("gameId", id).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go readPump(conn, cancel)
	go pingPump(ctx, conn)

	feed, unsubscribe := s.store.Subscribe(ctx, id)
	defer unsubscribe()

	c := coordinator.New(id, s.store, s.opts.PollInterval)
	err = c.Run(ctx, feed, func(ev events.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Str("gameId", id).Msg("websocket closed")
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// readPump discards client messages and cancels once the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pingPump keeps the connection alive. WriteControl may run concurrently
// with the coordinator's writes.
func pingPump(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
