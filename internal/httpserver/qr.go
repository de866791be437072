package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/edi19863/just-one-webparty/internal/game"
)

const qrSize = 320 // mobile-friendly size

// joinURL is the link players scan to join the game behind code.
func (s *Server) joinURL(r *http.Request, code string) string {
	base := strings.TrimSuffix(s.opts.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + code
}

// handleQR answers a PNG QR code of the join link for {code}.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	code := game.NormalizeCode(chi.URLParam(r, "code"))
	if !game.ValidCode(code) {
		http.Error(w, `{"error":"bad_code"}`, http.StatusBadRequest)
		return
	}

	png, err := qrcode.Encode(s.joinURL(r, code), qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, `{"error":"qr_failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}
