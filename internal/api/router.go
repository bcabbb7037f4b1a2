package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/spirolab/spiro/backend-go/internal/auth"
	mw "github.com/spirolab/spiro/backend-go/internal/middleware"
	"github.com/spirolab/spiro/backend-go/internal/session"
)

// NewRouter wires every HTTP route of the session service.
func NewRouter(hub *session.Hub, authSvc *auth.Service, origins []string, publicURL string) *mux.Router {
	h := NewHandler(hub, authSvc, publicURL)
	authHandler := auth.NewHandler(authSvc)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Health check
	r.HandleFunc("/health", Health).Methods("GET")

	// Session creation (public)
	r.HandleFunc("/api/sessions", h.Create).Methods("POST", "OPTIONS")

	// Per-session routes require a token for that session
	protect := func(fn http.HandlerFunc) http.Handler {
		return authSvc.AuthMiddleware(fn)
	}
	r.Handle("/api/sessions/{id}", protect(h.Delete)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/sessions/{id}/state", protect(h.GetState)).Methods("GET", "OPTIONS")
	r.Handle("/api/sessions/{id}/commands", protect(h.SubmitCommand)).Methods("POST", "OPTIONS")
	r.Handle("/api/sessions/{id}/export.svg", protect(h.ExportSVG)).Methods("GET", "OPTIONS")
	r.Handle("/api/sessions/{id}/qr.png", protect(h.ShareQR)).Methods("GET", "OPTIONS")
	r.Handle("/api/sessions/{id}/token", protect(authHandler.Refresh)).Methods("POST", "OPTIONS")

	// WebSocket endpoint
	r.Handle("/ws/session/{id}", NewWebSocket(hub, authSvc, origins))

	return r
}
