package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/spirolab/spiro/backend-go/internal/auth"
	"github.com/spirolab/spiro/backend-go/internal/session"
)

// WebSocket attaches a live client to a session. The token travels as a query
// parameter because browsers cannot set headers on websocket requests.
type WebSocket struct {
	hub            *session.Hub
	auth           *auth.Service
	originPatterns []string
}

func NewWebSocket(hub *session.Hub, authSvc *auth.Service, origins []string) *WebSocket {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		patterns = append(patterns, o)
	}
	return &WebSocket{hub: hub, auth: authSvc, originPatterns: patterns}
}

func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if err := ws.auth.Authorize(token, sessionID); err != nil {
		if errors.Is(err, auth.ErrWrongSession) {
			http.Error(w, "token does not grant this session", http.StatusForbidden)
			return
		}
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	s, err := ws.hub.Get(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: ws.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := session.NewClient(s, conn, clientID)

	if err := s.Attach(client); err != nil {
		conn.Close(websocket.StatusGoingAway, "session closed")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
