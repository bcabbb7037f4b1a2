package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/spirolab/spiro/backend-go/internal/auth"
	"github.com/spirolab/spiro/backend-go/internal/engine"
	"github.com/spirolab/spiro/backend-go/internal/export"
	"github.com/spirolab/spiro/backend-go/internal/session"
)

const (
	maxCommandSize = 64 * 1024
	defaultQRSize  = 256
)

type Handler struct {
	hub       *session.Hub
	auth      *auth.Service
	publicURL string
}

func NewHandler(hub *session.Hub, authSvc *auth.Service, publicURL string) *Handler {
	return &Handler{hub: hub, auth: authSvc, publicURL: publicURL}
}

type createResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	WSURL string `json:"wsUrl"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.hub.Create()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	tok, err := h.auth.IssueToken(s.ID)
	if err != nil {
		slog.Error("issue session token", "error", err, "session", s.ID)
		if closeErr := h.hub.Close(s.ID); closeErr != nil {
			slog.Warn("close session", "error", closeErr)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("session created", "session", s.ID)
	writeJSON(w, http.StatusCreated, createResponse{
		ID:    s.ID,
		Token: tok.Token,
		WSURL: "/ws/session/" + s.ID + "?token=" + url.QueryEscape(tok.Token),
	})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	s, err := h.hub.Get(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	doc, err := s.Snapshot(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	s, err := h.hub.Get(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCommandSize)
	var cmd engine.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.Submit(r.Context(), cmd); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Close(mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.hub.Get(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	name := export.SanitizeName(r.URL.Query().Get("name"), "spirograph")

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.svg"`, name))
	if err := s.ExportSVG(r.Context(), w); err != nil {
		w.Header().Del("Content-Disposition")
		handleServiceError(w, err)
		return
	}
}

// ShareQR returns a PNG QR code that opens the session on another device.
func (h *Handler) ShareQR(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.hub.Get(id); err != nil {
		handleServiceError(w, err)
		return
	}

	size := defaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid size"})
			return
		}
		size = min(max(n, 64), 1024)
	}

	tok, err := h.auth.IssueToken(id)
	if err != nil {
		slog.Error("issue share token", "error", err, "session", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	link := h.publicURL + "/?session=" + url.QueryEscape(id) + "&token=" + url.QueryEscape(tok.Token)
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		slog.Error("encode qr code", "error", err, "session", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, session.ErrSessionClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
	case errors.Is(err, session.ErrTooManySessions):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "too many sessions"})
	case errors.Is(err, engine.ErrInvalidPayload):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request cancelled"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
