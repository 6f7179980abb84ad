package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"witchmart/internal/platform/middleware"
	"witchmart/internal/session"
	"witchmart/pkg/platform/httputil"
	"witchmart/pkg/requestcontext"
)

// Service is the part of the session manager exposed over HTTP.
type Service interface {
	Load(ctx context.Context, id string) (*session.Session, error)
	Destroy(ctx context.Context, id string) error
}

// StreamAborter tears down an in-flight chat reply for a session.
type StreamAborter interface {
	Abort(sessionID string) bool
}

// Handler serves the caller's own session summary.
type Handler struct {
	logger   *slog.Logger
	sessions Service
	aborter  StreamAborter
}

func New(sessions Service, aborter StreamAborter, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, sessions: sessions, aborter: aborter}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/session", h.HandleGetSession)
	r.Delete("/api/session", h.HandleEndSession)
}

type SessionResponse struct {
	SessionIDPrefix string `json:"session_id_prefix"`
	Device          string `json:"device,omitempty"`
	ConsentGranted  bool   `json:"consent_granted"`
	Turns           int    `json:"turns"`
	CreatedAt       string `json:"created_at"`
	ExpiresAt       string `json:"expires_at"`
}

type EndResponse struct {
	Ended bool `json:"ended"`
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.sessions.Load(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load session",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		SessionIDPrefix: sess.IDPrefix(),
		Device:          sess.Device,
		ConsentGranted:  sess.HasConsent(),
		Turns:           len(sess.Turns),
		CreatedAt:       sess.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:       sess.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleEndSession drops the session and everything it holds. The next
// request starts a fresh one.
func (h *Handler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := requestcontext.SessionID(ctx)
	if h.aborter != nil {
		h.aborter.Abort(id)
	}
	if err := h.sessions.Destroy(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to end session",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Del(middleware.SessionHeader)
	httputil.WriteJSON(w, http.StatusOK, EndResponse{Ended: true})
}
