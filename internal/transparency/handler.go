package transparency

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"witchmart/internal/session"
	"witchmart/pkg/platform/httputil"
	"witchmart/pkg/requestcontext"
)

// SessionLoader reads the caller's session.
type SessionLoader interface {
	Load(ctx context.Context, id string) (*session.Session, error)
}

type Handler struct {
	sessions SessionLoader
	recorder *Recorder
	logger   *slog.Logger
}

func NewHandler(sessions SessionLoader, recorder *Recorder, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, recorder: recorder, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/transparency-log", h.HandleGetLog)
}

type LogResponse struct {
	Entries []session.LogEntry `json:"entries"`
}

// HandleGetLog returns the caller's transparency log, oldest entry first.
func (h *Handler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sess, err := h.sessions.Load(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load session for transparency log",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LogResponse{Entries: h.recorder.GetLog(sess)})
}
