package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"witchmart/internal/session"
	"witchmart/pkg/platform/httputil"
	"witchmart/pkg/requestcontext"
)

// Service defines the consent operations exposed over HTTP.
type Service interface {
	Get(ctx context.Context, sessionID string) (session.ConsentRecord, error)
	SetConsent(ctx context.Context, sessionID string, granted bool) (session.ConsentRecord, error)
	RevokeAllData(ctx context.Context, sessionID string) error
}

// Handler handles consent endpoints for the caller's session.
type Handler struct {
	logger  *slog.Logger
	consent Service
}

func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, consent: consent}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/consent", h.HandleGetConsent)
	r.Post("/api/consent", h.HandleSetConsent)
	r.Post("/api/consent/revoke", h.HandleRevoke)
}

// SetConsentRequest carries the user's explicit choice. Granted is a pointer
// so an omitted field is rejected instead of read as a revoke.
type SetConsentRequest struct {
	Granted *bool `json:"granted" validate:"required"`
}

type ConsentResponse struct {
	Granted   bool    `json:"granted"`
	GrantedAt *string `json:"granted_at"`
}

type RevokeResponse struct {
	Revoked bool `json:"revoked"`
}

func toResponse(record session.ConsentRecord) ConsentResponse {
	resp := ConsentResponse{Granted: record.Granted}
	if record.GrantedAt != nil {
		ts := record.GrantedAt.UTC().Format(time.RFC3339)
		resp.GrantedAt = &ts
	}
	return resp
}

func (h *Handler) HandleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.consent.Get(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read consent",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(record))
}

func (h *Handler) HandleSetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[SetConsentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.consent.SetConsent(ctx, requestcontext.SessionID(ctx), *req.Granted)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to set consent",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(record))
}

// HandleRevoke withdraws consent and purges everything the session held.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.consent.RevokeAllData(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke consent",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RevokeResponse{Revoked: true})
}
