package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"witchmart/pkg/platform/httputil"
	"witchmart/pkg/platform/validation"
	"witchmart/pkg/requestcontext"
)

// Service defines the harm scan operation.
type Service interface {
	ScanForm(ctx context.Context, sessionID string, fields map[string]any) (bool, error)
}

// Handler serves the form scan endpoint used before a form is submitted.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/harm/scan", h.HandleScan)
}

type ScanRequest struct {
	Fields map[string]any `json:"fields" validate:"required"`
}

type ScanResponse struct {
	Triggered bool `json:"triggered"`
}

// HandleScan answers whether any string field of the form contains a harm trigger.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[ScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.CheckMapCount("fields", req.Fields, validation.MaxFormFields); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := validation.CheckEachStringValue("fields", req.Fields, validation.MaxFormFieldLength); err != nil {
		httputil.WriteError(w, err)
		return
	}

	triggered, err := h.service.ScanForm(ctx, requestcontext.SessionID(ctx), req.Fields)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record harm scan",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ScanResponse{Triggered: triggered})
}
