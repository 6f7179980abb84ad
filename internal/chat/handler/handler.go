package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"witchmart/internal/chat"
	"witchmart/internal/session"
	"witchmart/pkg/platform/httputil"
	"witchmart/pkg/platform/validation"
	"witchmart/pkg/requestcontext"
)

// Service defines the chat operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, sessionID, text string, sink chat.Sink) (chat.Result, error)
	Confirm(ctx context.Context, sessionID string, always bool, sink chat.Sink) (chat.Result, error)
	Cancel(ctx context.Context, sessionID string) error
	Clear(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string) (chat.History, error)
}

// Handler serves the chat endpoints. Replies that reach the upstream model
// are streamed as server-sent events; every other outcome is plain JSON.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the chat routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/chat", h.HandleSubmit)
	r.Post("/api/chat/confirm", h.HandleConfirm)
	r.Post("/api/chat/cancel", h.HandleCancel)
	r.Post("/api/chat/clear", h.HandleClear)
	r.Get("/api/chat/history", h.HandleHistory)
}

type SubmitRequest struct {
	Message string `json:"message" validate:"required,notblank"`
}

type ConfirmRequest struct {
	Always bool `json:"always"`
}

type ConfirmationResponse struct {
	ConfirmationRequired bool   `json:"confirmation_required"`
	Stage                int    `json:"stage"`
	Warning              string `json:"warning"`
}

type HintResponse struct {
	Hint string `json:"hint"`
}

type AbortedResponse struct {
	Aborted bool `json:"aborted"`
}

type HistoryResponse struct {
	Turns        []session.Turn `json:"turns"`
	State        string         `json:"state"`
	PendingStage int            `json:"pending_stage"`
}

type StatusResponse struct {
	OK bool `json:"ok"`
}

// Stream frames.
type contentFrame struct {
	Content string `json:"content"`
}

type doneFrame struct {
	Done bool `json:"done"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// reply lazily switches the response to an event stream on the first
// fragment, so outcomes decided before streaming can still answer in JSON.
type reply struct {
	w      http.ResponseWriter
	stream *httputil.EventStream
}

func (rp *reply) send(frame any) error {
	if rp.stream == nil {
		stream, err := httputil.NewEventStream(rp.w)
		if err != nil {
			return err
		}
		rp.stream = stream
	}
	return rp.stream.Send(frame)
}

func (rp *reply) sink(fragment string) error {
	return rp.send(contentFrame{Content: fragment})
}

func (rp *reply) started() bool {
	return rp.stream != nil && rp.stream.Started()
}

// HandleSubmit accepts a new chat message.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.CheckStringLength("message", req.Message, validation.MaxMessageLength); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rp := &reply{w: w}
	result, err := h.service.Submit(ctx, requestcontext.SessionID(ctx), req.Message, rp.sink)
	h.finish(ctx, rp, result, err)
}

// HandleConfirm confirms the message held behind the harm warning.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[ConfirmRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rp := &reply{w: w}
	result, err := h.service.Confirm(ctx, requestcontext.SessionID(ctx), req.Always, rp.sink)
	h.finish(ctx, rp, result, err)
}

func (h *Handler) finish(ctx context.Context, rp *reply, result chat.Result, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "chat request failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if rp.started() {
			h.sendFinal(ctx, rp, errorFrame{Error: chat.FallbackText})
			return
		}
		httputil.WriteError(rp.w, err)
		return
	}

	switch result.Kind {
	case chat.ResultConfirmHarm:
		httputil.WriteJSON(rp.w, http.StatusOK, ConfirmationResponse{
			ConfirmationRequired: true,
			Stage:                result.Stage,
			Warning:              result.Warning,
		})
	case chat.ResultHint:
		httputil.WriteJSON(rp.w, http.StatusOK, HintResponse{Hint: result.Text})
	case chat.ResultReply:
		h.sendFinal(ctx, rp, doneFrame{Done: true})
	case chat.ResultFallback:
		h.sendFinal(ctx, rp, errorFrame{Error: result.Text})
	default:
		if !rp.started() {
			httputil.WriteJSON(rp.w, http.StatusOK, AbortedResponse{Aborted: true})
		}
	}
}

func (h *Handler) sendFinal(ctx context.Context, rp *reply, frame any) {
	if err := rp.send(frame); err != nil {
		h.logger.DebugContext(ctx, "client left before the final frame",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// HandleCancel discards the message held behind the harm warning.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Cancel(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "failed to cancel pending message",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{OK: true})
}

// HandleClear drops the chat history.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Clear(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear chat",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{OK: true})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	history, err := h.service.History(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read chat history",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	turns := history.Turns
	if turns == nil {
		turns = []session.Turn{}
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{
		Turns:        turns,
		State:        string(history.State),
		PendingStage: history.PendingStage,
	})
}
