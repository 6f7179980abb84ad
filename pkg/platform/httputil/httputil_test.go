package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "witchmart/pkg/domain-errors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing consent", dErrors.New(dErrors.CodeMissingConsent, "consent required"), http.StatusForbidden, "missing_consent"},
		{"conflict", dErrors.New(dErrors.CodeConflict, "reply in progress"), http.StatusConflict, "conflict"},
		{"validation", dErrors.New(dErrors.CodeValidation, "message is required"), http.StatusBadRequest, "validation_error"},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "store down"), http.StatusServiceUnavailable, "unavailable"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, decodeBody(t, rec)["error"])
		})
	}

	t.Run("plain errors do not leak their message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("upstream said: secret"))
		_, ok := decodeBody(t, rec)["error_description"]
		assert.False(t, ok)
	})
}

type scanRequest struct {
	Message string `json:"message" validate:"notblank"`
}

type optionalRequest struct {
	Always bool `json:"always"`
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes a valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hey setai"}`))
		rec := httptest.NewRecorder()

		req, ok := DecodeJSON[scanRequest](rec, r, logger, r.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "hey setai", req.Message)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":`))
		rec := httptest.NewRecorder()

		_, ok := DecodeJSON[scanRequest](rec, r, logger, r.Context(), "req-2")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeBody(t, rec)["error"])
	})

	t.Run("runs struct validation", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"  "}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeJSON[scanRequest](rec, r, logger, r.Context(), "req-3")
		assert.False(t, ok)
		assert.Equal(t, "validation_error", decodeBody(t, rec)["error"])
	})

	t.Run("accepts an empty body when nothing is required", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))
		rec := httptest.NewRecorder()

		req, ok := DecodeJSON[optionalRequest](rec, r, logger, r.Context(), "req-4")
		require.True(t, ok)
		assert.False(t, req.Always)
	})
}

func TestEventStream(t *testing.T) {
	rec := httptest.NewRecorder()
	stream, err := NewEventStream(rec)
	require.NoError(t, err)
	assert.False(t, stream.Started())

	require.NoError(t, stream.Send(map[string]string{"content": "Hel"}))
	require.NoError(t, stream.Send(map[string]bool{"done": true}))

	assert.True(t, stream.Started())
	assert.True(t, rec.Flushed)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "data: {\"content\":\"Hel\"}\n\ndata: {\"done\":true}\n\n", rec.Body.String())
}
