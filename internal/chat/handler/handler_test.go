package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"witchmart/internal/chat"
	"witchmart/internal/chat/handler/mocks"
	"witchmart/internal/invocation"
	"witchmart/internal/session"
	dErrors "witchmart/pkg/domain-errors"
	"witchmart/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/chat-mocks.go -package=mocks Service

const sessionID = "7c0d4a1e-2222-4b6b-8d4e-3a7f1f9b8c21"

type ChatHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	handler *Handler
}

func TestChatHandlerSuite(t *testing.T) {
	suite.Run(t, new(ChatHandlerSuite))
}

func (s *ChatHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.handler = New(s.service, slog.Default())
}

func (s *ChatHandlerSuite) request(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// streams returns a Submit stub that relays fragments and then ends with result.
func streams(result chat.Result, fragments ...string) func(context.Context, string, string, chat.Sink) (chat.Result, error) {
	return func(_ context.Context, _ string, _ string, sink chat.Sink) (chat.Result, error) {
		for _, f := range fragments {
			if err := sink(f); err != nil {
				return chat.Result{Kind: chat.ResultAborted}, nil
			}
		}
		return result, nil
	}
}

func (s *ChatHandlerSuite) TestSubmitStreamsReply() {
	s.service.EXPECT().Submit(gomock.Any(), sessionID, "Hey SetAI", gomock.Any()).
		DoAndReturn(streams(chat.Result{Kind: chat.ResultReply, Text: "Hello"}, "Hel", "lo"))

	w := httptest.NewRecorder()
	s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))

	s.Equal(http.StatusOK, w.Code)
	s.Equal("text/event-stream", w.Header().Get("Content-Type"))
	s.Equal(
		"data: {\"content\":\"Hel\"}\n\n"+
			"data: {\"content\":\"lo\"}\n\n"+
			"data: {\"done\":true}\n\n",
		w.Body.String(),
	)
}

func (s *ChatHandlerSuite) TestSubmitFallbackAfterPartialContent() {
	s.service.EXPECT().Submit(gomock.Any(), sessionID, "Hey SetAI", gomock.Any()).
		DoAndReturn(streams(chat.Result{Kind: chat.ResultFallback, Text: chat.FallbackText}, "Hel"))

	w := httptest.NewRecorder()
	s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))

	body := w.Body.String()
	s.True(strings.HasPrefix(body, "data: {\"content\":\"Hel\"}\n\n"))
	s.Contains(body, `data: {"error":"The oracle is resting`)
}

func (s *ChatHandlerSuite) TestSubmitFallbackWithoutContentStillStreams() {
	s.service.EXPECT().Submit(gomock.Any(), sessionID, gomock.Any(), gomock.Any()).
		Return(chat.Result{Kind: chat.ResultFallback, Text: chat.FallbackText}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))

	s.Equal("text/event-stream", w.Header().Get("Content-Type"))
	s.Contains(w.Body.String(), `"error":`)
}

func (s *ChatHandlerSuite) TestSubmitHint() {
	s.service.EXPECT().Submit(gomock.Any(), sessionID, "what's next?", gomock.Any()).
		Return(chat.Result{Kind: chat.ResultHint, Text: chat.DormantHint}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"what's next?"}`))

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "application/json")
	s.Contains(w.Body.String(), `"hint":"The oracle is sleeping.`)
}

func (s *ChatHandlerSuite) TestSubmitNeedsConfirmation() {
	s.service.EXPECT().Submit(gomock.Any(), sessionID, gomock.Any(), gomock.Any()).
		Return(chat.Result{Kind: chat.ResultConfirmHarm, Stage: 1, Warning: chat.WarningFirst}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"I want to attack someone"}`))

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"confirmation_required":true,"stage":1,"warning":"`+chat.WarningFirst+`"}`, w.Body.String())
}

func (s *ChatHandlerSuite) TestSubmitRejectsBadInput() {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "missing message", body: `{}`, code: http.StatusBadRequest},
		{name: "blank message", body: `{"message":"   "}`, code: http.StatusBadRequest},
		{name: "too long", body: `{"message":"` + strings.Repeat("a", 4001) + `"}`, code: http.StatusBadRequest},
		{name: "not json", body: `message=hi`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := httptest.NewRecorder()
			s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", tt.body))
			s.Equal(tt.code, w.Code)
		})
	}
}

func (s *ChatHandlerSuite) TestSubmitErrors() {
	s.Run("missing consent", func() {
		s.service.EXPECT().Submit(gomock.Any(), sessionID, gomock.Any(), gomock.Any()).
			Return(chat.Result{}, dErrors.New(dErrors.CodeMissingConsent, "consent is required to chat"))

		w := httptest.NewRecorder()
		s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))
		s.Equal(http.StatusForbidden, w.Code)
		s.Contains(w.Body.String(), "missing_consent")
	})

	s.Run("already streaming", func() {
		s.service.EXPECT().Submit(gomock.Any(), sessionID, gomock.Any(), gomock.Any()).
			Return(chat.Result{}, dErrors.New(dErrors.CodeConflict, "a reply is already streaming for this session"))

		w := httptest.NewRecorder()
		s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("store failure after streaming began", func() {
		s.service.EXPECT().Submit(gomock.Any(), sessionID, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ string, sink chat.Sink) (chat.Result, error) {
				s.Require().NoError(sink("Hel"))
				return chat.Result{}, dErrors.New(dErrors.CodeUnavailable, "session store unavailable")
			})

		w := httptest.NewRecorder()
		s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"error":"The oracle is resting`)
	})
}

func (s *ChatHandlerSuite) TestSubmitAbortedBeforeStreaming() {
	s.service.EXPECT().Submit(gomock.Any(), sessionID, gomock.Any(), gomock.Any()).
		Return(chat.Result{Kind: chat.ResultAborted}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))
	s.JSONEq(`{"aborted":true}`, w.Body.String())
}

func (s *ChatHandlerSuite) TestSubmitAbortedMidStreamWritesNothingMore() {
	s.service.EXPECT().Submit(gomock.Any(), sessionID, gomock.Any(), gomock.Any()).
		DoAndReturn(streams(chat.Result{Kind: chat.ResultAborted}, "Hel"))

	w := httptest.NewRecorder()
	s.handler.HandleSubmit(w, s.request(http.MethodPost, "/api/chat", `{"message":"Hey SetAI"}`))
	s.Equal("data: {\"content\":\"Hel\"}\n\n", w.Body.String())
}

func (s *ChatHandlerSuite) TestConfirm() {
	s.Run("escalates", func() {
		s.service.EXPECT().Confirm(gomock.Any(), sessionID, false, gomock.Any()).
			Return(chat.Result{Kind: chat.ResultConfirmHarm, Stage: 2, Warning: chat.WarningSecond}, nil)

		w := httptest.NewRecorder()
		s.handler.HandleConfirm(w, s.request(http.MethodPost, "/api/chat/confirm", ""))
		s.Contains(w.Body.String(), `"stage":2`)
	})

	s.Run("always sends and streams", func() {
		s.service.EXPECT().Confirm(gomock.Any(), sessionID, true, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ bool, sink chat.Sink) (chat.Result, error) {
				s.Require().NoError(sink("Hi"))
				return chat.Result{Kind: chat.ResultReply, Text: "Hi"}, nil
			})

		w := httptest.NewRecorder()
		s.handler.HandleConfirm(w, s.request(http.MethodPost, "/api/chat/confirm", `{"always":true}`))
		s.Contains(w.Body.String(), `data: {"done":true}`)
	})

	s.Run("nothing pending", func() {
		s.service.EXPECT().Confirm(gomock.Any(), sessionID, false, gomock.Any()).
			Return(chat.Result{}, dErrors.New(dErrors.CodeBadRequest, "no message is waiting for confirmation"))

		w := httptest.NewRecorder()
		s.handler.HandleConfirm(w, s.request(http.MethodPost, "/api/chat/confirm", `{}`))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *ChatHandlerSuite) TestCancelAndClear() {
	s.service.EXPECT().Cancel(gomock.Any(), sessionID).Return(nil)
	w := httptest.NewRecorder()
	s.handler.HandleCancel(w, s.request(http.MethodPost, "/api/chat/cancel", ""))
	s.JSONEq(`{"ok":true}`, w.Body.String())

	s.service.EXPECT().Clear(gomock.Any(), sessionID).Return(dErrors.New(dErrors.CodeNotFound, "session not found"))
	w = httptest.NewRecorder()
	s.handler.HandleClear(w, s.request(http.MethodPost, "/api/chat/clear", ""))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ChatHandlerSuite) TestHistory() {
	s.service.EXPECT().History(gomock.Any(), sessionID).Return(chat.History{
		Turns: []session.Turn{
			{Role: session.RoleUser, Content: "Hey SetAI"},
			{Role: session.RoleAssistant, Content: "Greetings"},
		},
		State: invocation.Awake,
	}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleHistory(w, s.request(http.MethodGet, "/api/chat/history", ""))

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"turns":[{"role":"user","content":"Hey SetAI"},{"role":"assistant","content":"Greetings"}],
		"state":"awake",
		"pending_stage":0
	}`, w.Body.String())
}

func (s *ChatHandlerSuite) TestHistoryEmpty() {
	s.service.EXPECT().History(gomock.Any(), sessionID).Return(chat.History{State: invocation.Dormant}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleHistory(w, s.request(http.MethodGet, "/api/chat/history", ""))
	s.Contains(w.Body.String(), `"turns":[]`)
}
