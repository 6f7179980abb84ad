package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"witchmart/internal/platform/middleware"
	"witchmart/internal/session"
	"witchmart/internal/session/handler/mocks"
	dErrors "witchmart/pkg/domain-errors"
	"witchmart/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/session-mocks.go -package=mocks

const sessionID = "9a8b7c6d-3333-4c7c-9e5f-4b8a2a0c9d32"

type SessionHandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	sessions *mocks.MockService
	aborter  *mocks.MockStreamAborter
	handler  *Handler
}

func TestSessionHandlerSuite(t *testing.T) {
	suite.Run(t, new(SessionHandlerSuite))
}

func (s *SessionHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = mocks.NewMockService(s.ctrl)
	s.aborter = mocks.NewMockStreamAborter(s.ctrl)
	s.handler = New(s.sessions, s.aborter, slog.Default())
}

func (s *SessionHandlerSuite) request(method string) *http.Request {
	req := httptest.NewRequest(method, "/api/session", nil)
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

func (s *SessionHandlerSuite) TestGetSession() {
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.sessions.EXPECT().Load(gomock.Any(), sessionID).Return(&session.Session{
		ID:        sessionID,
		CreatedAt: created,
		ExpiresAt: created.Add(2 * time.Hour),
		Device:    "Firefox on Linux",
		Consent:   session.ConsentRecord{Granted: true, GrantedAt: &created},
		Turns:     []session.Turn{{Role: session.RoleUser, Content: "Hey SetAI"}},
	}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleGetSession(w, s.request(http.MethodGet))

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"session_id_prefix":"9a8b7c6d",
		"device":"Firefox on Linux",
		"consent_granted":true,
		"turns":1,
		"created_at":"2026-05-01T09:00:00Z",
		"expires_at":"2026-05-01T11:00:00Z"
	}`, w.Body.String())
}

func (s *SessionHandlerSuite) TestGetSessionNotFound() {
	s.sessions.EXPECT().Load(gomock.Any(), sessionID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "session not found"))

	w := httptest.NewRecorder()
	s.handler.HandleGetSession(w, s.request(http.MethodGet))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *SessionHandlerSuite) TestEndSessionAbortsThenDestroys() {
	gomock.InOrder(
		s.aborter.EXPECT().Abort(sessionID).Return(true),
		s.sessions.EXPECT().Destroy(gomock.Any(), sessionID).Return(nil),
	)

	w := httptest.NewRecorder()
	w.Header().Set(middleware.SessionHeader, "issued-by-middleware")
	s.handler.HandleEndSession(w, s.request(http.MethodDelete))

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"ended":true}`, w.Body.String())
	s.Empty(w.Header().Get(middleware.SessionHeader))
}

func (s *SessionHandlerSuite) TestEndSessionStoreFailure() {
	s.aborter.EXPECT().Abort(sessionID).Return(false)
	s.sessions.EXPECT().Destroy(gomock.Any(), sessionID).
		Return(dErrors.New(dErrors.CodeUnavailable, "session store unavailable"))

	w := httptest.NewRecorder()
	s.handler.HandleEndSession(w, s.request(http.MethodDelete))
	s.Equal(http.StatusServiceUnavailable, w.Code)
}
