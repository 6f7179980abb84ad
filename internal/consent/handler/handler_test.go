package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"witchmart/internal/consent/handler/mocks"
	"witchmart/internal/session"
	dErrors "witchmart/pkg/domain-errors"
	"witchmart/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/consent-mocks.go -package=mocks Service

const sessionID = "0b5f3c4e-1111-4a5a-9c3d-2f6f0e8a7b10"

type ConsentHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	handler *Handler
}

func TestConsentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ConsentHandlerSuite))
}

func (s *ConsentHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.handler = New(s.service, slog.Default())
}

func (s *ConsentHandlerSuite) request(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

func (s *ConsentHandlerSuite) TestGetConsent() {
	grantedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service.EXPECT().Get(gomock.Any(), sessionID).
		Return(session.ConsentRecord{Granted: true, GrantedAt: &grantedAt}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleGetConsent(w, s.request(http.MethodGet, "/api/consent", ""))

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"granted":true,"granted_at":"2026-03-01T12:00:00Z"}`, w.Body.String())
}

func (s *ConsentHandlerSuite) TestGetConsentNeverGranted() {
	s.service.EXPECT().Get(gomock.Any(), sessionID).Return(session.ConsentRecord{}, nil)

	w := httptest.NewRecorder()
	s.handler.HandleGetConsent(w, s.request(http.MethodGet, "/api/consent", ""))

	s.JSONEq(`{"granted":false,"granted_at":null}`, w.Body.String())
}

func (s *ConsentHandlerSuite) TestSetConsent() {
	s.Run("grant", func() {
		now := time.Now()
		s.service.EXPECT().SetConsent(gomock.Any(), sessionID, true).
			Return(session.ConsentRecord{Granted: true, GrantedAt: &now}, nil)

		w := httptest.NewRecorder()
		s.handler.HandleSetConsent(w, s.request(http.MethodPost, "/api/consent", `{"granted":true}`))

		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"granted":true`)
	})

	s.Run("explicit false revokes", func() {
		s.service.EXPECT().SetConsent(gomock.Any(), sessionID, false).Return(session.ConsentRecord{}, nil)

		w := httptest.NewRecorder()
		s.handler.HandleSetConsent(w, s.request(http.MethodPost, "/api/consent", `{"granted":false}`))

		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("missing field is rejected", func() {
		s.service.EXPECT().SetConsent(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		s.handler.HandleSetConsent(w, s.request(http.MethodPost, "/api/consent", `{}`))

		s.Equal(http.StatusBadRequest, w.Code)
		s.Contains(w.Body.String(), "granted is required")
	})

	s.Run("wrong type is a bad request", func() {
		w := httptest.NewRecorder()
		s.handler.HandleSetConsent(w, s.request(http.MethodPost, "/api/consent", `{"granted":"yes"}`))

		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *ConsentHandlerSuite) TestRevoke() {
	s.Run("success", func() {
		s.service.EXPECT().RevokeAllData(gomock.Any(), sessionID).Return(nil)

		w := httptest.NewRecorder()
		s.handler.HandleRevoke(w, s.request(http.MethodPost, "/api/consent/revoke", ""))

		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"revoked":true}`, w.Body.String())
	})

	s.Run("session gone", func() {
		s.service.EXPECT().RevokeAllData(gomock.Any(), sessionID).
			Return(dErrors.New(dErrors.CodeNotFound, "session not found"))

		w := httptest.NewRecorder()
		s.handler.HandleRevoke(w, s.request(http.MethodPost, "/api/consent/revoke", ""))

		s.Equal(http.StatusNotFound, w.Code)
	})
}
