package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"witchmart/internal/harm/handler/mocks"
	dErrors "witchmart/pkg/domain-errors"
	"witchmart/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/harm-mocks.go -package=mocks Service

type HarmHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	handler *Handler
}

func TestHarmHandlerSuite(t *testing.T) {
	suite.Run(t, new(HarmHandlerSuite))
}

func (s *HarmHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.handler = New(s.service, slog.Default())
}

func (s *HarmHandlerSuite) scan(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/harm/scan", strings.NewReader(body))
	req = req.WithContext(requestcontext.WithSessionID(req.Context(), "sess-1"))
	w := httptest.NewRecorder()
	s.handler.HandleScan(w, req)
	return w
}

func (s *HarmHandlerSuite) TestTriggered() {
	s.service.EXPECT().
		ScanForm(gomock.Any(), "sess-1", map[string]any{"bio": "weapon smith"}).
		Return(true, nil)

	w := s.scan(`{"fields":{"bio":"weapon smith"}}`)

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"triggered":true}`, w.Body.String())
}

func (s *HarmHandlerSuite) TestMissingFieldsIsValidationError() {
	s.service.EXPECT().ScanForm(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := s.scan(`{}`)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "validation_error")
}

func (s *HarmHandlerSuite) TestMalformedBody() {
	s.service.EXPECT().ScanForm(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := s.scan(`{"fields":`)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "bad_request")
}

func (s *HarmHandlerSuite) TestTooManyFields() {
	s.service.EXPECT().ScanForm(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	fields := make(map[string]string, 51)
	for i := range 51 {
		fields[fmt.Sprintf("f%d", i)] = "x"
	}
	var body bytes.Buffer
	s.Require().NoError(json.NewEncoder(&body).Encode(map[string]any{"fields": fields}))

	w := s.scan(body.String())

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HarmHandlerSuite) TestServiceError() {
	s.service.EXPECT().
		ScanForm(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, dErrors.New(dErrors.CodeUnavailable, "session store unavailable"))

	w := s.scan(`{"fields":{"a":"kill"}}`)

	s.Equal(http.StatusServiceUnavailable, w.Code)
}
