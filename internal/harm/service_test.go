package harm

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"witchmart/internal/platform/metrics"
	"witchmart/internal/session"
	"witchmart/internal/transparency"
	dErrors "witchmart/pkg/domain-errors"
)

type fakeSessions struct {
	sess    *session.Session
	err     error
	updates int
}

func (f *fakeSessions) Update(_ context.Context, _ string, fn func(*session.Session) error) (*session.Session, error) {
	f.updates++
	if f.err != nil {
		return nil, f.err
	}
	if err := fn(f.sess); err != nil {
		return nil, err
	}
	return f.sess, nil
}

type ServiceSuite struct {
	suite.Suite
	sessions *fakeSessions
	metrics  *metrics.Metrics
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	now := time.Now()
	sess := session.New(now, time.Hour)
	sess.Consent = session.ConsentRecord{Granted: true, GrantedAt: &now}
	s.sessions = &fakeSessions{sess: sess}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = NewService(s.sessions, transparency.NewRecorder(), s.metrics)
}

func (s *ServiceSuite) TestCleanFormDoesNotTouchSession() {
	triggered, err := s.service.ScanForm(context.Background(), s.sessions.sess.ID, map[string]any{"name": "Ada"})
	s.Require().NoError(err)
	s.False(triggered)
	s.Zero(s.sessions.updates)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.HarmScans.WithLabelValues("form", "clean")))
}

func (s *ServiceSuite) TestFlaggedFormLogsWithoutContent() {
	fields := map[string]any{"bio": "I will attack the dragon", "age": 30}

	triggered, err := s.service.ScanForm(context.Background(), s.sessions.sess.ID, fields)
	s.Require().NoError(err)
	s.True(triggered)

	log := s.sessions.sess.Log
	s.Require().Len(log, 1)
	s.Equal("harm_form_flagged", log[0].Event)
	s.Equal("2 fields scanned", *log[0].Details)
	s.NotContains(*log[0].Details, "attack")
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.HarmScans.WithLabelValues("form", "triggered")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.HarmTriggers.WithLabelValues("form", "attack")))
}

func (s *ServiceSuite) TestFlaggedFormDetailsNeverEchoValues() {
	fields := map[string]any{"bio": "kill", "title": "Fields", "n": 2}

	_, err := s.service.ScanForm(context.Background(), s.sessions.sess.ID, fields)
	s.Require().NoError(err)

	log := s.sessions.sess.Log
	s.Require().Len(log, 1)
	s.Equal("harm_form_flagged", log[0].Event)
	s.Nil(log[0].Details)
}

func (s *ServiceSuite) TestFlaggedFormWithoutConsentLogsNothing() {
	s.sessions.sess.Consent = session.ConsentRecord{}

	triggered, err := s.service.ScanForm(context.Background(), s.sessions.sess.ID, map[string]any{"x": "kill"})
	s.Require().NoError(err)
	s.True(triggered)
	s.Empty(s.sessions.sess.Log)
}

func (s *ServiceSuite) TestStoreFailurePropagates() {
	s.sessions.err = dErrors.New(dErrors.CodeUnavailable, "session store unavailable")

	_, err := s.service.ScanForm(context.Background(), "id", map[string]any{"x": "kill"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
