package harm

import (
	"context"

	"witchmart/internal/platform/metrics"
	"witchmart/internal/session"
	"witchmart/internal/transparency"
)

// SessionUpdater applies a locked read-modify-write to a session.
type SessionUpdater interface {
	Update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error)
}

// Service scans submitted forms and records flagged scans in the caller's
// transparency log.
type Service struct {
	sessions SessionUpdater
	recorder *transparency.Recorder
	metrics  *metrics.Metrics
}

func NewService(sessions SessionUpdater, recorder *transparency.Recorder, m *metrics.Metrics) *Service {
	return &Service{sessions: sessions, recorder: recorder, metrics: m}
}

// ScanForm runs ScanForm over fields. A triggering scan logs
// harm_form_flagged with the field count only; the session is untouched
// otherwise.
func (s *Service) ScanForm(ctx context.Context, sessionID string, fields map[string]any) (bool, error) {
	triggered := ScanForm(fields)
	s.metrics.IncrementHarmScan("form", triggered)
	if !triggered {
		return false, nil
	}
	s.metrics.IncrementHarmTriggers("form", MatchedFormTriggers(fields))

	_, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		s.recorder.LogEventRedacting(sess, transparency.EventHarmFormFlagged,
			transparency.FieldCountDetails(len(fields)), formText(fields)...)
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
