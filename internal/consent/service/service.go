package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"witchmart/internal/consent/notifier"
	"witchmart/internal/platform/metrics"
	"witchmart/internal/session"
	"witchmart/internal/transparency"
)

// Sessions is the slice of the session manager consent needs.
type Sessions interface {
	Load(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error)
}

// Notifier delivers revocation notices to the remote endpoint.
type Notifier interface {
	Notify(ctx context.Context, notice notifier.Notice) error
}

// StreamAborter tears down an in-flight chat reply for a session.
type StreamAborter interface {
	Abort(sessionID string) bool
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNoticeTimeout bounds each background revocation notice.
func WithNoticeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.noticeTimeout = d
		}
	}
}

// Service implements the consent lifecycle of a session: grant, query and
// revoke-everything.
type Service struct {
	sessions      Sessions
	recorder      *transparency.Recorder
	notifier      Notifier
	aborter       StreamAborter
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
	noticeTimeout time.Duration

	notices sync.WaitGroup
}

func NewService(sessions Sessions, recorder *transparency.Recorder, n Notifier, aborter StreamAborter, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		sessions:      sessions,
		recorder:      recorder,
		notifier:      n,
		aborter:       aborter,
		logger:        logger,
		now:           time.Now,
		noticeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notifier.NoopNotifier{}
	}
	return s
}

// HasConsent reports the session's consent flag; false if never set.
func HasConsent(sess *session.Session) bool {
	return sess.HasConsent()
}

// Get returns the session's current consent record.
func (s *Service) Get(ctx context.Context, sessionID string) (session.ConsentRecord, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return session.ConsentRecord{}, err
	}
	return sess.Consent, nil
}

// SetConsent grants consent, or revokes everything when granted is false.
// Granting an already granted session keeps the original timestamp and logs
// nothing.
func (s *Service) SetConsent(ctx context.Context, sessionID string, granted bool) (session.ConsentRecord, error) {
	if !granted {
		if err := s.RevokeAllData(ctx, sessionID); err != nil {
			return session.ConsentRecord{}, err
		}
		return session.ConsentRecord{}, nil
	}

	var changed bool
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		if sess.HasConsent() {
			return nil
		}
		grantedAt := s.now().UTC()
		sess.Consent = session.ConsentRecord{Granted: true, GrantedAt: &grantedAt}
		s.recorder.LogEvent(sess, transparency.EventConsentGranted)
		changed = true
		return nil
	})
	if err != nil {
		return session.ConsentRecord{}, err
	}
	if changed {
		s.metrics.IncrementConsentChange("granted")
		s.logger.InfoContext(ctx, "consent granted", "session_prefix", sess.IDPrefix())
	}
	return sess.Consent, nil
}

// RevokeAllData purges every session-scoped field, aborts any chat reply in
// flight and then notifies the revocation endpoint in the background. The
// notice can fail without affecting the local revocation.
func (s *Service) RevokeAllData(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		sess.Purge()
		return nil
	})
	if err != nil {
		return err
	}

	if s.aborter != nil {
		s.aborter.Abort(sessionID)
	}
	s.metrics.IncrementConsentChange("revoked")
	s.logger.InfoContext(ctx, "consent revoked", "session_prefix", sess.IDPrefix())

	s.notify(ctx, notifier.Notice{
		Event:           transparency.EventConsentRevoked.String(),
		SessionIDPrefix: sess.IDPrefix(),
		RevokedAt:       s.now().UTC(),
	})
	return nil
}

func (s *Service) notify(ctx context.Context, notice notifier.Notice) {
	// The request context ends with the response; the notice must outlive it.
	noticeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.noticeTimeout)
	s.notices.Add(1)
	go func() {
		defer s.notices.Done()
		defer cancel()
		if err := s.notifier.Notify(noticeCtx, notice); err != nil {
			s.metrics.IncrementRevocationNotice("failed")
			s.logger.DebugContext(noticeCtx, "revocation notice failed",
				"error", err,
				"session_prefix", notice.SessionIDPrefix,
			)
			return
		}
		s.metrics.IncrementRevocationNotice("sent")
	}()
}

// Wait blocks until background notices have finished; called on shutdown.
func (s *Service) Wait() {
	s.notices.Wait()
}
