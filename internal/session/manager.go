package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"witchmart/internal/platform/metrics"
	dErrors "witchmart/pkg/domain-errors"
	"witchmart/pkg/platform/sentinel"
	platformsync "witchmart/pkg/platform/sync"
)

const defaultTTL = 2 * time.Hour

// ErrSessionGone is returned by Commit when the session was destroyed or its
// consent changed while a long-running operation was working from a copy.
var ErrSessionGone = errors.New("session was revoked or destroyed")

// Manager owns session lifecycle: opening, locked read-modify-write and teardown.
type Manager struct {
	store   Store
	tokens  *Tokens
	locks   *platformsync.ShardedMutex
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the idle lifetime of a session. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMetrics sets the metrics instance for the manager.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// NewManager wires a manager over a store.
func NewManager(store Store, tokens *Tokens, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		tokens: tokens,
		locks:  platformsync.NewShardedMutex(),
		ttl:    defaultTTL,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured idle lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Open resolves the session named by token, extending its lifetime, or starts
// a new one when the token is missing, invalid, or names an expired session.
// It returns the session and a freshly signed token for it.
func (m *Manager) Open(ctx context.Context, token string, device string) (*Session, string, error) {
	now := m.now()

	if token != "" {
		sessionID, err := m.tokens.Parse(token)
		if err == nil {
			var opened *Session
			err = m.locks.WithLock(sessionID, func() error {
				sess, err := m.store.Get(ctx, sessionID)
				if err != nil {
					return err
				}
				sess.Touch(now, m.ttl)
				if err := m.store.Save(ctx, sess); err != nil {
					return err
				}
				opened = sess
				return nil
			})
			switch {
			case err == nil:
				return m.withToken(opened)
			case !errors.Is(err, ErrNotFound):
				return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
			}
		}
	}

	sess := New(now, m.ttl)
	sess.Device = device
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
	}
	m.metrics.IncrementSessionsOpened()
	if m.logger != nil {
		m.logger.DebugContext(ctx, "session opened", "session_prefix", sess.IDPrefix(), "device", device)
	}
	return m.withToken(sess)
}

func (m *Manager) withToken(sess *Session) (*Session, string, error) {
	token, err := m.tokens.Issue(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Load returns a snapshot of the session.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return sess, nil
}

// Update runs fn against the stored session under the session's lock and
// saves the result. If fn fails nothing is saved.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	var updated *Session
	err := m.locks.WithLock(id, func() error {
		sess, err := m.store.Get(ctx, id)
		if err != nil {
			return translate(err)
		}
		if err := fn(sess); err != nil {
			return err
		}
		if err := m.store.Save(ctx, sess); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
		}
		updated = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Commit finishes work that started from an earlier copy of the session,
// such as a streamed chat reply. fn runs under the session lock only if the
// session still exists and carries the same consent grant as consent;
// otherwise nothing is saved and ErrSessionGone is returned.
func (m *Manager) Commit(ctx context.Context, id string, consent ConsentRecord, fn func(*Session) error) error {
	_, err := m.Update(ctx, id, func(stored *Session) error {
		if !stored.Consent.SameGrant(consent) {
			return ErrSessionGone
		}
		if err := fn(stored); err != nil {
			return err
		}
		stored.Touch(m.now(), m.ttl)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrSessionGone
	}
	return err
}

// Destroy removes the session entirely.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.locks.WithLock(id, func() error {
		if err := m.store.Delete(ctx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
		}
		return nil
	})
}

func translate(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
}
