package session

import (
	"context"
	"fmt"

	"witchmart/pkg/platform/sentinel"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = fmt.Errorf("session not found: %w", sentinel.ErrNotFound)

// Error Contract:
// - Get returns ErrNotFound when the session does not exist or has expired
// - Get returns a copy; mutating it does not touch the stored session
// - Delete of an unknown id is not an error
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
