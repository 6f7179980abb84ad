package sentinel

import "errors"

// Sentinel dependency errors. Stores return these (optionally wrapped) so the
// session manager can translate them into domain errors exactly once.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
