package chat

import (
	"context"
	"errors"
	"sync"

	dErrors "witchmart/pkg/domain-errors"
)

// errAborted is the cancel cause set when a stream is torn down on purpose.
var errAborted = errors.New("chat reply aborted")

type inflightEntry struct {
	cancel context.CancelCauseFunc
}

// Inflight tracks at most one streaming reply per session.
type Inflight struct {
	mu      sync.Mutex
	entries map[string]*inflightEntry
}

func NewInflight() *Inflight {
	return &Inflight{entries: make(map[string]*inflightEntry)}
}

// begin registers a stream for the session. The returned release must be
// called when the stream ends; it only removes its own registration.
func (f *Inflight) begin(sessionID string, cancel context.CancelCauseFunc) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.entries[sessionID]; busy {
		return nil, dErrors.New(dErrors.CodeConflict, "a reply is already streaming for this session")
	}
	e := &inflightEntry{cancel: cancel}
	f.entries[sessionID] = e
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.entries[sessionID] == e {
			delete(f.entries, sessionID)
		}
	}, nil
}

// Active reports whether a reply is streaming for the session.
func (f *Inflight) Active(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[sessionID]
	return ok
}

// Abort cancels the session's in-flight reply, if any.
func (f *Inflight) Abort(sessionID string) bool {
	f.mu.Lock()
	e, ok := f.entries[sessionID]
	if ok {
		delete(f.entries, sessionID)
	}
	f.mu.Unlock()
	if ok {
		e.cancel(errAborted)
	}
	return ok
}

// AbortAll cancels every in-flight reply and returns how many there were.
func (f *Inflight) AbortAll() int {
	f.mu.Lock()
	entries := f.entries
	f.entries = make(map[string]*inflightEntry)
	f.mu.Unlock()
	for _, e := range entries {
		e.cancel(errAborted)
	}
	return len(entries)
}
