// Package transparency keeps the per-session log that shows the user which
// gate decisions were taken on their behalf. Entries carry event names and
// fixed-template details only; chat text never reaches the log.
package transparency

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"witchmart/internal/session"
)

// Recorder appends entries to a session's log.
type Recorder struct {
	now func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDetailsLength bounds a details string. User text longer than this can
// never appear inside details, so only shorter text is watched.
const MaxDetailsLength = 64

// LogEvent appends an entry while the session has consent and reports whether
// it did. Without consent it does nothing. Only the first details value is used.
// Details that are too long or contain watched user text are dropped.
func (r *Recorder) LogEvent(sess *session.Session, event Event, details ...string) bool {
	d := ""
	if len(details) > 0 {
		d = details[0]
	}
	return r.LogEventRedacting(sess, event, d)
}

// LogEventRedacting is LogEvent for call sites that hold user text. If the
// details contain any of the sensitive strings the entry is still recorded,
// without details.
func (r *Recorder) LogEventRedacting(sess *session.Session, event Event, details string, sensitive ...string) bool {
	if !sess.HasConsent() {
		return false
	}
	if len(details) > MaxDetailsLength || leaks(details, sess.Redactions) || leaks(details, sensitive) {
		details = ""
	}
	entry := session.LogEntry{
		Timestamp:       r.now().UTC(),
		Event:           event.String(),
		SessionIDPrefix: sess.IDPrefix(),
	}
	if details != "" {
		entry.Details = &details
	}
	sess.Log = append(sess.Log, entry)
	return true
}

// WatchUserText remembers short user text for the rest of the session and
// drops the details of entries already recorded that contain it, so a later
// message can never be read back out of an earlier template. Without consent
// nothing is remembered.
func (r *Recorder) WatchUserText(sess *session.Session, texts ...string) {
	if !sess.HasConsent() {
		return
	}
	for _, text := range texts {
		key := normalize(text)
		if key == "" || len(key) > MaxDetailsLength || slices.Contains(sess.Redactions, key) {
			continue
		}
		sess.Redactions = append(sess.Redactions, key)
		for i, e := range sess.Log {
			if e.Details != nil && strings.Contains(strings.ToLower(*e.Details), key) {
				sess.Log[i].Details = nil
			}
		}
	}
}

func leaks(details string, sensitive []string) bool {
	if details == "" {
		return false
	}
	lower := strings.ToLower(details)
	for _, s := range sensitive {
		if s = normalize(s); s != "" && strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// GetLog returns a copy of the session's entries in insertion order. The
// result is never nil.
func (r *Recorder) GetLog(sess *session.Session) []session.LogEntry {
	if sess == nil || len(sess.Log) == 0 {
		return []session.LogEntry{}
	}
	out := make([]session.LogEntry, len(sess.Log))
	for i, e := range sess.Log {
		if e.Details != nil {
			d := *e.Details
			e.Details = &d
		}
		out[i] = e
	}
	return out
}

// Detail templates. Keep every details string built from these.

func StageDetails(stage int) string {
	return fmt.Sprintf("confirmation stage %d", stage)
}

func TurnCountDetails(turns int) string {
	return fmt.Sprintf("%d turns in history", turns)
}

func ReplyDetails(fragments int, elapsed time.Duration) string {
	return fmt.Sprintf("%d fragments in %dms", fragments, elapsed.Milliseconds())
}

func FailureDetails(reason string) string {
	return "reason: " + reason
}

func FieldCountDetails(fields int) string {
	return fmt.Sprintf("%d fields scanned", fields)
}
