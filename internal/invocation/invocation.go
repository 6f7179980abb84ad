// Package invocation decides whether the chat companion has been called by
// name. Until a user turn contains one of the invocation phrases the
// companion stays dormant; after that it stays awake until the chat is cleared.
package invocation

import (
	"strings"

	"witchmart/internal/session"
)

var phrases = []string{
	"hey setai",
	"your highness",
	"awaken, setai",
	"awaken setai",
	"o setai",
	"dear setai",
}

// State is the derived gate state of one chat history.
type State string

const (
	Dormant State = "dormant"
	Awake   State = "awake"
)

// Detect reports whether text, lower-cased and trimmed, starts with or
// contains an invocation phrase.
func Detect(text string) bool {
	normalized := strings.TrimSpace(strings.ToLower(text))
	for _, p := range phrases {
		if strings.HasPrefix(normalized, p) || strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}

// WasInvokedInHistory reports whether any user turn invoked the companion.
// Assistant turns are never considered.
func WasInvokedInHistory(turns []session.Turn) bool {
	for _, t := range turns {
		if t.Role == session.RoleUser && Detect(t.Content) {
			return true
		}
	}
	return false
}

// StateFor is the gate state for a new message given the prior turns.
func StateFor(current string, history []session.Turn) State {
	if Detect(current) || WasInvokedInHistory(history) {
		return Awake
	}
	return Dormant
}
