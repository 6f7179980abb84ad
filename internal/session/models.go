package session

import (
	"time"

	"github.com/google/uuid"
)

// idPrefixLen is how much of the session id is shown in transparency entries.
// The prefix is for display only and is not a security boundary.
const idPrefixLen = 8

// Role identifies who authored a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is one of the two chat roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in the visible chat history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConsentRecord is the per-session consent flag. It starts out not granted.
type ConsentRecord struct {
	Granted   bool       `json:"granted"`
	GrantedAt *time.Time `json:"granted_at,omitempty"`
}

// LogEntry is one transparency log line. Details never carry user content.
type LogEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	Event           string    `json:"event"`
	Details         *string   `json:"details"`
	SessionIDPrefix string    `json:"session_id_prefix"`
}

// PendingHarm holds a message paused behind the two-step harm confirmation.
type PendingHarm struct {
	Text      string    `json:"text"`
	Stage     int       `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the transient context of one browser tab. Consent, the
// transparency log, the chat history and any pending harm confirmation are
// owned by it and die with it.
type Session struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	LastSeenAt time.Time     `json:"last_seen_at"`
	Device     string        `json:"device,omitempty"`
	Consent    ConsentRecord `json:"consent"`
	Log        []LogEntry    `json:"log,omitempty"`
	Turns      []Turn        `json:"turns,omitempty"`
	Pending    *PendingHarm  `json:"pending,omitempty"`
	// HarmWarningsMuted is set when the user picks "always" on the second
	// harm confirmation; it lasts until consent is revoked.
	HarmWarningsMuted bool `json:"harm_warnings_muted,omitempty"`
	// Redactions holds short user text, lower-cased, that log details must
	// never contain. It outlives ClearChat so later entries stay clean.
	Redactions []string `json:"redactions,omitempty"`
}

// New creates a fresh session with a random id and no consent.
func New(now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}

// IDPrefix returns the truncated session id used in log entries.
func (s *Session) IDPrefix() string {
	if len(s.ID) <= idPrefixLen {
		return s.ID
	}
	return s.ID[:idPrefixLen]
}

// HasConsent reports the consent flag; false for a nil session.
func (s *Session) HasConsent() bool {
	return s != nil && s.Consent.Granted
}

// IsExpired reports whether the session outlived its TTL.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Touch extends the session's lifetime after activity.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.LastSeenAt = now
	s.ExpiresAt = now.Add(ttl)
}

// ClearChat drops the chat history and any pending harm confirmation.
func (s *Session) ClearChat() {
	s.Turns = nil
	s.Pending = nil
}

// Purge resets every session-scoped field except identity and lifetime.
func (s *Session) Purge() {
	s.Consent = ConsentRecord{}
	s.Log = nil
	s.Turns = nil
	s.Pending = nil
	s.HarmWarningsMuted = false
	s.Redactions = nil
}

// Clone returns a deep copy detached from the receiver.
func (s *Session) Clone() *Session {
	c := *s
	if s.Consent.GrantedAt != nil {
		t := *s.Consent.GrantedAt
		c.Consent.GrantedAt = &t
	}
	if s.Log != nil {
		c.Log = make([]LogEntry, len(s.Log))
		for i, e := range s.Log {
			if e.Details != nil {
				d := *e.Details
				e.Details = &d
			}
			c.Log[i] = e
		}
	}
	if s.Turns != nil {
		c.Turns = append([]Turn(nil), s.Turns...)
	}
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	if s.Redactions != nil {
		c.Redactions = append([]string(nil), s.Redactions...)
	}
	return &c
}

// SameGrant reports whether two records refer to the same consent grant.
// A revoke followed by a new grant is a different grant.
func (c ConsentRecord) SameGrant(other ConsentRecord) bool {
	if c.Granted != other.Granted {
		return false
	}
	if c.GrantedAt == nil || other.GrantedAt == nil {
		return c.GrantedAt == nil && other.GrantedAt == nil
	}
	return c.GrantedAt.Equal(*other.GrantedAt)
}
