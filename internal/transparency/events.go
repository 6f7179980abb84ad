package transparency

// Event is the symbolic name of a transparency log entry.
type Event string

const (
	EventConsentGranted          Event = "consent_granted"
	EventConsentRevoked          Event = "consent_revoked"
	EventHarmWarningShown        Event = "harm_warning_shown"
	EventHarmWarningEscalated    Event = "harm_warning_escalated"
	EventHarmWarningAcknowledged Event = "harm_warning_acknowledged"
	EventHarmWarningCancelled    Event = "harm_warning_cancelled"
	EventHarmFormFlagged         Event = "harm_form_flagged"
	EventInvocationDetected      Event = "invocation_detected"
	EventChatDormantHint         Event = "chat_dormant_hint"
	EventChatReplyCompleted      Event = "chat_reply_completed"
	EventChatReplyFailed         Event = "chat_reply_failed"
	EventChatReplyAborted        Event = "chat_reply_aborted"
	EventChatCleared             Event = "chat_cleared"
)

func (e Event) String() string {
	return string(e)
}
