// Package tracer is a small tracing seam over OpenTelemetry so services can
// emit spans without importing otel directly, and tests can run with a no-op.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the chat orchestrator.
const (
	SpanChatSubmit  = "chat.submit"
	SpanChatConfirm = "chat.confirm"
	SpanChatStream  = "chat.stream"
)

// Attribute keys. Values never carry message text.
const (
	AttrSessionPrefix = "session.prefix"
	AttrOutcome       = "chat.outcome"
	AttrFragments     = "chat.fragments"
	AttrCircuitState  = "circuit.state"
	AttrHarmStage     = "harm.stage"
)

// Event names recorded inside spans.
const (
	EventFirstFragment = "stream.first_fragment"
	EventCircuitOpen   = "circuit.open"
)
