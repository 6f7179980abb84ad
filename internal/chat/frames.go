package chat

import (
	"context"

	"witchmart/internal/session"
)

// FrameKind tags one unit of an upstream reply.
type FrameKind int

const (
	// FrameContent carries an incremental text fragment.
	FrameContent FrameKind = iota
	// FrameDone marks the end of the assistant's turn.
	FrameDone
	// FrameError asks for the fallback path. Text holds the upstream reason.
	FrameError
	// FrameHint is a non-streamed hint from the upstream; no turn is recorded.
	FrameHint
)

func (k FrameKind) String() string {
	switch k {
	case FrameContent:
		return "content"
	case FrameDone:
		return "done"
	case FrameError:
		return "error"
	case FrameHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Frame is one typed element of a reply, independent of the wire framing.
type Frame struct {
	Kind FrameKind
	Text string
}

// Request is what the upstream model is asked to continue.
type Request struct {
	System string
	Turns  []session.Turn
}

// FrameStream yields frames until io.EOF. Close releases the connection and
// may be called at any point.
type FrameStream interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// FrameSource opens a reply stream for a request.
type FrameSource interface {
	Open(ctx context.Context, req Request) (FrameStream, error)
}
