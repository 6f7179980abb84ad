package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	dErrors "witchmart/pkg/domain-errors"
)

// EventStream writes server-sent events, flushing after every frame so the
// client can render partial output as it arrives.
type EventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewEventStream checks the writer supports flushing. Headers are not sent
// until the first frame, so callers may still fall back to a JSON response.
func NewEventStream(w http.ResponseWriter) (*EventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "streaming not supported")
	}
	return &EventStream{w: w, flusher: flusher}, nil
}

// Started reports whether any frame has been written.
func (s *EventStream) Started() bool {
	return s.started
}

func (s *EventStream) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

// Send writes one `data:` frame. It returns an error when the client is gone.
func (s *EventStream) Send(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	s.start()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
