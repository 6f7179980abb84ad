// Package upstream speaks to the remote text-generation service and turns
// its answers into chat frames. It understands a server-sent-event stream and
// the single JSON answer the service falls back to.
package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"witchmart/internal/chat"
	"witchmart/internal/session"
)

const maxFrameSize = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	URL    string
	APIKey string
	// HTTPClient defaults to a client without a timeout; the orchestrator
	// bounds each reply through the request context.
	HTTPClient HTTPDoer
}

// Client opens streamed replies from the upstream service.
type Client struct {
	url    string
	apiKey string
	client HTTPDoer
}

func New(cfg Config) *Client {
	c := &Client{url: cfg.URL, apiKey: cfg.APIKey, client: cfg.HTTPClient}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

type message struct {
	Role    session.Role `json:"role"`
	Content string       `json:"content"`
}

type requestBody struct {
	System   string    `json:"system"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Open sends the conversation and returns a stream over the answer. Any
// non-2xx status is an error.
func (c *Client) Open(ctx context.Context, req chat.Request) (chat.FrameStream, error) {
	body := requestBody{System: req.System, Messages: make([]message, 0, len(req.Turns)), Stream: true}
	for _, t := range req.Turns {
		body.Messages = append(body.Messages, message{Role: t.Role, Content: t.Content})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call upstream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close() //nolint:errcheck // body is discarded
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/event-stream" {
		return newEventStream(resp.Body), nil
	}
	return newJSONStream(resp.Body), nil
}

// wireFrame is the JSON shape of one upstream frame.
type wireFrame struct {
	Content  *string `json:"content"`
	Done     bool    `json:"done"`
	Error    *string `json:"error"`
	Hint     *string `json:"hint"`
	Response *string `json:"response"`
}

// eventStream reads `data:` lines from a server-sent-event body.
type eventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newEventStream(body io.ReadCloser) *eventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &eventStream{body: body, scanner: scanner}
}

func (s *eventStream) Next(ctx context.Context) (chat.Frame, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return chat.Frame{}, err
		}
		line := s.scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// blank separators, comments, event and id lines
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return chat.Frame{Kind: chat.FrameDone}, nil
		}

		var wf wireFrame
		if err := json.Unmarshal([]byte(data), &wf); err != nil {
			return chat.Frame{Kind: chat.FrameError, Text: "malformed frame"}, nil
		}
		if frame, ok := toFrame(wf); ok {
			return frame, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return chat.Frame{}, ctxErr
		}
		return chat.Frame{}, fmt.Errorf("read upstream stream: %w", err)
	}
	return chat.Frame{}, io.EOF
}

func (s *eventStream) Close() error {
	return s.body.Close()
}

func toFrame(wf wireFrame) (chat.Frame, bool) {
	switch {
	case wf.Error != nil:
		return chat.Frame{Kind: chat.FrameError, Text: *wf.Error}, true
	case wf.Content != nil:
		return chat.Frame{Kind: chat.FrameContent, Text: *wf.Content}, true
	case wf.Done:
		return chat.Frame{Kind: chat.FrameDone}, true
	case wf.Hint != nil:
		return chat.Frame{Kind: chat.FrameHint, Text: *wf.Hint}, true
	default:
		return chat.Frame{}, false
	}
}

// jsonStream replays a single JSON answer as frames.
type jsonStream struct {
	body   io.ReadCloser
	frames []chat.Frame
	read   bool
}

func newJSONStream(body io.ReadCloser) *jsonStream {
	return &jsonStream{body: body}
}

func (s *jsonStream) Next(ctx context.Context) (chat.Frame, error) {
	if !s.read {
		s.read = true
		if err := s.decode(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return chat.Frame{}, ctxErr
			}
			return chat.Frame{}, err
		}
	}
	if len(s.frames) == 0 {
		return chat.Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *jsonStream) decode() error {
	var wf wireFrame
	if err := json.NewDecoder(io.LimitReader(s.body, maxFrameSize)).Decode(&wf); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty upstream response")
		}
		s.frames = []chat.Frame{{Kind: chat.FrameError, Text: "malformed response"}}
		return nil
	}
	switch {
	case wf.Error != nil:
		s.frames = []chat.Frame{{Kind: chat.FrameError, Text: *wf.Error}}
	case wf.Hint != nil:
		s.frames = []chat.Frame{{Kind: chat.FrameHint, Text: *wf.Hint}}
	case wf.Response != nil:
		s.frames = []chat.Frame{{Kind: chat.FrameContent, Text: *wf.Response}, {Kind: chat.FrameDone}}
	default:
		s.frames = []chat.Frame{{Kind: chat.FrameError, Text: "malformed response"}}
	}
	return nil
}

func (s *jsonStream) Close() error {
	return s.body.Close()
}
