package feedclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	feeddomain "marketfeed/internal/services/feed/domain"
)

// StreamConfig configures the live channel client
type StreamConfig struct {
	// URL is the absolute stream endpoint, scope params included
	URL   string
	Token string

	Client     *stdhttp.Client
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Stream consumes the server-sent event channel with automatic
// reconnection. Missed events are not replayed; the onConnected hook is
// the caller's cue to resync through the query path
type Stream struct {
	cfg StreamConfig
}

// NewStream constructs the stream client
func NewStream(cfg StreamConfig) *Stream {
	if cfg.Client == nil {
		cfg.Client = &stdhttp.Client{} // no timeout, the stream is long-lived
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &Stream{cfg: cfg}
}

// Run connects and dispatches events until ctx ends. onConnected fires
// after every successful connect, including the first
func (s *Stream) Run(ctx context.Context, onEvent func(feeddomain.FeedEvent), onConnected func()) error {
	backoff := s.cfg.Backoff
	for {
		err := s.consume(ctx, onEvent, func() {
			backoff = s.cfg.Backoff
			if onConnected != nil {
				onConnected()
			}
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = err // connection-level failures only trigger the retry

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.cfg.MaxBackoff {
			backoff = s.cfg.MaxBackoff
		}
	}
}

// consume runs a single connection to exhaustion
func (s *Stream) consume(ctx context.Context, onEvent func(feeddomain.FeedEvent), onConnected func()) error {
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != stdhttp.StatusOK {
		return fmt.Errorf("stream: unexpected status %d", resp.StatusCode)
	}

	onConnected()
	return Decode(resp.Body, onEvent)
}

// Decode reads server-sent event frames and dispatches the feed events.
// Comment frames (heartbeats) and the connected handshake are consumed
// silently; io.EOF ends the stream without error
func Decode(r io.Reader, onEvent func(feeddomain.FeedEvent)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	var name, data string
	flush := func() {
		defer func() { name, data = "", "" }()
		if data == "" || name == "connected" {
			return
		}
		ev, err := feeddomain.DecodeEvent([]byte(data))
		if err != nil {
			return // skip frames we do not understand
		}
		onEvent(ev)
	}

	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// heartbeat comment
		case strings.HasPrefix(line, "event: "):
			name = line[len("event: "):]
		case strings.HasPrefix(line, "data: "):
			data = line[len("data: "):]
		}
	}
	return sc.Err()
}
