// Package http provides the SSE transport for the live update channel
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"time"

	"marketfeed/internal/platform/logger"
	phttp "marketfeed/internal/platform/net/http"
	feeddomain "marketfeed/internal/services/feed/domain"
	identdomain "marketfeed/internal/services/ident/domain"
	"marketfeed/internal/services/stream/service"
)

// connectedFrame is the first event on every stream
type connectedFrame struct {
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}

// Handler serves one SSE connection per request.
// The subscription, heartbeat timer and writer goroutine all share the
// request context, so every exit path releases them exactly once
func Handler(hub *service.Hub, heartbeat time.Duration) stdhttp.Handler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		flusher, ok := w.(stdhttp.Flusher)
		if !ok {
			phttp.RespondError(w, r, fmt.Errorf("streaming unsupported by transport"))
			return
		}

		qv := r.URL.Query()
		filter := feeddomain.Filters{Type: qv.Get("filter"), Category: qv.Get("category")}
		viewer := identdomain.ViewerFrom(r.Context())

		sub, cancel := hub.Register(viewer, filter)
		defer cancel()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(stdhttp.StatusOK)

		log := logger.C(r.Context())
		if err := writeEvent(w, "connected", connectedFrame{ConnectionID: sub.ID, Timestamp: time.Now().UTC()}); err != nil {
			return
		}
		flusher.Flush()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				// comment frame, keeps intermediaries from closing the pipe
				if _, err := w.Write([]byte(": hb\n\n")); err != nil {
					return
				}
				flusher.Flush()
			case ev, open := <-sub.Events:
				if !open {
					// dropped as slow or the upstream feed failed; the
					// client reconnects and resyncs through the query path
					log.Debug().Msg("stream subscription closed")
					return
				}
				if err := writeEvent(w, ev.Kind, ev); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	})
}

// writeEvent frames and writes one event in a single Write, so a failed
// connection never leaves a partial frame behind
func writeEvent(w stdhttp.ResponseWriter, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + len(kind) + 16)
	buf.WriteString("event: ")
	buf.WriteString(kind)
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	_, err = w.Write(buf.Bytes())
	return err
}
