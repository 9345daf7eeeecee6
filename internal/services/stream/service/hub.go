// Package service implements the live update hub: fan-out of feed events
// to per-connection subscribers with capability filtering
package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"marketfeed/internal/core/caps"
	"marketfeed/internal/platform/logger"
	feeddomain "marketfeed/internal/services/feed/domain"
)

// sendBuf bounds each connection's outbound backlog; a full buffer marks
// the subscriber slow and its connection is closed rather than blocking
// fan-out for everyone else
const sendBuf = 32

// Subscription is one connection's view of the hub
type Subscription struct {
	// ID identifies the connection in logs and the connected handshake
	ID     string
	Events <-chan feeddomain.FeedEvent

	viewer caps.Viewer
	filter feeddomain.Filters
	ch     chan feeddomain.FeedEvent
}

// Hub fans feed events out to active connections.
// Delivery is at-most-once with no replay; ordering holds only within a
// single connection
type Hub struct {
	policy  feeddomain.PolicyPort
	posts   feeddomain.PostLookupPort
	log     logger.Logger
	metrics *Metrics

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewHub constructs the hub
func NewHub(policy feeddomain.PolicyPort, posts feeddomain.PostLookupPort, m *Metrics, log logger.Logger) *Hub {
	return &Hub{policy: policy, posts: posts, metrics: m, log: log, subs: map[*Subscription]struct{}{}}
}

// Run consumes the change feed until ctx ends or the feed closes
func (h *Hub) Run(ctx context.Context, feed <-chan feeddomain.FeedEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			h.Broadcast(ctx, ev)
		}
	}
}

// Register adds a connection; the returned cancel is idempotent and must
// run on every exit path of the connection
func (h *Hub) Register(viewer caps.Viewer, filter feeddomain.Filters) (*Subscription, func()) {
	sub := &Subscription{
		ID:     uuid.NewString(),
		viewer: viewer,
		filter: filter,
		ch:     make(chan feeddomain.FeedEvent, sendBuf),
	}
	sub.Events = sub.ch

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.Connections.Set(float64(n))
	h.log.Debug().Str("conn_id", sub.ID).Int("connections", n).Msg("stream subscriber registered")

	return sub, func() { h.unregister(sub) }
}

// Subscribers reports the live connection count
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) unregister(sub *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.Connections.Set(float64(n))
}

// Broadcast delivers one event to every subscriber allowed to see it.
// Slow subscribers are dropped, closing their event channel
func (h *Hub) Broadcast(ctx context.Context, ev feeddomain.FeedEvent) {
	h.metrics.Events.WithLabelValues(ev.Kind).Inc()

	subject, ok := h.subject(ctx, ev)
	if !ok {
		return
	}
	var pol *caps.OrgPolicy
	if subject.OwnerOrgID != "" {
		var err error
		pol, err = h.policy.GetOrgPolicy(ctx, subject.OwnerOrgID)
		if err != nil {
			h.log.Warn().Err(err).Str("org_id", subject.OwnerOrgID).Msg("policy lookup failed, treating as absent")
			pol = nil
		}
	}

	var slow []*Subscription
	h.mu.Lock()
	for sub := range h.subs {
		if !matches(sub.filter, ev) {
			continue
		}
		if !caps.Resolve(sub.viewer, subject, pol).CanView {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			slow = append(slow, sub)
		}
	}
	for _, sub := range slow {
		delete(h.subs, sub)
		close(sub.ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if len(slow) > 0 {
		h.metrics.Drops.Add(float64(len(slow)))
		h.metrics.Connections.Set(float64(n))
		h.log.Warn().Int("dropped", len(slow)).Str("kind", ev.Kind).Msg("slow stream subscribers dropped")
	}
}

// subject resolves the event's visibility subject, looking the post up
// when the payload carries no routing hints. Events whose subject cannot
// be established are dropped rather than delivered wide
func (h *Hub) subject(ctx context.Context, ev feeddomain.FeedEvent) (caps.Subject, bool) {
	if ev.HasSubject() {
		return ev.Subject(), true
	}
	if h.posts == nil {
		h.log.Warn().Str("kind", ev.Kind).Str("post_id", ev.PostID()).Msg("hintless event without a post lookup, dropped")
		return caps.Subject{}, false
	}
	p, err := h.posts.Get(ctx, ev.PostID())
	if err != nil {
		h.log.Warn().Err(err).Str("kind", ev.Kind).Str("post_id", ev.PostID()).Msg("hintless event post lookup failed, dropped")
		return caps.Subject{}, false
	}
	return caps.Subject{OwnerOrgID: p.BrandID, Visibility: caps.Visibility(p.Visibility)}, true
}

// matches applies the connection's type and category filter.
// Only creations are filtered; updates and deletions always pass because
// the client may already hold the post from an unfiltered page
func matches(f feeddomain.Filters, ev feeddomain.FeedEvent) bool {
	if ev.Kind != feeddomain.EventPostCreated || ev.Post == nil {
		return true
	}
	if f.Type != "" && ev.Post.Type != f.Type {
		return false
	}
	if f.Category != "" && ev.Post.Category != f.Category {
		return false
	}
	return true
}
