package domain

import (
	"encoding/json"
	"fmt"

	"marketfeed/internal/core/caps"
)

// Feed event kinds
const (
	EventPostCreated   = "post_created"
	EventMetricUpdated = "metric_updated"
	EventPostDeleted   = "post_deleted"
)

// FeedEvent is the tagged union pushed over the live channel.
// Exactly the fields for its Kind are set
type FeedEvent struct {
	Kind string `json:"kind"`

	// post_created
	Post *Post `json:"post,omitempty"`

	// metric_updated and post_deleted
	ID string `json:"id,omitempty"`

	// metric_updated
	Metrics *Metrics `json:"metrics,omitempty"`
	Score   *float64 `json:"score,omitempty"`

	// routing hints for id-only kinds so the push path can apply
	// visibility without a store lookup. Publishers must set them on
	// post_deleted, the row is gone by delivery time; for other kinds
	// the hub resolves the post when they are absent and drops the
	// event if it cannot
	BrandID    string `json:"brandId,omitempty"`
	Visibility string `json:"visibility,omitempty"`
}

// Validate checks the union carries the fields its kind requires
func (e FeedEvent) Validate() error {
	switch e.Kind {
	case EventPostCreated:
		if e.Post == nil || e.Post.ID == "" {
			return fmt.Errorf("feed event: %s without post", e.Kind)
		}
	case EventMetricUpdated:
		if e.ID == "" || e.Metrics == nil {
			return fmt.Errorf("feed event: %s without id or metrics", e.Kind)
		}
	case EventPostDeleted:
		if e.ID == "" {
			return fmt.Errorf("feed event: %s without id", e.Kind)
		}
	default:
		return fmt.Errorf("feed event: unknown kind %q", e.Kind)
	}
	return nil
}

// PostID returns the id the event is about regardless of kind
func (e FeedEvent) PostID() string {
	if e.Kind == EventPostCreated && e.Post != nil {
		return e.Post.ID
	}
	return e.ID
}

// Subject returns the visibility subject the event is about
func (e FeedEvent) Subject() caps.Subject {
	if e.Post != nil {
		return caps.Subject{OwnerOrgID: e.Post.BrandID, Visibility: caps.Visibility(e.Post.Visibility)}
	}
	return caps.Subject{OwnerOrgID: e.BrandID, Visibility: caps.Visibility(e.Visibility)}
}

// HasSubject reports whether the event carries enough to resolve
// visibility without a lookup
func (e FeedEvent) HasSubject() bool {
	return e.Post != nil || e.BrandID != "" || e.Visibility != ""
}

// DecodeEvent parses a change-feed payload and validates the union shape
func DecodeEvent(payload []byte) (FeedEvent, error) {
	var e FeedEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return FeedEvent{}, fmt.Errorf("feed event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return FeedEvent{}, err
	}
	return e, nil
}
