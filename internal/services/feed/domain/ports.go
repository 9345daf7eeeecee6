package domain

import (
	"context"

	"marketfeed/internal/core/caps"
)

// QueryPort is the feed read surface other modules and transports use
type QueryPort interface {
	Query(ctx context.Context, viewer caps.Viewer, q FeedQuery) (FeedPage, error)
	GetPost(ctx context.Context, viewer caps.Viewer, id string) (FeedItem, error)
}

// SubscribePort hands out live change-feed subscriptions
type SubscribePort interface {
	// Subscribe returns a channel of validated events and a cancel that
	// releases the subscription; the channel closes after cancel or on
	// upstream failure
	Subscribe(ctx context.Context) (<-chan FeedEvent, func(), error)
}

// Filters narrow the candidate set before capability filtering
type Filters struct {
	Type     string
	Category string
}

// PostStorePort is the persistent read surface for posts
type PostStorePort interface {
	List(ctx context.Context, f Filters, limit int) ([]Post, error)
	Get(ctx context.Context, id string) (Post, error)
}

// PostLookupPort resolves a post when an event arrives without routing
// hints, so the push path can apply visibility before delivery
type PostLookupPort interface {
	Get(ctx context.Context, id string) (Post, error)
}

// VelocityPort reads recent per-post interaction counts for the rising sort
type VelocityPort interface {
	RecentVelocity(ctx context.Context, ids []string) (map[string]PostVelocity, error)
}

// PolicyPort resolves an owner org's visibility policy.
// nil with nil error means no policy on record
type PolicyPort interface {
	GetOrgPolicy(ctx context.Context, orgID string) (*caps.OrgPolicy, error)
}
