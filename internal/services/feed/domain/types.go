// Package domain defines the types and interfaces for the feed service
package domain

import (
	"time"

	"marketfeed/internal/core/caps"
	"marketfeed/internal/core/rank"
)

// Sort orders for the feed
const (
	SortTop    = "top"
	SortNew    = "new"
	SortRising = "rising"
)

// Post visibility
const (
	VisibilityPublic  = "PUBLIC"
	VisibilityOrgOnly = "ORG_ONLY"
)

// Post lifecycle status
const (
	StatusActive  = "ACTIVE"
	StatusSold    = "SOLD"
	StatusExpired = "EXPIRED"
	StatusDraft   = "DRAFT"
)

// Metrics are the interaction counters carried on the wire
type Metrics struct {
	Views    int64 `json:"views"`
	Clicks   int64 `json:"clicks"`
	Follows  int64 `json:"follows"`
	Carts    int64 `json:"carts"`
	Comments int64 `json:"comments"`
	Reviews  int64 `json:"reviews"`
}

// Pricing is the posted price variant
type Pricing struct {
	Mode           string  `json:"mode"` // FIXED, BIDDING, REQUEST_QUOTE, NEGOTIABLE
	Currency       string  `json:"currency,omitempty"`
	Price          float64 `json:"price,omitempty"`
	CompareAtPrice float64 `json:"compareAtPrice,omitempty"`
}

// RatingSummary aggregates the post's reviews
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// BrandReputation holds seller trust inputs; scoring only, never serialized
type BrandReputation struct {
	DisputeRate       float64 `json:"-"`
	FulfillmentRate   float64 `json:"-"`
	ResponseTimeHours float64 `json:"-"`
	AccountAgeDays    float64 `json:"-"`
}

// Post is a single catalog activity entry in the feed
type Post struct {
	ID            string          `json:"id"`
	BrandID       string          `json:"brandId,omitempty"` // owner org, empty for individual sellers
	BrandName     string          `json:"brandName,omitempty"`
	BrandVerified bool            `json:"brandVerified"`
	Visibility    string          `json:"visibility"`
	Type          string          `json:"type"` // NEW, PRICE_DROP, RESTOCK, CATALOG, AUCTION
	Headline      string          `json:"headline"`
	Description   string          `json:"description,omitempty"`
	PrimaryImage  string          `json:"primaryImage,omitempty"`
	Category      string          `json:"category,omitempty"`
	Pricing       Pricing         `json:"pricing"`
	Metrics       Metrics         `json:"metrics"`
	Score         float64         `json:"score"`
	Status        string          `json:"status"`
	Rating        RatingSummary   `json:"rating"`
	Reputation    BrandReputation `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Signals maps the post onto the score engine's inputs
func (p Post) Signals() rank.Signals {
	return rank.Signals{
		CreatedAt: p.CreatedAt,
		Metrics: rank.Metrics{
			Views:    p.Metrics.Views,
			Clicks:   p.Metrics.Clicks,
			Follows:  p.Metrics.Follows,
			Carts:    p.Metrics.Carts,
			Comments: p.Metrics.Comments,
			Reviews:  p.Metrics.Reviews,
		},
		HasImage:          p.PrimaryImage != "",
		HasDescription:    p.Description != "",
		HasPrice:          p.Pricing.Price > 0,
		RatingAverage:     p.Rating.Average,
		RatingCount:       p.Rating.Count,
		Verified:          p.BrandVerified,
		DisputeRate:       p.Reputation.DisputeRate,
		FulfillmentRate:   p.Reputation.FulfillmentRate,
		ResponseTimeHours: p.Reputation.ResponseTimeHours,
		AccountAgeDays:    p.Reputation.AccountAgeDays,
	}
}

// FeedQuery is the bound and validated feed request
type FeedQuery struct {
	Sort     string `json:"sort" validate:"omitempty,oneof=top new rising"`
	Filter   string `json:"filter" validate:"omitempty,oneof=NEW PRICE_DROP RESTOCK CATALOG AUCTION"`
	Category string `json:"category" validate:"omitempty,max=64"`
	Cursor   string `json:"after" validate:"omitempty,max=512"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// FeedItem is a post plus its explainable ranking
type FeedItem struct {
	Post      Post           `json:"post"`
	Breakdown rank.Breakdown `json:"breakdown"`
	Reasons   []rank.Reason  `json:"reasons,omitempty"`
	Caps      caps.Caps      `json:"caps"`
}

// FeedPage is one page of the feed
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
	HasMore    bool       `json:"hasMore"`

	// Degraded is set when the page is empty because the store was
	// unavailable rather than genuinely empty
	Degraded bool `json:"degraded,omitempty"`
}

// PostVelocity is a post's weighted interaction count inside the rising window
type PostVelocity struct {
	PostID string
	Views  int64
	Clicks int64
	Carts  int64
}
