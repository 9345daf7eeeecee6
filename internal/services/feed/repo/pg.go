// Package repo provides the feed repositories: posts on Postgres and
// interaction velocity on ClickHouse
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketfeed/internal/modkit/repokit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/store"
	"marketfeed/internal/services/feed/domain"
)

// PG reads posts from Postgres
type PG struct{ q repokit.Queryer }

// NewPG constructs the Postgres post store
func NewPG(q repokit.Queryer) *PG { return &PG{q: q} }

var _ domain.PostStorePort = (*PG)(nil)

const postColumns = `
	id::text, COALESCE(brand_id::text, ''), brand_name, brand_verified,
	visibility::text, post_type::text, headline, COALESCE(description, ''),
	COALESCE(primary_image, ''), COALESCE(category, ''),
	pricing_mode::text, COALESCE(currency, ''), COALESCE(price, 0), COALESCE(compare_at_price, 0),
	views, clicks, follows, carts, comments, reviews,
	status::text, rating_avg, rating_count,
	dispute_rate, fulfillment_rate, response_time_hours, account_age_days,
	created_at, updated_at`

// List implements domain.PostStorePort
func (r *PG) List(ctx context.Context, f domain.Filters, limit int) ([]domain.Post, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`SELECT` + postColumns + `
		FROM feed_posts
		WHERE status = 'ACTIVE'
	`)
	if f.Type != "" {
		sb.WriteString("  AND post_type = " + arg(f.Type) + "::post_type_enum\n")
	}
	if f.Category != "" {
		sb.WriteString("  AND category = " + arg(f.Category) + "\n")
	}
	sb.WriteString("ORDER BY created_at DESC, id DESC\nLIMIT " + arg(limit))

	return store.Many(ctx, r.q, scanPost, sb.String(), args...)
}

// Get implements domain.PostStorePort
func (r *PG) Get(ctx context.Context, id string) (domain.Post, error) {
	p, err := store.One(ctx, r.q, scanPost, `SELECT`+postColumns+` FROM feed_posts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, perr.ErrNotFound) {
			return domain.Post{}, perr.NotFoundf("post %s", id)
		}
		return domain.Post{}, err
	}
	return p, nil
}

func scanPost(sc store.Row) (domain.Post, error) {
	var p domain.Post
	err := sc.Scan(
		&p.ID, &p.BrandID, &p.BrandName, &p.BrandVerified,
		&p.Visibility, &p.Type, &p.Headline, &p.Description,
		&p.PrimaryImage, &p.Category,
		&p.Pricing.Mode, &p.Pricing.Currency, &p.Pricing.Price, &p.Pricing.CompareAtPrice,
		&p.Metrics.Views, &p.Metrics.Clicks, &p.Metrics.Follows,
		&p.Metrics.Carts, &p.Metrics.Comments, &p.Metrics.Reviews,
		&p.Status, &p.Rating.Average, &p.Rating.Count,
		&p.Reputation.DisputeRate, &p.Reputation.FulfillmentRate,
		&p.Reputation.ResponseTimeHours, &p.Reputation.AccountAgeDays,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
