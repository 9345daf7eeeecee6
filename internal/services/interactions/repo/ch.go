// Package repo persists interactions into ClickHouse
package repo

import (
	"context"
	"time"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/store"
	"marketfeed/internal/services/interactions/domain"
)

// row mirrors the feed_interactions table
type row struct {
	PostID     string    `ch:"post_id"`
	ViewerID   string    `ch:"viewer_id"`
	Kind       string    `ch:"kind"`
	OccurredAt time.Time `ch:"occurred_at"`
}

// CH writes interaction batches to ClickHouse
type CH struct {
	ch store.Clickhouse
}

// NewCH constructs the ClickHouse interaction writer; a nil seam means
// writes report Unavailable
func NewCH(ch store.Clickhouse) *CH { return &CH{ch: ch} }

// WriteBatch appends the batch to feed_interactions in one insert
func (r *CH) WriteBatch(ctx context.Context, xs []domain.Interaction) error {
	if len(xs) == 0 {
		return nil
	}
	if r.ch == nil {
		return perr.Unavailablef("interactions: clickhouse disabled")
	}
	rows := make([]row, len(xs))
	for i, x := range xs {
		rows[i] = row{
			PostID:     x.PostID,
			ViewerID:   x.ViewerID,
			Kind:       x.Kind,
			OccurredAt: x.OccurredAt,
		}
	}
	return r.ch.Insert(ctx, "feed_interactions", rows)
}
