package repo

import (
	"context"
	"time"

	"marketfeed/internal/platform/store"
	"marketfeed/internal/services/feed/domain"
)

// Velocity reads recent interaction counts from ClickHouse
type Velocity struct {
	ch     store.Clickhouse
	window time.Duration
}

// NewVelocity constructs the reader over the configured rising window
func NewVelocity(ch store.Clickhouse, window time.Duration) *Velocity {
	return &Velocity{ch: ch, window: window}
}

var _ domain.VelocityPort = (*Velocity)(nil)

// RecentVelocity implements domain.VelocityPort.
// Posts with no interactions inside the window are absent from the result.
// Without a configured ClickHouse every post reads as zero velocity and
// the rising sort falls back to recency
func (v *Velocity) RecentVelocity(ctx context.Context, ids []string) (map[string]domain.PostVelocity, error) {
	out := make(map[string]domain.PostVelocity, len(ids))
	if v.ch == nil {
		return out, nil
	}
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := v.ch.Query(ctx, `
		SELECT
			post_id,
			countIf(kind = 'view')  AS views,
			countIf(kind = 'click') AS clicks,
			countIf(kind = 'cart')  AS carts
		FROM feed_interactions
		WHERE post_id IN (?) AND occurred_at >= now() - INTERVAL ? SECOND
		GROUP BY post_id`,
		ids, int64(v.window.Seconds()),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pv domain.PostVelocity
		var views, clicks, carts uint64
		if err := rows.Scan(&pv.PostID, &views, &clicks, &carts); err != nil {
			return nil, err
		}
		pv.Views, pv.Clicks, pv.Carts = int64(views), int64(clicks), int64(carts)
		out[pv.PostID] = pv
	}
	return out, rows.Err()
}
