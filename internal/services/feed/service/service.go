// Package service implements the feed query service
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"marketfeed/internal/core/caps"
	"marketfeed/internal/core/feedcursor"
	"marketfeed/internal/core/rank"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/services/feed/domain"
)

// Config bounds the query path
type Config struct {
	DefaultLimit   int
	MaxLimit       int
	CandidateLimit int
}

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 20
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = 500
	}
	return c
}

// Service implements domain.QueryPort
type Service struct {
	store  domain.PostStorePort
	vel    domain.VelocityPort
	policy domain.PolicyPort
	engine *rank.Engine
	cfg    Config
	log    logger.Logger

	now func() time.Time // seam
}

// New constructs the feed service
func New(
	store domain.PostStorePort,
	vel domain.VelocityPort,
	policy domain.PolicyPort,
	engine *rank.Engine,
	cfg Config,
	log logger.Logger,
) *Service {
	return &Service{
		store:  store,
		vel:    vel,
		policy: policy,
		engine: engine,
		cfg:    cfg.withDefaults(),
		log:    log,
		now:    time.Now,
	}
}

var _ domain.QueryPort = (*Service)(nil)

// scored pairs an item with its sort key
type scored struct {
	item domain.FeedItem
	fkey float64 // top, rising
	ikey int64   // new, unix nanos
}

// Query implements domain.QueryPort
func (s *Service) Query(ctx context.Context, viewer caps.Viewer, q domain.FeedQuery) (domain.FeedPage, error) {
	if q.Sort == "" {
		q.Sort = domain.SortTop
	}
	if q.Limit <= 0 {
		q.Limit = s.cfg.DefaultLimit
	}
	if q.Limit > s.cfg.MaxLimit {
		q.Limit = s.cfg.MaxLimit
	}

	scope := feedcursor.Scope{Sort: q.Sort, Type: q.Filter, Category: q.Category}
	var cur *feedcursor.Cursor
	if q.Cursor != "" {
		c, err := feedcursor.Decode(q.Cursor, scope)
		if err != nil {
			return domain.FeedPage{}, err
		}
		cur = &c
	}

	posts, err := s.store.List(ctx, domain.Filters{Type: q.Filter, Category: q.Category}, s.cfg.CandidateLimit)
	if err != nil {
		return domain.FeedPage{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "feed: post store")
	}

	visible := s.filterVisible(ctx, viewer, posts)

	// later pages score at the instant the walk started so decayed keys
	// stay comparable to the cursor's
	now := s.now()
	if cur != nil && cur.ScoredAt != 0 {
		now = time.Unix(0, cur.ScoredAt)
	}

	items, err := s.scoreAndSort(ctx, visible, q.Sort, now)
	if err != nil {
		return domain.FeedPage{}, err
	}

	return s.slice(items, scope, cur, q.Limit, now), nil
}

// filterVisible drops posts the viewer cannot see
func (s *Service) filterVisible(ctx context.Context, viewer caps.Viewer, posts []domain.Post) []domain.FeedItem {
	policies := map[string]*caps.OrgPolicy{}
	out := make([]domain.FeedItem, 0, len(posts))
	for _, p := range posts {
		if p.Status != domain.StatusActive {
			continue
		}
		pol, seen := policies[p.BrandID]
		if !seen && p.BrandID != "" {
			var err error
			pol, err = s.policy.GetOrgPolicy(ctx, p.BrandID)
			if err != nil {
				s.log.Warn().Err(err).Str("org_id", p.BrandID).Msg("policy lookup failed, treating as absent")
				pol = nil
			}
			policies[p.BrandID] = pol
		}
		c := caps.Resolve(viewer, caps.Subject{OwnerOrgID: p.BrandID, Visibility: caps.Visibility(p.Visibility)}, pol)
		if !c.CanView {
			continue
		}
		out = append(out, domain.FeedItem{Post: p, Caps: c})
	}
	return out
}

// scoreAndSort fills breakdowns and orders items for the requested sort
func (s *Service) scoreAndSort(ctx context.Context, items []domain.FeedItem, sortBy string, now time.Time) ([]scored, error) {
	var velocities map[string]domain.PostVelocity
	if sortBy == domain.SortRising {
		ids := make([]string, len(items))
		for i := range items {
			ids[i] = items[i].Post.ID
		}
		var err error
		velocities, err = s.vel.RecentVelocity(ctx, ids)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "feed: velocity reader")
		}
	}

	out := make([]scored, 0, len(items))
	for _, it := range items {
		b := s.engine.Score(it.Post.Signals(), now)
		it.Breakdown = b
		it.Reasons = s.engine.Explain(b)
		it.Post.Score = b.Total

		sc := scored{item: it}
		switch sortBy {
		case domain.SortNew:
			sc.ikey = it.Post.CreatedAt.UnixNano()
		case domain.SortRising:
			v := velocities[it.Post.ID]
			sc.fkey = s.engine.Rising(
				rank.Velocity{Views: v.Views, Clicks: v.Clicks, Carts: v.Carts},
				it.Post.CreatedAt, now,
			)
			// equal velocities, including the zero-velocity fallback,
			// order newest first
			sc.ikey = it.Post.CreatedAt.UnixNano()
		default:
			sc.fkey = b.Total
		}
		out = append(out, sc)
	}

	// descending sort key, id desc as the deterministic tie break
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.fkey != b.fkey {
			return a.fkey > b.fkey
		}
		if a.ikey != b.ikey {
			return a.ikey > b.ikey
		}
		return strings.Compare(a.item.Post.ID, b.item.Post.ID) > 0
	})
	return out, nil
}

// slice applies the cursor position and page limit
func (s *Service) slice(items []scored, scope feedcursor.Scope, cur *feedcursor.Cursor, limit int, now time.Time) domain.FeedPage {
	start := 0
	if cur != nil {
		start = len(items)
		for i, sc := range items {
			if s.after(sc, scope.Sort, *cur) {
				start = i
				break
			}
		}
	}

	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	page := domain.FeedPage{
		Items:   make([]domain.FeedItem, 0, end-start),
		HasMore: end < len(items),
	}
	for _, sc := range items[start:end] {
		page.Items = append(page.Items, sc.item)
	}
	if page.HasMore && end > start {
		last := items[end-1]
		c := feedcursor.Cursor{
			Scope:    scope,
			SortKey:  keyString(last, scope.Sort),
			ID:       last.item.Post.ID,
			ScoredAt: now.UnixNano(),
		}
		if scope.Sort == domain.SortRising {
			c.SecondaryKey = feedcursor.IntKey(last.ikey)
		}
		page.NextCursor = feedcursor.Encode(c)
	}
	return page
}

// after reports whether sc sorts strictly after the cursor position.
// The cursor's own item counts as consumed even if its key drifted
func (s *Service) after(sc scored, sortBy string, cur feedcursor.Cursor) bool {
	id := sc.item.Post.ID
	if id == cur.ID {
		return false
	}
	if sortBy == domain.SortNew {
		k, err := feedcursor.ParseIntKey(cur)
		if err != nil {
			return true
		}
		return sc.ikey < k || (sc.ikey == k && id < cur.ID)
	}
	k, err := feedcursor.ParseFloatKey(cur)
	if err != nil {
		return true
	}
	if sc.fkey != k {
		return sc.fkey < k
	}
	if k2, ok, err := feedcursor.ParseSecondaryIntKey(cur); err == nil && ok && sc.ikey != k2 {
		return sc.ikey < k2
	}
	return id < cur.ID
}

func keyString(sc scored, sortBy string) string {
	if sortBy == domain.SortNew {
		return feedcursor.IntKey(sc.ikey)
	}
	return feedcursor.FloatKey(sc.fkey)
}

// GetPost implements domain.QueryPort. Invisible posts read as absent
func (s *Service) GetPost(ctx context.Context, viewer caps.Viewer, id string) (domain.FeedItem, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.FeedItem{}, err
		}
		return domain.FeedItem{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "feed: post store")
	}

	var pol *caps.OrgPolicy
	if p.BrandID != "" {
		pol, err = s.policy.GetOrgPolicy(ctx, p.BrandID)
		if err != nil {
			s.log.Warn().Err(err).Str("org_id", p.BrandID).Msg("policy lookup failed, treating as absent")
			pol = nil
		}
	}
	c := caps.Resolve(viewer, caps.Subject{OwnerOrgID: p.BrandID, Visibility: caps.Visibility(p.Visibility)}, pol)
	if !c.CanView {
		return domain.FeedItem{}, perr.NotFoundf("post %s", id)
	}

	b := s.engine.Score(p.Signals(), s.now())
	p.Score = b.Total
	return domain.FeedItem{Post: p, Breakdown: b, Reasons: s.engine.Explain(b), Caps: c}, nil
}
