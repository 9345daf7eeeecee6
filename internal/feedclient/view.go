// Package feedclient implements the viewer-side feed state machine: it
// reconciles paginated history with live push events without moving the
// posts the viewer is currently reading. Creations buffer behind an
// "N new posts" affordance, metric updates land in place, deletions
// apply immediately
package feedclient

import (
	"context"
	"sync"

	perr "marketfeed/internal/platform/errors"
	feeddomain "marketfeed/internal/services/feed/domain"
)

// State is the view's lifecycle phase
type State int

// View states
const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

// Fetcher loads feed pages; implementations are the HTTP client or an
// in-process query port
type Fetcher interface {
	FetchPage(ctx context.Context, q feeddomain.FeedQuery) (feeddomain.FeedPage, error)
}

// Snapshot is an immutable copy of the view for rendering
type Snapshot struct {
	State    State
	Items    []feeddomain.Post
	Buffer   []feeddomain.Post
	NewCount int
	HasMore  bool

	// Banner carries a dismissible failure message; items survive it
	Banner string
}

// View is the feed state machine. All mutations run on one goroutine, so
// a live event can never interleave with a page application
type View struct {
	fetcher Fetcher
	query   feeddomain.FeedQuery
	onEvent func(Snapshot)

	mailbox chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	// actor-owned state, touched only from run()
	state    State
	items    []feeddomain.Post
	seen     map[string]bool
	buffer   []feeddomain.Post
	newCount int
	cursor   string
	hasMore  bool
	banner   string

	// in-flight fetch coordination
	fetching    bool
	fetchCancel context.CancelFunc
	pending     []feeddomain.FeedEvent

	closeOnce sync.Once
}

// Option configures a View
type Option func(*View)

// WithQuery pins the sort, filter and category scope the view loads
func WithQuery(q feeddomain.FeedQuery) Option {
	return func(v *View) { v.query = q }
}

// WithOnChange registers a render callback invoked with a fresh snapshot
// after every applied mutation
func WithOnChange(fn func(Snapshot)) Option {
	return func(v *View) { v.onEvent = fn }
}

// New constructs a View and starts its actor goroutine
func New(fetcher Fetcher, opts ...Option) *View {
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		fetcher: fetcher,
		mailbox: make(chan func(), 128),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		seen:    map[string]bool{},
	}
	for _, o := range opts {
		o(v)
	}
	go v.run()
	return v
}

func (v *View) run() {
	defer close(v.done)
	for {
		select {
		case <-v.ctx.Done():
			return
		case fn := <-v.mailbox:
			fn()
		}
	}
}

// post sends a mutation to the actor; a closed view drops it
func (v *View) post(fn func()) {
	select {
	case v.mailbox <- fn:
	case <-v.ctx.Done():
	}
}

func (v *View) notify() {
	if v.onEvent != nil {
		v.onEvent(v.snapshot())
	}
}

func (v *View) snapshot() Snapshot {
	return Snapshot{
		State:    v.state,
		Items:    append([]feeddomain.Post(nil), v.items...),
		Buffer:   append([]feeddomain.Post(nil), v.buffer...),
		NewCount: v.newCount,
		HasMore:  v.hasMore,
		Banner:   v.banner,
	}
}

// Snapshot returns a copy of the current state
func (v *View) Snapshot() Snapshot {
	out := make(chan Snapshot, 1)
	v.post(func() { out <- v.snapshot() })
	select {
	case s := <-out:
		return s
	case <-v.ctx.Done():
		return Snapshot{}
	}
}

// Refresh replaces items with a fresh first page, clearing the buffer
func (v *View) Refresh() { v.post(func() { v.startFetch(true) }) }

// LoadMore appends the next page when one exists
func (v *View) LoadMore() {
	v.post(func() {
		if !v.hasMore && v.state != StateIdle && v.state != StateError {
			return
		}
		v.startFetch(false)
	})
}

// ShowNewPosts flushes the buffer onto the top of items.
// Calling with an empty buffer is a no-op
func (v *View) ShowNewPosts() {
	v.post(func() {
		if len(v.buffer) == 0 {
			return
		}
		merged := make([]feeddomain.Post, 0, len(v.buffer)+len(v.items))
		merged = append(merged, v.buffer...)
		merged = append(merged, v.items...)
		for _, p := range v.buffer {
			v.seen[p.ID] = true
		}
		v.items = merged
		v.buffer = nil
		v.newCount = 0
		v.notify()
	})
}

// DismissBanner clears the failure banner without touching items
func (v *View) DismissBanner() {
	v.post(func() {
		if v.banner == "" {
			return
		}
		v.banner = ""
		if v.state == StateError {
			v.state = StateReady
		}
		v.notify()
	})
}

// Apply feeds one live event into the view. Events arriving while a
// fetch is in flight queue behind it
func (v *View) Apply(ev feeddomain.FeedEvent) {
	v.post(func() {
		if v.fetching {
			v.pending = append(v.pending, ev)
			return
		}
		v.applyEvent(ev)
		v.notify()
	})
}

// Close aborts any in-flight fetch and stops the actor
func (v *View) Close() {
	v.closeOnce.Do(func() {
		v.cancel()
		<-v.done
		if v.fetchCancel != nil {
			v.fetchCancel()
		}
	})
}

// startFetch kicks off a page load; refresh resets to page one
func (v *View) startFetch(refresh bool) {
	if v.fetching {
		return
	}
	q := v.query
	if refresh {
		q.Cursor = ""
	} else {
		q.Cursor = v.cursor
	}

	fctx, cancel := context.WithCancel(v.ctx)
	v.fetching = true
	v.fetchCancel = cancel
	v.state = StateLoading
	v.notify()

	go func() {
		page, err := v.fetcher.FetchPage(fctx, q)
		cancel()
		v.post(func() { v.finishFetch(refresh, page, err) })
	}()
}

// finishFetch applies the page, then the events queued while it ran
func (v *View) finishFetch(refresh bool, page feeddomain.FeedPage, err error) {
	v.fetching = false
	v.fetchCancel = nil

	switch {
	case err != nil && perr.IsInvalidCursor(err) && !refresh:
		// stale cursor, restart from page one
		v.startFetch(true)
		return
	case err != nil:
		// transient failure surfaces as a banner; rendered items stay
		v.state = StateError
		v.banner = "feed temporarily unavailable"
	default:
		if refresh {
			v.items = nil
			v.seen = map[string]bool{}
			v.buffer = nil
			v.newCount = 0
		}
		for _, it := range page.Items {
			p := it.Post
			if v.seen[p.ID] {
				continue
			}
			v.seen[p.ID] = true
			v.items = append(v.items, p)
		}
		v.cursor = page.NextCursor
		v.hasMore = page.HasMore
		v.state = StateReady
		if page.Degraded {
			v.banner = "feed temporarily unavailable"
		} else {
			v.banner = ""
		}
	}

	queued := v.pending
	v.pending = nil
	for _, ev := range queued {
		v.applyEvent(ev)
	}
	v.notify()
}

// applyEvent mutates state for one live event; runs on the actor only
func (v *View) applyEvent(ev feeddomain.FeedEvent) {
	switch ev.Kind {
	case feeddomain.EventPostCreated:
		p := *ev.Post
		if v.seen[p.ID] || inBuffer(v.buffer, p.ID) {
			return
		}
		// most recent first, items untouched to preserve scroll position
		v.buffer = append([]feeddomain.Post{p}, v.buffer...)
		v.newCount++

	case feeddomain.EventMetricUpdated:
		update := func(p *feeddomain.Post) {
			if ev.Metrics != nil {
				p.Metrics = *ev.Metrics
			}
			if ev.Score != nil {
				p.Score = *ev.Score
			}
		}
		for i := range v.items {
			if v.items[i].ID == ev.ID {
				update(&v.items[i])
				return
			}
		}
		for i := range v.buffer {
			if v.buffer[i].ID == ev.ID {
				update(&v.buffer[i])
				return
			}
		}

	case feeddomain.EventPostDeleted:
		// deletions are never buffered, they apply to both lists now
		v.items = removeID(v.items, ev.ID)
		delete(v.seen, ev.ID)
		v.buffer = removeID(v.buffer, ev.ID)
		if len(v.buffer) < v.newCount {
			v.newCount = len(v.buffer)
		}
	}
}

func inBuffer(buf []feeddomain.Post, id string) bool {
	for _, p := range buf {
		if p.ID == id {
			return true
		}
	}
	return false
}

func removeID(in []feeddomain.Post, id string) []feeddomain.Post {
	out := in[:0]
	for _, p := range in {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
