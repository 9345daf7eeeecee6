package feedclient

import (
	"context"
	"sync"
	"testing"
	"time"

	perr "marketfeed/internal/platform/errors"
	feeddomain "marketfeed/internal/services/feed/domain"
)

func post(id string) feeddomain.Post {
	return feeddomain.Post{ID: id, Headline: "post " + id, Visibility: feeddomain.VisibilityPublic}
}

func page(hasMore bool, cursor string, ids ...string) feeddomain.FeedPage {
	p := feeddomain.FeedPage{HasMore: hasMore, NextCursor: cursor}
	for _, id := range ids {
		p.Items = append(p.Items, feeddomain.FeedItem{Post: post(id)})
	}
	return p
}

// scriptedFetcher returns queued responses in order; Block() holds the
// next fetch open until Release()
type scriptedFetcher struct {
	mu      sync.Mutex
	pages   []feeddomain.FeedPage
	errs    []error
	gate    chan struct{}
	started chan struct{}
}

func newFetcher() *scriptedFetcher {
	return &scriptedFetcher{started: make(chan struct{}, 16)}
}

func (f *scriptedFetcher) queue(p feeddomain.FeedPage, err error) {
	f.mu.Lock()
	f.pages = append(f.pages, p)
	f.errs = append(f.errs, err)
	f.mu.Unlock()
}

func (f *scriptedFetcher) block() chan struct{} {
	f.mu.Lock()
	f.gate = make(chan struct{})
	g := f.gate
	f.mu.Unlock()
	return g
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, q feeddomain.FeedQuery) (feeddomain.FeedPage, error) {
	f.started <- struct{}{}
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	var p feeddomain.FeedPage
	var err error
	if len(f.pages) > 0 {
		p, err = f.pages[0], f.errs[0]
		f.pages, f.errs = f.pages[1:], f.errs[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return feeddomain.FeedPage{}, ctx.Err()
		}
	}
	return p, err
}

func waitFor(t *testing.T, v *View, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		s := v.Snapshot()
		if cond(s) {
			return s
		}
		select {
		case <-deadline:
			t.Fatalf("condition never met, last snapshot: %+v", s)
		case <-time.After(time.Millisecond):
		}
	}
}

func itemIDs(s Snapshot) []string {
	out := make([]string, len(s.Items))
	for i, p := range s.Items {
		out[i] = p.ID
	}
	return out
}

func TestInitialLoad(t *testing.T) {
	f := newFetcher()
	f.queue(page(true, "c1", "a", "b"), nil)
	v := New(f)
	defer v.Close()

	v.LoadMore()
	s := waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })
	if got := itemIDs(s); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("items = %v, want [a b]", got)
	}
	if !s.HasMore {
		t.Fatal("HasMore lost")
	}
}

func TestLoadMoreAppendsAndDedups(t *testing.T) {
	f := newFetcher()
	f.queue(page(true, "c1", "a", "b"), nil)
	f.queue(page(false, "", "b", "c"), nil) // b shifted pages under mutation
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })
	v.LoadMore()
	s := waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady && !s.HasMore })

	if got := itemIDs(s); len(got) != 3 || got[2] != "c" {
		t.Fatalf("items = %v, want [a b c]", got)
	}
}

func TestCreationsBufferWithoutTouchingItems(t *testing.T) {
	f := newFetcher()
	f.queue(page(false, "", "a", "b"), nil)
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })

	for _, id := range []string{"n1", "n2", "n3"} {
		p := post(id)
		v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostCreated, Post: &p})
	}

	s := waitFor(t, v, func(s Snapshot) bool { return s.NewCount == 3 })
	if got := itemIDs(s); len(got) != 2 {
		t.Fatalf("items changed under buffering: %v", got)
	}
	// most recent first
	if s.Buffer[0].ID != "n3" || s.Buffer[2].ID != "n1" {
		t.Fatalf("buffer order = %v", s.Buffer)
	}
}

func TestShowNewPostsFlushesAndIsIdempotent(t *testing.T) {
	f := newFetcher()
	f.queue(page(false, "", "a"), nil)
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })

	p := post("n1")
	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostCreated, Post: &p})
	waitFor(t, v, func(s Snapshot) bool { return s.NewCount == 1 })

	v.ShowNewPosts()
	s := waitFor(t, v, func(s Snapshot) bool { return s.NewCount == 0 })
	if got := itemIDs(s); got[0] != "n1" || got[1] != "a" {
		t.Fatalf("items = %v, want [n1 a]", got)
	}
	if len(s.Buffer) != 0 {
		t.Fatalf("buffer not cleared: %v", s.Buffer)
	}

	v.ShowNewPosts() // empty buffer, no-op
	s2 := v.Snapshot()
	if len(s2.Items) != 2 || s2.NewCount != 0 {
		t.Fatalf("second flush mutated state: %+v", s2)
	}
}

func TestMetricUpdateInPlace(t *testing.T) {
	f := newFetcher()
	f.queue(page(false, "", "a", "p1", "b"), nil)
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })

	v.Apply(feeddomain.FeedEvent{
		Kind:    feeddomain.EventMetricUpdated,
		ID:      "p1",
		Metrics: &feeddomain.Metrics{Views: 42},
	})

	s := waitFor(t, v, func(s Snapshot) bool { return s.Items[1].Metrics.Views == 42 })
	if got := itemIDs(s); got[0] != "a" || got[1] != "p1" || got[2] != "b" {
		t.Fatalf("metric update moved items: %v", got)
	}
}

func TestDeleteRemovesFromItemsAndBuffer(t *testing.T) {
	f := newFetcher()
	f.queue(page(false, "", "a", "b"), nil)
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })

	p := post("n1")
	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostCreated, Post: &p})
	waitFor(t, v, func(s Snapshot) bool { return s.NewCount == 1 })

	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostDeleted, ID: "n1"})
	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostDeleted, ID: "a"})

	s := waitFor(t, v, func(s Snapshot) bool { return len(s.Items) == 1 && len(s.Buffer) == 0 })
	if s.Items[0].ID != "b" || s.NewCount != 0 {
		t.Fatalf("unexpected state after deletes: %+v", s)
	}
}

func TestEventsQueueBehindInFlightFetch(t *testing.T) {
	f := newFetcher()
	f.queue(page(false, "", "a"), nil)
	gate := f.block()
	v := New(f)
	defer v.Close()

	v.LoadMore()
	<-f.started // fetch is now in flight and parked on the gate

	p := post("n1")
	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostCreated, Post: &p})
	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostDeleted, ID: "a"})

	// nothing may apply while the fetch is open
	s := v.Snapshot()
	if s.NewCount != 0 || len(s.Buffer) != 0 {
		t.Fatalf("events applied mid-fetch: %+v", s)
	}

	close(gate)
	s = waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady && s.NewCount == 1 })
	// the queued deletion must have removed the just-fetched item
	if len(s.Items) != 0 {
		t.Fatalf("queued delete not applied after fetch: %v", itemIDs(s))
	}
	if s.Buffer[0].ID != "n1" {
		t.Fatalf("queued creation lost: %+v", s)
	}
}

func TestUnavailableKeepsItemsAndShowsBanner(t *testing.T) {
	f := newFetcher()
	f.queue(page(true, "c1", "a"), nil)
	f.queue(feeddomain.FeedPage{}, perr.Unavailablef("store down"))
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })
	v.LoadMore()

	s := waitFor(t, v, func(s Snapshot) bool { return s.Banner != "" })
	if len(s.Items) != 1 {
		t.Fatalf("populated feed went blank on transient error: %+v", s)
	}

	v.DismissBanner()
	s = waitFor(t, v, func(s Snapshot) bool { return s.Banner == "" })
	if s.State != StateReady {
		t.Fatalf("state after dismiss = %v, want ready", s.State)
	}
}

func TestRefreshClearsBufferAndReplacesItems(t *testing.T) {
	f := newFetcher()
	f.queue(page(false, "", "a", "b"), nil)
	f.queue(page(false, "", "z"), nil)
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })

	p := post("n1")
	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostCreated, Post: &p})
	waitFor(t, v, func(s Snapshot) bool { return s.NewCount == 1 })

	v.Refresh()
	s := waitFor(t, v, func(s Snapshot) bool {
		return s.State == StateReady && len(s.Items) == 1 && s.Items[0].ID == "z"
	})
	if s.NewCount != 0 || len(s.Buffer) != 0 {
		t.Fatalf("refresh kept buffer state: %+v", s)
	}
}

func TestInvalidCursorRestartsFromPageOne(t *testing.T) {
	f := newFetcher()
	f.queue(page(true, "c1", "a"), nil)
	f.queue(feeddomain.FeedPage{}, perr.InvalidCursorf("foreign scope"))
	f.queue(page(false, "", "a", "b"), nil) // the restart
	v := New(f)
	defer v.Close()

	v.LoadMore()
	waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady })
	v.LoadMore()

	s := waitFor(t, v, func(s Snapshot) bool { return s.State == StateReady && len(s.Items) == 2 })
	if s.Banner != "" {
		t.Fatalf("cursor restart should be silent, got banner %q", s.Banner)
	}
}

func TestCloseStopsActor(t *testing.T) {
	f := newFetcher()
	gate := f.block()
	f.queue(page(false, "", "a"), nil)
	v := New(f)

	v.LoadMore()
	<-f.started
	v.Close()
	close(gate)

	// mutations after close are dropped, not applied
	p := post("n1")
	v.Apply(feeddomain.FeedEvent{Kind: feeddomain.EventPostCreated, Post: &p})
	if s := v.Snapshot(); s.State != StateIdle || len(s.Items) != 0 {
		t.Fatalf("closed view mutated: %+v", s)
	}
}
