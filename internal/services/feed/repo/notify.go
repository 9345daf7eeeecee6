package repo

import (
	"context"
	"sync"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/store"
	"marketfeed/internal/services/feed/domain"
)

// NotifyChannel is the postgres channel catalog writers publish on
const NotifyChannel = "feed_events"

// subscriberBuf bounds each subscriber's event backlog
const subscriberBuf = 64

// ChangeFeed turns postgres NOTIFY payloads into per-subscriber event
// channels. One LISTEN connection is shared by all subscribers
type ChangeFeed struct {
	notifier store.Notifier
	log      logger.Logger

	mu      sync.Mutex
	subs    map[chan domain.FeedEvent]struct{}
	started bool
	cancel  context.CancelFunc
}

// NewChangeFeed constructs the change feed against the PG notifier seam
func NewChangeFeed(n store.Notifier, log logger.Logger) *ChangeFeed {
	return &ChangeFeed{notifier: n, log: log, subs: map[chan domain.FeedEvent]struct{}{}}
}

var _ domain.SubscribePort = (*ChangeFeed)(nil)

// Subscribe implements domain.SubscribePort.
// The first subscriber starts the shared LISTEN loop
func (f *ChangeFeed) Subscribe(ctx context.Context) (<-chan domain.FeedEvent, func(), error) {
	if f.notifier == nil {
		return nil, nil, perr.Unavailablef("change feed: no notifier")
	}

	ch := make(chan domain.FeedEvent, subscriberBuf)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	if !f.started {
		lctx, cancel := context.WithCancel(context.Background())
		f.cancel = cancel
		f.started = true
		go f.listen(lctx)
	}
	f.mu.Unlock()

	// membership guards against a double close when the listener has
	// already shut this subscriber down
	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}

	// release on caller context cancel as well
	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}

// listen pumps NOTIFY payloads to every subscriber, dropping events for
// subscribers whose buffer is full rather than blocking the pump
func (f *ChangeFeed) listen(ctx context.Context) {
	err := f.notifier.Listen(ctx, NotifyChannel, func(payload string) {
		ev, err := domain.DecodeEvent([]byte(payload))
		if err != nil {
			f.log.Warn().Err(err).Msg("dropping malformed change event")
			return
		}
		f.mu.Lock()
		for ch := range f.subs {
			select {
			case ch <- ev:
			default:
				f.log.Warn().Str("kind", ev.Kind).Msg("subscriber backlog full, event dropped")
			}
		}
		f.mu.Unlock()
	})

	f.mu.Lock()
	f.started = false
	if err != nil && ctx.Err() == nil {
		f.log.Error().Err(err).Msg("change feed listener stopped")
	}
	// closing subscriber channels signals upstream failure; subscribers resync via the query path
	for ch := range f.subs {
		close(ch)
	}
	f.subs = map[chan domain.FeedEvent]struct{}{}
	f.mu.Unlock()
}
