// Package service batches interactions and flushes them to storage
package service

import (
	"context"
	"sync/atomic"
	"time"

	"marketfeed/internal/platform/logger"
	"marketfeed/internal/services/interactions/domain"
)

// Writer persists a batch; satisfied by the CH repo
type Writer interface {
	WriteBatch(ctx context.Context, xs []domain.Interaction) error
}

// Config tunes the batcher
type Config struct {
	BatchSize  int           // flush when this many are queued
	FlushEvery time.Duration // flush at least this often
	QueueSize  int           // bounded intake, records drop beyond it
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 200
	}
	if c.FlushEvery <= 0 {
		c.FlushEvery = 2 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 4096
	}
	return c
}

// Service implements domain.RecorderPort with an asynchronous batcher.
// Record never blocks the request path; a saturated queue drops
type Service struct {
	w   Writer
	cfg Config
	log logger.Logger

	in      chan domain.Interaction
	dropped atomic.Uint64
	now     func() time.Time
}

var _ domain.RecorderPort = (*Service)(nil)

// New constructs the recorder; call Start to begin flushing
func New(w Writer, cfg Config, log logger.Logger) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		w:   w,
		cfg: cfg,
		log: log,
		in:  make(chan domain.Interaction, cfg.QueueSize),
		now: time.Now,
	}
}

// Record implements domain.RecorderPort
func (s *Service) Record(i domain.Interaction) error {
	if i.PostID == "" || !domain.ValidKind(i.Kind) {
		return nil // validated at the edge, tolerate junk here
	}
	if i.OccurredAt.IsZero() {
		i.OccurredAt = s.now().UTC()
	}
	select {
	case s.in <- i:
	default:
		s.dropped.Add(1)
		s.log.Warn().Str("post_id", i.PostID).Msg("interaction queue full, dropping")
	}
	return nil
}

// Start runs the flush loop until ctx ends, draining on shutdown
func (s *Service) Start(ctx context.Context) {
	go func() {
		tick := time.NewTicker(s.cfg.FlushEvery)
		defer tick.Stop()

		batch := make([]domain.Interaction, 0, s.cfg.BatchSize)
		flush := func() {
			if len(batch) == 0 {
				return
			}
			fctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.w.WriteBatch(fctx, batch); err != nil {
				s.log.Warn().Err(err).Int("count", len(batch)).Msg("interaction flush failed")
			}
			cancel()
			batch = batch[:0]
		}

		for {
			select {
			case <-ctx.Done():
				// drain whatever is queued, then a final flush
				for {
					select {
					case i := <-s.in:
						batch = append(batch, i)
					default:
						flush()
						return
					}
				}
			case i := <-s.in:
				batch = append(batch, i)
				if len(batch) >= s.cfg.BatchSize {
					flush()
				}
			case <-tick.C:
				flush()
			}
		}
	}()
}
