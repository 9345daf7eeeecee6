package module

import (
	"time"

	"marketfeed/internal/platform/config"
)

// Options tune the interaction batcher (INTERACTIONS_*)
type Options struct {
	BatchSize  int
	FlushEvery time.Duration
	QueueSize  int
}

// FromConfig reads the module options from config
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("INTERACTIONS_")
	return Options{
		BatchSize:  c.MayInt("BATCH", 200),
		FlushEvery: c.MayDuration("FLUSH", 2*time.Second),
		QueueSize:  c.MayInt("QUEUE", 4096),
	}
}
