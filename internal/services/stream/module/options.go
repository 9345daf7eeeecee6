package module

import (
	"time"

	"marketfeed/internal/platform/config"
)

// Options holds configuration settings for the stream module
type Options struct {
	Heartbeat   time.Duration
	Resubscribe time.Duration
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	sf := cfg.Prefix("STREAM_")
	return Options{
		Heartbeat:   sf.MayDuration("HEARTBEAT", 30*time.Second),
		Resubscribe: sf.MayDuration("RESUBSCRIBE", 5*time.Second),
	}
}
