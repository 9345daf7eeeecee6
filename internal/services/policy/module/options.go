package module

import (
	"time"

	"marketfeed/internal/platform/config"
)

// Options holds configuration settings for the policy module
type Options struct {
	CacheTTL   time.Duration
	FailClosed bool
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	pf := cfg.Prefix("FEED_POLICY_")
	return Options{
		CacheTTL:   pf.MayDuration("CACHE_TTL", time.Minute),
		FailClosed: pf.MayBool("FAIL_CLOSED", false),
	}
}
