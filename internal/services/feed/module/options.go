package module

import (
	"marketfeed/internal/core/rank"
	"marketfeed/internal/platform/config"
)

// Options holds configuration settings for the feed module
type Options struct {
	Weights rank.Weights
	Params  rank.Params

	DefaultLimit   int
	MaxLimit       int
	CandidateLimit int
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	ff := cfg.Prefix("FEED_")
	dw := rank.DefaultWeights()
	dp := rank.DefaultParams()
	return Options{
		Weights: rank.Weights{
			Recency:    ff.MayFloat64("WEIGHT_RECENCY", dw.Recency),
			Engagement: ff.MayFloat64("WEIGHT_ENGAGEMENT", dw.Engagement),
			Quality:    ff.MayFloat64("WEIGHT_QUALITY", dw.Quality),
			BrandTrust: ff.MayFloat64("WEIGHT_BRAND_TRUST", dw.BrandTrust),
		},
		Params: rank.Params{
			HalfLife:       ff.MayDuration("HALF_LIFE", dp.HalfLife),
			EngagementNorm: ff.MayFloat64("ENGAGEMENT_NORM", dp.EngagementNorm),
			RisingWindow:   ff.MayDuration("RISING_WINDOW", dp.RisingWindow),
			RisingPeak:     ff.MayDuration("RISING_PEAK", dp.RisingPeak),
		},
		DefaultLimit:   ff.MayInt("PAGE_SIZE", 20),
		MaxLimit:       ff.MayInt("MAX_PAGE_SIZE", 100),
		CandidateLimit: ff.MayInt("CANDIDATE_LIMIT", 500),
	}
}
