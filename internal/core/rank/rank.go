// Package rank scores feed posts from four explainable components:
// recency, engagement, quality, and brand trust. Scoring is pure and
// deterministic for a fixed clock; malformed inputs are clamped rather
// than rejected so the engine never returns an error
package rank

import (
	"fmt"
	"math"
	"time"
)

// Metrics are the interaction counters a post accumulates
type Metrics struct {
	Views    int64
	Clicks   int64
	Follows  int64
	Carts    int64
	Comments int64
	Reviews  int64
}

// Signals is the slice of a post the engine scores
type Signals struct {
	CreatedAt time.Time
	Metrics   Metrics

	// listing completeness
	HasImage       bool
	HasDescription bool
	HasPrice       bool

	// review aggregate, RatingCount == 0 means no reviews yet
	RatingAverage float64 // 1..5
	RatingCount   int64

	// seller reputation
	Verified          bool
	DisputeRate       float64 // 0..1, lower is better, 0 means unknown
	FulfillmentRate   float64 // 0..1, higher is better, 0 means unknown
	ResponseTimeHours float64 // 0 means unknown
	AccountAgeDays    float64 // 0 means unknown
}

// Breakdown is the scored result; every component lies in [0,1]
type Breakdown struct {
	Recency    float64 `json:"recency"`
	Engagement float64 `json:"engagement"`
	Quality    float64 `json:"quality"`
	BrandTrust float64 `json:"brandTrust"`
	Total      float64 `json:"total"`

	// retained for explanations
	EngagementRaw float64 `json:"-"`
	AgeMinutes    float64 `json:"-"`
	RatingAverage float64 `json:"-"`
	RatingCount   int64   `json:"-"`
	Verified      bool    `json:"-"`
}

// Weights blend the four components into the total; they must sum to 1
type Weights struct {
	Recency    float64
	Engagement float64
	Quality    float64
	BrandTrust float64
}

// DefaultWeights returns the production blend
func DefaultWeights() Weights {
	return Weights{Recency: 0.30, Engagement: 0.35, Quality: 0.20, BrandTrust: 0.15}
}

// Validate checks the weights are non-negative and sum to 1
func (w Weights) Validate() error {
	for _, v := range []float64{w.Recency, w.Engagement, w.Quality, w.BrandTrust} {
		if v < 0 {
			return fmt.Errorf("rank: negative weight %v", v)
		}
	}
	sum := w.Recency + w.Engagement + w.Quality + w.BrandTrust
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("rank: weights sum to %v, want 1", sum)
	}
	return nil
}

// engagement raw-score weights per interaction kind
const (
	wViews    = 1
	wClicks   = 3
	wFollows  = 5
	wCarts    = 10
	wComments = 4
	wReviews  = 8
)

// Params tune the shape of the component curves
type Params struct {
	// HalfLife is the recency decay half life
	HalfLife time.Duration

	// EngagementNorm is the raw interaction score mapping to ~1.0 on the
	// log10 scale; population baseline, not a hard cap
	EngagementNorm float64

	// RisingWindow is the velocity sampling window for the rising sort
	RisingWindow time.Duration

	// RisingPeak is the post age at which rising scores peak
	RisingPeak time.Duration
}

// DefaultParams returns the production curve shape
func DefaultParams() Params {
	return Params{
		HalfLife:       6 * time.Hour,
		EngagementNorm: 100000,
		RisingWindow:   15 * time.Minute,
		RisingPeak:     2 * time.Hour,
	}
}

// Engine scores posts under a fixed weight and parameter set
type Engine struct {
	w Weights
	p Params
}

// New builds an Engine, rejecting weight sets that do not sum to 1
func New(w Weights, p Params) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if p.HalfLife <= 0 {
		p.HalfLife = DefaultParams().HalfLife
	}
	if p.EngagementNorm <= 1 {
		p.EngagementNorm = DefaultParams().EngagementNorm
	}
	if p.RisingWindow <= 0 {
		p.RisingWindow = DefaultParams().RisingWindow
	}
	if p.RisingPeak <= 0 {
		p.RisingPeak = DefaultParams().RisingPeak
	}
	return &Engine{w: w, p: p}, nil
}

// MustDefault builds an Engine with default weights and params
// panics are impossible with defaults; for tests and zero-config callers
func MustDefault() *Engine {
	e, err := New(DefaultWeights(), DefaultParams())
	if err != nil {
		panic(err)
	}
	return e
}

// Weights returns the engine's blend
func (e *Engine) Weights() Weights { return e.w }

// Score computes the full breakdown for a post at time now
func (e *Engine) Score(s Signals, now time.Time) Breakdown {
	ageMin := now.Sub(s.CreatedAt).Minutes()
	if ageMin < 0 {
		ageMin = 0
	}

	raw := engagementRaw(s.Metrics)

	b := Breakdown{
		Recency:       e.recency(ageMin),
		Engagement:    e.engagement(raw),
		Quality:       quality(s),
		BrandTrust:    brandTrust(s),
		EngagementRaw: raw,
		AgeMinutes:    ageMin,
		RatingAverage: s.RatingAverage,
		RatingCount:   s.RatingCount,
		Verified:      s.Verified,
	}
	b.Total = clamp01(b.Recency*e.w.Recency +
		b.Engagement*e.w.Engagement +
		b.Quality*e.w.Quality +
		b.BrandTrust*e.w.BrandTrust)
	return b
}

// recency is exponential decay over the half life
func (e *Engine) recency(ageMinutes float64) float64 {
	half := e.p.HalfLife.Minutes()
	return clamp01(math.Exp(-math.Ln2 * ageMinutes / half))
}

// engagement is the log-scaled raw interaction score against the baseline
func (e *Engine) engagement(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return clamp01(math.Log10(raw+1) / math.Log10(e.p.EngagementNorm))
}

func engagementRaw(m Metrics) float64 {
	return float64(m.Views)*wViews +
		float64(m.Clicks)*wClicks +
		float64(m.Follows)*wFollows +
		float64(m.Carts)*wCarts +
		float64(m.Comments)*wComments +
		float64(m.Reviews)*wReviews
}

// quality blends listing completeness with the review average when present
func quality(s Signals) float64 {
	complete := 0.0
	if s.HasImage {
		complete += 1
	}
	if s.HasDescription {
		complete += 1
	}
	if s.HasPrice {
		complete += 1
	}
	complete /= 3

	if s.RatingCount <= 0 {
		return clamp01(complete)
	}
	rating := clamp01((s.RatingAverage - 1) / 4) // 1..5 stars onto 0..1
	return clamp01(0.5*complete + 0.5*rating)
}

// reputation defaults for sellers with no history yet
const (
	defDisputeRate     = 0.02
	defFulfillmentRate = 0.98
	defResponseHours   = 24
	defAccountAgeDays  = 30
)

// brandTrust combines the verified badge with seller reputation factors
func brandTrust(s Signals) float64 {
	dispute := s.DisputeRate
	if dispute <= 0 {
		dispute = defDisputeRate
	}
	fulfillment := s.FulfillmentRate
	if fulfillment <= 0 {
		fulfillment = defFulfillmentRate
	}
	response := s.ResponseTimeHours
	if response <= 0 {
		response = defResponseHours
	}
	age := s.AccountAgeDays
	if age <= 0 {
		age = defAccountAgeDays
	}

	disputeScore := math.Max(0, 1-dispute*2)
	responseScore := math.Exp(-response / 48)
	ageFactor := 1 - math.Exp(-age/60)*0.2

	base := disputeScore*0.3 + clamp01(fulfillment)*0.3 + responseScore*0.2 + ageFactor*0.2
	if s.Verified {
		base += 0.2
	}
	return clamp01(base)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
