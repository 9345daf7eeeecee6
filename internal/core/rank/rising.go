package rank

import (
	"math"
	"time"
)

// velocity weights per interaction kind, skewed toward purchase intent
const (
	wVelViews  = 1
	wVelClicks = 5
	wVelCarts  = 20
)

// Velocity counts interactions inside the rising sampling window
type Velocity struct {
	Views  int64
	Clicks int64
	Carts  int64
}

// rising scores cover roughly the first day of a post's life
const risingMaxAge = 24 * time.Hour

// Rising scores a post for the rising sort: recent interaction velocity
// shaped by an age multiplier that peaks at RisingPeak. Posts younger
// than the sampling window or older than a day score zero
func (e *Engine) Rising(v Velocity, createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < e.p.RisingWindow || age > risingMaxAge {
		return 0
	}

	raw := float64(v.Views)*wVelViews + float64(v.Clicks)*wVelClicks + float64(v.Carts)*wVelCarts
	if raw <= 0 {
		return 0
	}
	vel := clamp01(math.Log10(raw+1) / math.Log10(e.p.EngagementNorm))

	peakH := e.p.RisingPeak.Hours()
	mult := math.Exp(-math.Abs(age.Hours()-peakH) / 6)
	return vel * mult
}
