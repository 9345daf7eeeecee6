package rank

import (
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Reason is one human-readable contributor to a post's rank
type Reason struct {
	Component string `json:"component"`
	Detail    string `json:"detail"`
	Percent   int    `json:"percent"`
}

// MaxReasons caps how many reasons an explanation carries
const MaxReasons = 3

var grouped = message.NewPrinter(language.English)

// Explain turns a breakdown into at most MaxReasons reasons, ordered by
// weighted contribution. Percentages are each component's rounded share
// of the blended total
func (e *Engine) Explain(b Breakdown) []Reason {
	type contrib struct {
		component string
		value     float64
		detail    string
	}

	cs := []contrib{
		{"recency", b.Recency * e.w.Recency, recencyDetail(b.AgeMinutes)},
		{"engagement", b.Engagement * e.w.Engagement, engagementDetail(b.EngagementRaw)},
		{"quality", b.Quality * e.w.Quality, qualityDetail(b)},
		{"brandTrust", b.BrandTrust * e.w.BrandTrust, trustDetail(b)},
	}

	total := 0.0
	for _, c := range cs {
		total += c.value
	}
	if total <= 0 {
		return nil
	}

	// stable: ties keep component declaration order
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].value > cs[j].value })

	out := make([]Reason, 0, MaxReasons)
	for _, c := range cs {
		if len(out) == MaxReasons {
			break
		}
		if c.value <= 0 {
			continue
		}
		out = append(out, Reason{
			Component: c.component,
			Detail:    c.detail,
			Percent:   int(math.Round(c.value / total * 100)),
		})
	}
	return out
}

func recencyDetail(ageMinutes float64) string {
	switch {
	case ageMinutes < 60:
		return grouped.Sprintf("posted %d minutes ago", int(ageMinutes))
	case ageMinutes < 60*24:
		return grouped.Sprintf("posted %d hours ago", int(ageMinutes/60))
	default:
		return grouped.Sprintf("posted %d days ago", int(ageMinutes/(60*24)))
	}
}

func engagementDetail(raw float64) string {
	return grouped.Sprintf("%d weighted interactions", int64(raw))
}

func qualityDetail(b Breakdown) string {
	if b.RatingCount > 0 {
		return grouped.Sprintf("rated %.1f/5 across %d reviews", b.RatingAverage, b.RatingCount)
	}
	return "complete listing"
}

func trustDetail(b Breakdown) string {
	if b.Verified {
		return "verified seller"
	}
	return "established seller"
}
