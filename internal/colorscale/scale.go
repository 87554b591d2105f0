// Package colorscale implements the colour-scale widget shared by the
// scatterplots: a continuous domain sampled into evenly spaced buckets,
// nearest-bucket snapping, colour mapping and the drag-to-select range.
package colorscale

import (
	"math"

	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/stats"
)

// DefaultSteps is the number of intervals the domain is divided into.
const DefaultSteps = 100

// Scale samples [Min, Max] at Steps+1 evenly spaced points.
type Scale struct {
	Min   float64
	Max   float64
	Steps int
}

// NewScale returns a scale over [min, max]. Bounds are swapped if given in
// the wrong order; steps <= 0 selects DefaultSteps.
func NewScale(min, max float64, steps int) Scale {
	if min > max {
		min, max = max, min
	}
	if steps <= 0 {
		steps = DefaultSteps
	}
	return Scale{Min: min, Max: max, Steps: steps}
}

func (s Scale) steps() int {
	if s.Steps <= 0 {
		return DefaultSteps
	}
	return s.Steps
}

// Bucket returns the i-th sample point, i in [0, Steps].
func (s Scale) Bucket(i int) float64 {
	return s.Min + (float64(i)/float64(s.steps()))*(s.Max-s.Min)
}

// Buckets returns all Steps+1 sample points in ascending order.
func (s Scale) Buckets() []float64 {
	n := s.steps()
	out := make([]float64, n+1)
	for i := range out {
		out[i] = s.Bucket(i)
	}
	return out
}

// SnapIndex returns the index of the sample point nearest to v. Ties go to
// the first point found scanning upward from Min.
func (s Scale) SnapIndex(v float64) int {
	best := 0
	bestDistance := math.Inf(1)
	for i := 0; i <= s.steps(); i++ {
		d := math.Abs(s.Bucket(i) - v)
		if d < bestDistance {
			bestDistance = d
			best = i
		}
	}
	return best
}

// Snap returns the sample point nearest to v.
func (s Scale) Snap(v float64) float64 {
	return s.Bucket(s.SnapIndex(v))
}

// Normalize maps v into [0.15, 0.95]. The palette's extreme ends are
// skipped because they wash out against the plot background. A degenerate
// domain maps everything to the middle of that band.
func (s Scale) Normalize(v float64) float64 {
	span := s.Max - s.Min
	if span == 0 || math.IsNaN(span) {
		return 0.55
	}
	t := (v - s.Min) / span
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	return t*0.8 + 0.15
}

// Color returns the hex colour for v.
func (s Scale) Color(v float64) string {
	return Spectral(s.Normalize(v)).Hex()
}

// DomainOf returns the extent of field over records, skipping records where
// the field is missing or not numeric.
func DomainOf(records []models.Record, field string) (min, max float64, ok bool) {
	return stats.Extent(fieldValues(records, field))
}

// RobustDomainOf clips the domain to the [q, 1-q] quantiles so a handful of
// outliers do not flatten the colour ramp.
func RobustDomainOf(records []models.Record, field string, q float64) (min, max float64, ok bool) {
	values := fieldValues(records, field)
	if _, _, ok := stats.Extent(values); !ok {
		return 0, 0, false
	}
	lo, hi := stats.Quantile(values, q), stats.Quantile(values, 1-q)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

func fieldValues(records []models.Record, field string) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Number(field); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	return values
}
