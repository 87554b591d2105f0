package colorscale

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// spectralStops is the 11-class ColorBrewer Spectral scheme.
var spectralStops = mustParse(
	"#9e0142", "#d53e4f", "#f46d43", "#fdae61", "#fee08b", "#ffffbf",
	"#e6f598", "#abdda4", "#66c2a5", "#3288bd", "#5e4fa2",
)

func mustParse(hexes ...string) []colorful.Color {
	out := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// Spectral interpolates the Spectral scheme at t in [0, 1] with a uniform
// cubic B-spline through the stops, per RGB channel.
func Spectral(t float64) colorful.Color {
	r := make([]float64, len(spectralStops))
	g := make([]float64, len(spectralStops))
	b := make([]float64, len(spectralStops))
	for i, c := range spectralStops {
		r[i], g[i], b[i] = c.R, c.G, c.B
	}
	return colorful.Color{R: basisSpline(r, t), G: basisSpline(g, t), B: basisSpline(b, t)}.Clamped()
}

func basisSpline(values []float64, t float64) float64 {
	n := len(values) - 1
	var i int
	switch {
	case t <= 0 || math.IsNaN(t):
		t, i = 0, 0
	case t >= 1:
		t, i = 1, n-1
	default:
		i = int(math.Floor(t * float64(n)))
	}
	v1, v2 := values[i], values[i+1]
	v0 := 2*v1 - v2
	if i > 0 {
		v0 = values[i-1]
	}
	v3 := 2*v2 - v1
	if i < n-1 {
		v3 = values[i+2]
	}
	return basis((t-float64(i)/float64(n))*float64(n), v0, v1, v2, v3)
}

func basis(t1, v0, v1, v2, v3 float64) float64 {
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 +
		(4-6*t2+3*t3)*v1 +
		(1+3*t1+3*t2-3*t3)*v2 +
		t3*v3) / 6
}
