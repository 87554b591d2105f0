package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Magnitude returns |(x, y, z)|.
func Magnitude(x, y, z float64) float64 {
	return r3.Vector{X: x, Y: y, Z: z}.Norm()
}

// LatLngOf returns the planetocentric latitude and longitude in degrees of
// a body-fixed position. ok is false for the zero vector or non-finite
// components.
func LatLngOf(x, y, z float64) (lat, lon float64, ok bool) {
	v := r3.Vector{X: x, Y: y, Z: z}
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, 0, false
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: v.Normalize()})
	return ll.Lat.Degrees(), ll.Lng.Degrees(), true
}
