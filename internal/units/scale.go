package units

import "math"

// Direction selects which way Rescale converts.
type Direction int

const (
	// ToDisplay converts a stored value into display units (multiply).
	ToDisplay Direction = iota
	// ToStored converts a display value back into stored units (divide).
	ToStored
)

// Rescale multiplies (ToDisplay) or divides (ToStored) value by factor.
// A zero, NaN or infinite factor is treated as 1.
func Rescale(value, factor float64, direction Direction) float64 {
	if factor == 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return value
	}
	if direction == ToStored {
		return value / factor
	}
	return value * factor
}

// Scales maps a namespaced data field (e.g. "trajectory.relay_volume") to
// the factor between its stored and displayed units. Fields without an
// entry are unscaled.
type Scales map[string]float64

// Display converts a stored value of field into display units.
func (s Scales) Display(field string, value float64) float64 {
	return Rescale(value, s[field], ToDisplay)
}

// Stored converts a display value of field back into stored units.
func (s Scales) Stored(field string, value float64) float64 {
	return Rescale(value, s[field], ToStored)
}
