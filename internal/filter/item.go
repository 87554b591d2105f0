// Package filter holds the user-defined filter list: the item types, their
// value accessors, and the clamping rules applied when a range is edited.
package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/units"
)

// Item is one filter. Value holds decoded JSON: a scalar for select, a list
// for multi-select and a two-number list for the range kinds. Date ranges
// are stored as epoch-offset seconds.
type Item struct {
	ID           int      `json:"id"`
	Label        string   `json:"label"`
	DataField    string   `json:"dataField"`
	Type         Kind     `json:"type"`
	Options      []any    `json:"options,omitempty"`
	Value        any      `json:"value,omitempty"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	Units        string   `json:"units,omitempty"`
	Step         *float64 `json:"step,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Hidden       bool     `json:"hidden"`
}

// Namespace returns the collection the filter applies to.
func (it Item) Namespace() Namespace {
	return NamespaceOf(it.DataField)
}

// Field returns the data field without its namespace prefix.
func (it Item) Field() string {
	return StripNamespace(it.DataField)
}

// Range returns the [lower, upper] value of a range filter.
func (it Item) Range() (lower, upper float64, ok bool) {
	return rangeOf(it.Value)
}

func rangeOf(value any) (lower, upper float64, ok bool) {
	switch v := value.(type) {
	case []float64:
		if len(v) != 2 {
			return 0, 0, false
		}
		lower, upper = v[0], v[1]
	case [2]float64:
		lower, upper = v[0], v[1]
	case []any:
		if len(v) != 2 {
			return 0, 0, false
		}
		var okLower, okUpper bool
		lower, okLower = models.ToNumber(v[0])
		upper, okUpper = models.ToNumber(v[1])
		if !okLower || !okUpper {
			return 0, 0, false
		}
	default:
		return 0, 0, false
	}
	if !finite(lower) || !finite(upper) {
		return 0, 0, false
	}
	return lower, upper, true
}

// Values returns the value as a list. A scalar becomes a one-element list;
// nil becomes an empty list.
func (it Item) Values() []any {
	switch v := it.Value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out
	default:
		return []any{v}
	}
}

// Scalar returns a select filter's single value. A one-element list is
// unwrapped; nil and an empty list report ok false.
func (it Item) Scalar() (any, bool) {
	values := it.Values()
	switch len(values) {
	case 0:
		return nil, false
	case 1:
		return values[0], true
	default:
		return values, true
	}
}

// HasValue reports whether the filter currently constrains anything. A nil
// value, an empty list and a malformed range all mean "no constraint".
func (it Item) HasValue() bool {
	switch {
	case it.Type.IsRange():
		_, _, ok := it.Range()
		return ok
	case it.Type.IsScalar():
		return len(it.Values()) > 0
	default:
		return false
	}
}

func (it Item) bounds() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if it.Min != nil {
		lo = *it.Min
	}
	if it.Max != nil {
		hi = *it.Max
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SetRange stores [lower, upper] clamped into [Min, Max]. If lower exceeds
// upper after clamping, lower is pulled down to upper.
func (it *Item) SetRange(lower, upper float64) {
	if !finite(lower) || !finite(upper) {
		return
	}
	lo, hi := it.bounds()
	lower = clamp(lower, lo, hi)
	upper = clamp(upper, lo, hi)
	if lower > upper {
		lower = upper
	}
	it.Value = []float64{lower, upper}
}

// SetLower edits only the lower edge. The result is clamped into bounds and
// never exceeds the current upper edge. Without a current range the upper
// edge starts at Max, or at v when there is no Max. Non-finite input is
// ignored.
func (it *Item) SetLower(v float64) {
	if !finite(v) {
		return
	}
	_, upper, ok := it.Range()
	switch {
	case ok:
	case it.Max != nil:
		upper = *it.Max
	default:
		upper = v
	}
	lo, hi := it.bounds()
	v = clamp(v, lo, hi)
	upper = clamp(upper, lo, hi)
	if v > upper {
		v = upper
	}
	it.Value = []float64{v, upper}
}

// SetUpper edits only the upper edge. The result is clamped into bounds and
// never falls below the current lower edge. Without a current range the
// lower edge starts at Min, or at v when there is no Min. Non-finite input
// is ignored.
func (it *Item) SetUpper(v float64) {
	if !finite(v) {
		return
	}
	lower, _, ok := it.Range()
	switch {
	case ok:
	case it.Min != nil:
		lower = *it.Min
	default:
		lower = v
	}
	lo, hi := it.bounds()
	v = clamp(v, lo, hi)
	lower = clamp(lower, lo, hi)
	if v < lower {
		v = lower
	}
	it.Value = []float64{lower, v}
}

// CommitRangeText applies the text typed into a range filter's boundary
// boxes. Text that is not a number is flagged (valid is false) and replaced
// by the corresponding bound before clamping, so the committed value is
// always a consistent range.
func (it *Item) CommitRangeText(lowerText, upperText string) (valid bool) {
	valid = true
	curLower, curUpper, hasRange := it.Range()
	lo, hi := it.bounds()

	lower, err := parseBound(lowerText)
	if err != nil {
		valid = false
		switch {
		case it.Min != nil:
			lower = *it.Min
		case hasRange:
			lower = curLower
		default:
			lower = 0
		}
	}
	upper, err := parseBound(upperText)
	if err != nil {
		valid = false
		switch {
		case it.Max != nil:
			upper = *it.Max
		case hasRange:
			upper = curUpper
		default:
			upper = lower
		}
	}

	lower = clamp(lower, lo, hi)
	upper = clamp(upper, lo, hi)
	if lower > upper {
		lower = upper
	}
	it.Value = []float64{lower, upper}
	return valid
}

func parseBound(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bound %q is not finite", text)
	}
	return v, nil
}

// SetDateRange stores a date-range value as epoch-offset seconds.
func (it *Item) SetDateRange(from, to time.Time) {
	it.SetRange(
		float64(units.DateToEpochOffset(from, units.Epoch)),
		float64(units.DateToEpochOffset(to, units.Epoch)),
	)
}

// DateRange returns a date-range value as calendar dates.
func (it Item) DateRange() (from, to time.Time, ok bool) {
	lower, upper, ok := it.Range()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return units.EpochOffsetToDate(lower, units.Epoch), units.EpochOffsetToDate(upper, units.Epoch), true
}

// Reset restores the default value.
func (it *Item) Reset() {
	it.Value = cloneValue(it.DefaultValue)
}

// Clone returns a copy that shares no slices with it.
func (it Item) Clone() Item {
	out := it
	out.Value = cloneValue(it.Value)
	out.DefaultValue = cloneValue(it.DefaultValue)
	if it.Options != nil {
		out.Options = append([]any(nil), it.Options...)
	}
	out.Step = cloneFloat(it.Step)
	out.Min = cloneFloat(it.Min)
	out.Max = cloneFloat(it.Max)
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		return append([]any(nil), v...)
	case []float64:
		return append([]float64(nil), v...)
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Validation errors.
var (
	ErrNoDataField      = errors.New("filter has no data field")
	ErrUnknownNamespace = errors.New("data field has no trajectory. or entry. prefix")
	ErrInvertedBounds   = errors.New("min is greater than max")
)

// Validate reports structural problems. Unknown kinds are not an error:
// they are kept and ignored.
func (it Item) Validate() error {
	var errs []error
	if it.DataField == "" {
		errs = append(errs, ErrNoDataField)
	} else if it.Namespace() == NamespaceNone {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownNamespace, it.DataField))
	}
	if it.Min != nil && it.Max != nil && *it.Min > *it.Max {
		errs = append(errs, ErrInvertedBounds)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("filter %d (%s): %w", it.ID, it.Label, err)
	}
	return nil
}
