package colorscale

import (
	"strconv"
	"strings"
	"sync"
)

// optional is a number that may be unset. It replaces the -1 "unset"
// sentinel, so -1 is an ordinary selectable value.
type optional struct {
	value float64
	set   bool
}

func some(v float64) optional { return optional{value: v, set: true} }

func (o optional) get() (float64, bool) { return o.value, o.set }

// ActiveGroup is the set of externally supplied active values that snapped
// to the same bucket, in the order they were supplied.
type ActiveGroup struct {
	Bucket float64
	Values []float64
}

// Selector is the interaction state of one colour-scale widget. It is IDLE
// until a pointer-down records an anchor, then DRAGGING until pointer-up.
// All pointer coordinates are domain values and are snapped to buckets.
type Selector struct {
	mu       sync.Mutex
	scale    Scale
	dragging bool
	anchor   float64
	min      optional
	max      optional
	hover    optional
	active   []ActiveGroup
	onSelect func(lower, upper float64, ok bool)
}

// NewSelector returns an idle selector over scale with nothing selected.
func NewSelector(scale Scale) *Selector {
	return &Selector{scale: scale}
}

// Scale returns the selector's scale.
func (s *Selector) Scale() Scale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// SetScale replaces the domain. A new domain invalidates the range, hover
// and drag state; active values are re-snapped.
func (s *Selector) SetScale(scale Scale) {
	s.mu.Lock()
	s.scale = scale
	s.dragging = false
	s.min, s.max, s.hover = optional{}, optional{}, optional{}
	values := s.activeValuesLocked()
	s.active = s.group(values)
	s.mu.Unlock()
}

// OnSelect registers fn to run whenever a drag is finalized or the
// selection is cleared.
func (s *Selector) OnSelect(fn func(lower, upper float64, ok bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelect = fn
}

// Dragging reports whether a drag is in progress.
func (s *Selector) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// PointerDown starts a drag at v's bucket with a zero-width range.
func (s *Selector) PointerDown(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.scale.Snap(v)
	s.dragging = true
	s.anchor = b
	s.min, s.max = some(b), some(b)
}

// PointerEnter updates the live range while dragging and the hover value
// otherwise.
func (s *Selector) PointerEnter(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.scale.Snap(v)
	s.hover = some(b)
	if s.dragging {
		s.extendLocked(b)
	}
}

// PointerLeave clears the hover value.
func (s *Selector) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hover = optional{}
}

// PointerUp finalizes the drag from the anchor to v's bucket. Pointer-up
// without a preceding pointer-down is ignored.
func (s *Selector) PointerUp(v float64) {
	s.mu.Lock()
	if !s.dragging {
		s.mu.Unlock()
		return
	}
	s.extendLocked(s.scale.Snap(v))
	s.dragging = false
	lower, upper := s.min.value, s.max.value
	fn := s.onSelect
	s.mu.Unlock()

	if fn != nil {
		fn(lower, upper, true)
	}
}

func (s *Selector) extendLocked(b float64) {
	lo, hi := s.anchor, b
	if hi < lo {
		lo, hi = hi, lo
	}
	s.min, s.max = some(lo), some(hi)
}

// DoubleClick clears the range and hover. It does not touch the drag state.
func (s *Selector) DoubleClick() {
	s.mu.Lock()
	s.min, s.max, s.hover = optional{}, optional{}, optional{}
	fn := s.onSelect
	s.mu.Unlock()

	if fn != nil {
		fn(0, 0, false)
	}
}

// SetSelection sets the range from outside the widget, e.g. from a filter.
func (s *Selector) SetSelection(lower, upper float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if upper < lower {
		lower, upper = upper, lower
	}
	s.min, s.max = some(lower), some(upper)
}

// MinSelected returns the lower edge of the range.
func (s *Selector) MinSelected() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min.get()
}

// MaxSelected returns the upper edge of the range.
func (s *Selector) MaxSelected() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max.get()
}

// Selection returns both edges; ok is false unless both are set.
func (s *Selector) Selection() (lower, upper float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.min.set || !s.max.set {
		return 0, 0, false
	}
	return s.min.value, s.max.value, true
}

// Markers returns the bucket positions where the range edges are drawn.
func (s *Selector) Markers() (lower, upper float64, ok bool) {
	lower, upper, ok = s.Selection()
	if !ok {
		return 0, 0, false
	}
	scale := s.Scale()
	return scale.Snap(lower), scale.Snap(upper), true
}

// Hover returns the hovered bucket.
func (s *Selector) Hover() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hover.get()
}

// Contains reports whether v falls inside the selected range. With no range
// selected nothing is excluded.
func (s *Selector) Contains(v float64) bool {
	lower, upper, ok := s.Selection()
	if !ok {
		return true
	}
	return lower <= v && v <= upper
}

// SetActiveValues replaces the highlighted values. Values that snap to the
// same bucket are grouped.
func (s *Selector) SetActiveValues(values []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = s.group(values)
}

func (s *Selector) group(values []float64) []ActiveGroup {
	var groups []ActiveGroup
	index := map[float64]int{}
	for _, v := range values {
		b := s.scale.Snap(v)
		if i, ok := index[b]; ok {
			groups[i].Values = append(groups[i].Values, v)
			continue
		}
		index[b] = len(groups)
		groups = append(groups, ActiveGroup{Bucket: b, Values: []float64{v}})
	}
	return groups
}

func (s *Selector) activeValuesLocked() []float64 {
	var values []float64
	for _, g := range s.active {
		values = append(values, g.Values...)
	}
	return values
}

// ActiveGroups returns a copy of the highlighted groups.
func (s *Selector) ActiveGroups() []ActiveGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveGroup, len(s.active))
	for i, g := range s.active {
		out[i] = ActiveGroup{Bucket: g.Bucket, Values: append([]float64(nil), g.Values...)}
	}
	return out
}

// ActiveCount returns how many active values snapped to bucket.
func (s *Selector) ActiveCount(bucket float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.active {
		if g.Bucket == bucket {
			return len(g.Values)
		}
	}
	return 0
}

// OutlineWidth scales base by the number of values collided into bucket.
func (s *Selector) OutlineWidth(bucket, base float64) float64 {
	return base * float64(s.ActiveCount(bucket))
}

// Tooltip joins the active values of bucket, formatted with format (or %g
// when nil).
func (s *Selector) Tooltip(bucket float64, format func(float64) string) string {
	if format == nil {
		format = func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.active {
		if g.Bucket != bucket {
			continue
		}
		parts := make([]string, len(g.Values))
		for i, v := range g.Values {
			parts[i] = format(v)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// ResetView drops the highlighted values. Called when a fresh search
// replaces the result set.
func (s *Selector) ResetView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}
