package filter

import "strings"

// Kind is the closed set of filter widgets. Type strings the engine does not
// recognize decode to KindUnknown, which is inert everywhere: it produces no
// query constraint, no reconciliation predicate and no error.
type Kind int

const (
	KindUnknown Kind = iota
	KindSelect
	KindMultiSelect
	KindDateRange
	KindSliderRange
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindSelect:      "select",
	KindMultiSelect: "multi-select",
	KindDateRange:   "date-range",
	KindSliderRange: "slider-range",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// IsRange reports whether values of this kind are [lower, upper] pairs.
func (k Kind) IsRange() bool {
	return k == KindDateRange || k == KindSliderRange
}

// IsScalar reports whether values of this kind are compared by equality or
// membership.
func (k Kind) IsScalar() bool {
	return k == KindSelect || k == KindMultiSelect
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText never fails: unrecognized names become KindUnknown.
func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	*k = KindUnknown
	for i, n := range kindNames {
		if n == name {
			*k = Kind(i)
			break
		}
	}
	return nil
}

// Namespace is the result collection a filter applies to.
type Namespace int

const (
	NamespaceNone Namespace = iota
	NamespaceTrajectory
	NamespaceEntry
)

// Data field prefixes.
const (
	TrajectoryPrefix = "trajectory."
	EntryPrefix      = "entry."
)

// NamespaceOf returns the namespace encoded in a data field's prefix.
func NamespaceOf(dataField string) Namespace {
	switch {
	case strings.HasPrefix(dataField, TrajectoryPrefix):
		return NamespaceTrajectory
	case strings.HasPrefix(dataField, EntryPrefix):
		return NamespaceEntry
	default:
		return NamespaceNone
	}
}

// StripNamespace removes the namespace prefix from a data field.
func StripNamespace(dataField string) string {
	if s, ok := strings.CutPrefix(dataField, TrajectoryPrefix); ok {
		return s
	}
	if s, ok := strings.CutPrefix(dataField, EntryPrefix); ok {
		return s
	}
	return dataField
}

func (n Namespace) String() string {
	switch n {
	case NamespaceTrajectory:
		return "trajectory"
	case NamespaceEntry:
		return "entry"
	default:
		return "none"
	}
}
