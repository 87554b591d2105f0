package models

// Constraint categories sent to the backend.
const (
	CategoryValue  = "value"  // exact match (select) or membership (multi-select)
	CategorySlider = "slider" // inclusive numeric range
)

// Constraint is one server-side filter clause. FieldName has the namespace
// prefix stripped.
type Constraint struct {
	FieldName string   `json:"field_name"`
	Category  string   `json:"category"`
	Value     any      `json:"value,omitempty"`
	Lower     *float64 `json:"lower,omitempty"`
	Upper     *float64 `json:"upper,omitempty"`
}

// Query is the body of POST /visualizations/trajectory_selection/{targetBodyId}.
// TargetBody travels in the path, not the body.
type Query struct {
	TargetBody int          `json:"-"`
	Filters    []Constraint `json:"filters"`
	Fields     []string     `json:"fields"`
}

// ArcRequest is the body of POST /visualizations/entry_arcs/{targetBodyId}.
type ArcRequest struct {
	EntryIDs []int64 `json:"entry_ids"`
}

// FilterField describes one queryable field in the reference catalog.
type FilterField struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Units   string   `json:"units,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Options []any    `json:"options,omitempty"`
}

// FilterCatalog is the response of GET /filters.
type FilterCatalog struct {
	TrajectoryFilters []FilterField `json:"TrajectoryFilters"`
	EntryFilters      []FilterField `json:"EntryFilters"`
}
