// Package reconcile re-applies the active filters to records returned by
// the backend. The client is the source of truth for whether a row matches:
// a record the backend returns but the filters reject is dropped.
package reconcile

import (
	"reflect"

	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/units"
)

// Trajectories keeps the records matching every trajectory-namespace filter.
func Trajectories(records []models.Record, list filter.List, scales units.Scales) []models.Record {
	return Filter(records, list, filter.NamespaceTrajectory, scales)
}

// Entries keeps the records matching every entry-namespace filter.
func Entries(records []models.Record, list filter.List, scales units.Scales) []models.Record {
	return Filter(records, list, filter.NamespaceEntry, scales)
}

// Filter returns a new slice holding the records that match all filters of
// namespace ns. The input slice is not modified. The result is never nil so
// an empty match is distinguishable from "not fetched".
func Filter(records []models.Record, list filter.List, ns filter.Namespace, scales units.Scales) []models.Record {
	active := activeFilters(list, ns)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if matchesAll(r, active, scales) {
			out = append(out, r)
		}
	}
	return out
}

func activeFilters(list filter.List, ns filter.Namespace) filter.List {
	var active filter.List
	for _, it := range list.InNamespace(ns) {
		if it.HasValue() {
			active = append(active, it)
		}
	}
	return active
}

func matchesAll(r models.Record, active filter.List, scales units.Scales) bool {
	for _, it := range active {
		if !matches(r, it, scales) {
			return false
		}
	}
	return true
}

func matches(r models.Record, it filter.Item, scales units.Scales) bool {
	value, present := lookup(r, it)
	switch {
	case it.Type.IsRange():
		v, ok := models.ToNumber(value)
		if !present || !ok {
			return false
		}
		lower, upper, _ := it.Range()
		lower = scales.Stored(it.DataField, lower)
		upper = scales.Stored(it.DataField, upper)
		return lower <= v && v <= upper
	case it.Type == filter.KindMultiSelect, it.Type == filter.KindSelect:
		if !present {
			return false
		}
		for _, want := range it.Values() {
			if equal(value, want) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// lookup finds a filter's field in a record. Records are keyed by bare
// column name; a namespaced key is accepted as well.
func lookup(r models.Record, it filter.Item) (any, bool) {
	if v, ok := r[it.Field()]; ok {
		return v, true
	}
	v, ok := r[it.DataField]
	return v, ok
}

// equal compares numbers numerically and everything else exactly.
func equal(a, b any) bool {
	fa, okA := number(a)
	fb, okB := number(b)
	if okA && okB {
		return fa == fb
	}
	if okA != okB {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	return models.ToNumber(v)
}

// ContainsID reports whether records holds a record with the given id.
func ContainsID(records []models.Record, id int64) bool {
	for _, r := range records {
		if rid, ok := r.ID(); ok && rid == id {
			return true
		}
	}
	return false
}
