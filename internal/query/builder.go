// Package query turns the filter list into the backend's trajectory
// selection payload.
package query

import (
	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/units"
)

// IDField is always requested so results can be selected and drilled into.
const IDField = filter.TrajectoryPrefix + "id"

// Builder carries the context a query needs beyond the filter list: the
// catalog of trajectory fields to project and the unit scales that map
// displayed filter bounds back to stored units.
type Builder struct {
	// CatalogFields are namespaced trajectory field names from the
	// reference catalog.
	CatalogFields []string
	Scales        units.Scales
}

// Build is Builder{}.Build.
func Build(list filter.List, targetBody int) models.Query {
	return Builder{}.Build(list, targetBody)
}

// Build converts list into a query for targetBody. Only trajectory-namespace
// filters with a meaningful value become constraints; entry filters are
// enforced after entries are fetched.
func (b Builder) Build(list filter.List, targetBody int) models.Query {
	q := models.Query{
		TargetBody: targetBody,
		Filters:    []models.Constraint{},
		Fields:     b.fields(list),
	}
	for _, it := range list {
		if c, ok := b.constraint(it); ok {
			q.Filters = append(q.Filters, c)
		}
	}
	return q
}

func (b Builder) constraint(it filter.Item) (models.Constraint, bool) {
	if it.Namespace() != filter.NamespaceTrajectory || !it.HasValue() {
		return models.Constraint{}, false
	}
	switch {
	case it.Type.IsRange():
		lower, upper, _ := it.Range()
		lower = b.Scales.Stored(it.DataField, lower)
		upper = b.Scales.Stored(it.DataField, upper)
		return models.Constraint{
			FieldName: it.Field(),
			Category:  models.CategorySlider,
			Lower:     &lower,
			Upper:     &upper,
		}, true
	case it.Type == filter.KindMultiSelect:
		return models.Constraint{
			FieldName: it.Field(),
			Category:  models.CategoryValue,
			Value:     it.Values(),
		}, true
	case it.Type == filter.KindSelect:
		value, _ := it.Scalar()
		return models.Constraint{
			FieldName: it.Field(),
			Category:  models.CategoryValue,
			Value:     value,
		}, true
	default:
		return models.Constraint{}, false
	}
}

func (b Builder) fields(list filter.List) []string {
	seen := map[string]bool{}
	fields := []string{}
	add := func(f string) {
		if f == "" || seen[f] || filter.NamespaceOf(f) != filter.NamespaceTrajectory {
			return
		}
		seen[f] = true
		fields = append(fields, f)
	}
	add(IDField)
	for _, f := range b.CatalogFields {
		add(f)
	}
	for _, it := range list {
		add(it.DataField)
	}
	return fields
}

// CatalogFieldNames namespaces the names of a reference catalog section.
func CatalogFieldNames(prefix string, fields []models.FilterField) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if filter.NamespaceOf(f.Name) != filter.NamespaceNone {
			names = append(names, f.Name)
			continue
		}
		names = append(names, prefix+f.Name)
	}
	return names
}
