package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/stats"
)

var sectionTables = map[string]string{
	"trajectory": "trajectories",
	"entry":      "entries",
}

var sectionDerived = map[string]map[string]derivedField{
	"trajectory": trajectoryDerived,
	"entry":      entryDerived,
}

// FilterCatalog returns the queryable fields with bounds and options taken
// from the stored data.
func (r *TrajectoryRepository) FilterCatalog(ctx context.Context) (models.FilterCatalog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT section, name, label, type, units
		FROM filter_fields ORDER BY section, position, name`)
	if err != nil {
		return models.FilterCatalog{}, fmt.Errorf("failed to query filter fields: %w", err)
	}

	type row struct {
		section string
		field   models.FilterField
	}
	var fields []row
	for rows.Next() {
		var rw row
		var units sql.NullString
		if err := rows.Scan(&rw.section, &rw.field.Name, &rw.field.Label, &rw.field.Type, &units); err != nil {
			rows.Close()
			return models.FilterCatalog{}, fmt.Errorf("failed to scan filter field: %w", err)
		}
		rw.field.Units = units.String
		fields = append(fields, rw)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.FilterCatalog{}, err
	}

	catalog := models.FilterCatalog{
		TrajectoryFilters: []models.FilterField{},
		EntryFilters:      []models.FilterField{},
	}
	for _, rw := range fields {
		f, err := r.describe(ctx, rw.section, rw.field)
		if err != nil {
			return models.FilterCatalog{}, err
		}
		if rw.section == "trajectory" {
			catalog.TrajectoryFilters = append(catalog.TrajectoryFilters, f)
		} else {
			catalog.EntryFilters = append(catalog.EntryFilters, f)
		}
	}
	return catalog, nil
}

// describe fills bounds for range fields and options for select fields.
func (r *TrajectoryRepository) describe(ctx context.Context, section string, f models.FilterField) (models.FilterField, error) {
	table := sectionTables[section]
	var kind filter.Kind
	if err := kind.UnmarshalText([]byte(f.Type)); err != nil {
		return f, err
	}

	if d, ok := sectionDerived[section][f.Name]; ok {
		if !kind.IsRange() {
			return f, nil
		}
		records, err := r.queryRecords(ctx, fmt.Sprintf(`SELECT %s FROM %s`, quoteAll(d.inputs), quoteAll([]string{table})))
		if err != nil {
			return f, fmt.Errorf("failed to derive bounds of %s: %w", f.Name, err)
		}
		values := make([]float64, 0, len(records))
		for _, rec := range records {
			if v, ok := d.compute(rec); ok {
				values = append(values, v)
			}
		}
		if lo, hi, ok := stats.Extent(values); ok {
			f.Min, f.Max = &lo, &hi
		}
		return f, nil
	}

	cols, err := r.tableColumns(ctx, table)
	if err != nil {
		return f, err
	}
	if !setOf(cols)[f.Name] {
		return f, fmt.Errorf("%w: catalog names %s.%s", ErrUnknownField, section, f.Name)
	}
	col := quoteAll([]string{f.Name})

	switch {
	case kind.IsRange():
		var lo, hi sql.NullFloat64
		query := fmt.Sprintf(`SELECT MIN(%s), MAX(%s) FROM %s`, col, col, quoteAll([]string{table}))
		if err := r.db.QueryRowContext(ctx, query).Scan(&lo, &hi); err != nil {
			return f, fmt.Errorf("failed to query bounds of %s: %w", f.Name, err)
		}
		if lo.Valid && hi.Valid {
			f.Min, f.Max = &lo.Float64, &hi.Float64
		}
	case kind.IsScalar():
		query := fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s`,
			col, quoteAll([]string{table}), col, col)
		records, err := r.queryRecords(ctx, query)
		if err != nil {
			return f, fmt.Errorf("failed to query options of %s: %w", f.Name, err)
		}
		f.Options = make([]any, 0, len(records))
		for _, rec := range records {
			f.Options = append(f.Options, rec[f.Name])
		}
	}
	return f, nil
}
