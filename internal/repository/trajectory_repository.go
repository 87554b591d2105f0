package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
)

var (
	// ErrUnknownField is returned for a constraint or projection naming a
	// field that is neither a column nor a derived value.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidConstraint is returned for a malformed constraint.
	ErrInvalidConstraint = errors.New("invalid constraint")
	// ErrNotFound is returned when the addressed trajectory does not exist.
	ErrNotFound = errors.New("not found")
)

// TrajectoryRepository handles database operations for trajectories and
// their entries.
type TrajectoryRepository struct {
	db *sql.DB

	mu      sync.Mutex
	columns map[string][]string
}

// NewTrajectoryRepository creates a new trajectory repository
func NewTrajectoryRepository(db *sql.DB) *TrajectoryRepository {
	return &TrajectoryRepository{db: db, columns: make(map[string][]string)}
}

// tableColumns lists a table's columns in declaration order. The result is
// the whitelist every identifier in generated SQL is checked against.
func (r *TrajectoryRepository) tableColumns(ctx context.Context, table string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cols, ok := r.columns[table]; ok {
		return cols, nil
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.columns[table] = cols
	return cols, nil
}

// SelectTrajectories returns the trajectories of targetBody matching every
// constraint, projected onto fields. Column constraints run in SQL;
// constraints on derived values are checked after derivation.
func (r *TrajectoryRepository) SelectTrajectories(ctx context.Context, targetBody int, constraints []models.Constraint, fields []string) ([]models.Record, error) {
	cols, err := r.tableColumns(ctx, "trajectories")
	if err != nil {
		return nil, err
	}
	known := setOf(cols)

	projection, derivedWanted, err := project(cols, known, trajectoryDerived, filter.NamespaceTrajectory, fields)
	if err != nil {
		return nil, err
	}

	conditions := []string{`"target_body" = ?`}
	args := []interface{}{targetBody}
	var post []models.Constraint

	for _, c := range constraints {
		if _, ok := trajectoryDerived[c.FieldName]; ok {
			if err := checkConstraint(c); err != nil {
				return nil, err
			}
			post = append(post, c)
			derivedWanted = appendUnique(derivedWanted, c.FieldName)
			for _, in := range trajectoryDerived[c.FieldName].inputs {
				projection = appendUnique(projection, in)
			}
			continue
		}
		if !known[c.FieldName] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, c.FieldName)
		}
		clause, clauseArgs, err := constraintSQL(c)
		if err != nil {
			return nil, err
		}
		if clause == "" {
			continue
		}
		conditions = append(conditions, clause)
		args = append(args, clauseArgs...)
	}

	query := fmt.Sprintf(`SELECT %s FROM "trajectories" WHERE %s ORDER BY "id"`,
		quoteAll(projection), strings.Join(conditions, " AND "))

	records, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trajectories: %w", err)
	}

	requested := requestedSet(fields, filter.NamespaceTrajectory)
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		derive(rec, trajectoryDerived, derivedWanted)
		if !matchesAll(rec, post) {
			continue
		}
		if requested != nil {
			trim(rec, requested)
		}
		out = append(out, rec)
	}
	return out, nil
}

// EntriesOf returns every entry of a trajectory with derived fields filled.
func (r *TrajectoryRepository) EntriesOf(ctx context.Context, trajectoryID int64) ([]models.Record, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "trajectories" WHERE "id" = ?`, trajectoryID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up trajectory %d: %w", trajectoryID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("trajectory %d: %w", trajectoryID, ErrNotFound)
	}

	records, err := r.queryRecords(ctx, `SELECT * FROM "entries" WHERE "trajectory_id" = ? ORDER BY "id"`, trajectoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	for _, rec := range records {
		derive(rec, entryDerived, derivedNames(entryDerived))
		fillLatLng(rec)
	}
	return records, nil
}

// EntryTrack is what an arc is drawn from.
type EntryTrack struct {
	ID        int64
	Latitude  float64
	Longitude float64
	Heading   float64
}

// EntryTracks loads the entries in ids that belong to trajectories of
// targetBody. Entries without a resolvable position are skipped.
func (r *TrajectoryRepository) EntryTracks(ctx context.Context, targetBody int, ids []int64) ([]EntryTrack, error) {
	if len(ids) == 0 {
		return []EntryTrack{}, nil
	}

	placeholders := make([]string, len(ids))
	args := []interface{}{targetBody}
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT e."id", e."latitude", e."longitude", e."pos_x", e."pos_y", e."pos_z", e."heading"
		FROM "entries" e JOIN "trajectories" t ON t."id" = e."trajectory_id"
		WHERE t."target_body" = ? AND e."id" IN (%s)
		ORDER BY e."id"`, strings.Join(placeholders, ", "))

	records, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry tracks: %w", err)
	}

	tracks := make([]EntryTrack, 0, len(records))
	for _, rec := range records {
		fillLatLng(rec)
		id, okID := rec.ID()
		lat, okLat := rec.Number("latitude")
		lon, okLon := rec.Number("longitude")
		if !okID || !okLat || !okLon {
			continue
		}
		heading, _ := rec.Number("heading")
		tracks = append(tracks, EntryTrack{ID: id, Latitude: lat, Longitude: lon, Heading: heading})
	}
	return tracks, nil
}

func (r *TrajectoryRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []models.Record
	for rows.Next() {
		values := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(models.Record, len(names))
		for i, name := range names {
			switch v := values[i].(type) {
			case nil:
				continue
			case []byte:
				rec[name] = string(v)
			default:
				rec[name] = v
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// project resolves requested namespaced fields to the columns to select and
// the derived values to compute. An empty request selects everything.
func project(cols []string, known map[string]bool, derived map[string]derivedField, ns filter.Namespace, fields []string) ([]string, []string, error) {
	var wanted []string
	for _, f := range fields {
		if filter.NamespaceOf(f) != ns {
			continue
		}
		wanted = appendUnique(wanted, filter.StripNamespace(f))
	}
	if len(wanted) == 0 {
		return append([]string(nil), cols...), derivedNames(derived), nil
	}

	projection := []string{"id"}
	var derivedWanted []string
	for _, name := range wanted {
		if d, ok := derived[name]; ok {
			derivedWanted = appendUnique(derivedWanted, name)
			for _, in := range d.inputs {
				projection = appendUnique(projection, in)
			}
			continue
		}
		if !known[name] {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		projection = appendUnique(projection, name)
	}
	return projection, derivedWanted, nil
}

// requestedSet is nil when every field was requested.
func requestedSet(fields []string, ns filter.Namespace) map[string]bool {
	var set map[string]bool
	for _, f := range fields {
		if filter.NamespaceOf(f) != ns {
			continue
		}
		if set == nil {
			set = map[string]bool{"id": true}
		}
		set[filter.StripNamespace(f)] = true
	}
	return set
}

func trim(rec models.Record, keep map[string]bool) {
	for k := range rec {
		if !keep[k] {
			delete(rec, k)
		}
	}
}

func derivedNames(derived map[string]derivedField) []string {
	names := make([]string, 0, len(derived))
	for name := range derived {
		names = append(names, name)
	}
	return names
}

func setOf(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + strings.ReplaceAll(n, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ", ")
}
