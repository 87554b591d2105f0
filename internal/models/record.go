package models

import (
	"strconv"
)

// Record is a flat trajectory or entry row as decoded from the backend.
// Records are treated as immutable once fetched.
type Record map[string]any

// ID returns the record's "id" field.
func (r Record) ID() (int64, bool) {
	v, ok := r.Number("id")
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// Number returns field as a float64. JSON numbers, Go numeric types and
// numeric strings are accepted.
func (r Record) Number(field string) (float64, bool) {
	return ToNumber(r[field])
}

// ToNumber converts a decoded JSON value to float64.
func ToNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// IDs collects the ids of records, skipping records without one.
func IDs(records []Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		if id, ok := r.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
