package repository

import (
	"fmt"
	"strings"

	"github.com/jengzang/trajectory-explorer/internal/models"
)

// constraintSQL renders one column constraint. An empty clause means the
// constraint carries nothing to filter on.
func constraintSQL(c models.Constraint) (string, []interface{}, error) {
	if err := checkConstraint(c); err != nil {
		return "", nil, err
	}
	col := quoteAll([]string{c.FieldName})

	switch c.Category {
	case models.CategorySlider:
		var conditions []string
		var args []interface{}
		if c.Lower != nil {
			conditions = append(conditions, col+" >= ?")
			args = append(args, *c.Lower)
		}
		if c.Upper != nil {
			conditions = append(conditions, col+" <= ?")
			args = append(args, *c.Upper)
		}
		return strings.Join(conditions, " AND "), args, nil

	default:
		switch v := c.Value.(type) {
		case nil:
			return "", nil, nil
		case []interface{}:
			if len(v) == 0 {
				return "", nil, nil
			}
			placeholders := make([]string, len(v))
			for i := range v {
				placeholders[i] = "?"
			}
			return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), v, nil
		default:
			return col + " = ?", []interface{}{v}, nil
		}
	}
}

func checkConstraint(c models.Constraint) error {
	switch c.Category {
	case models.CategorySlider:
		if c.Lower != nil && c.Upper != nil && *c.Lower > *c.Upper {
			return fmt.Errorf("%w: %s lower bound above upper bound", ErrInvalidConstraint, c.FieldName)
		}
	case models.CategoryValue:
		if _, isMap := c.Value.(map[string]interface{}); isMap {
			return fmt.Errorf("%w: %s value must be a scalar or a list", ErrInvalidConstraint, c.FieldName)
		}
	default:
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidConstraint, c.FieldName, c.Category)
	}
	return nil
}

// matchesAll applies constraints on derived values in memory.
func matchesAll(rec models.Record, constraints []models.Constraint) bool {
	for _, c := range constraints {
		if !matches(rec, c) {
			return false
		}
	}
	return true
}

func matches(rec models.Record, c models.Constraint) bool {
	v, ok := rec.Number(c.FieldName)
	switch c.Category {
	case models.CategorySlider:
		if c.Lower == nil && c.Upper == nil {
			return true
		}
		if !ok {
			return false
		}
		if c.Lower != nil && v < *c.Lower {
			return false
		}
		if c.Upper != nil && v > *c.Upper {
			return false
		}
		return true
	default:
		var candidates []interface{}
		switch val := c.Value.(type) {
		case nil:
			return true
		case []interface{}:
			if len(val) == 0 {
				return true
			}
			candidates = val
		default:
			candidates = []interface{}{val}
		}
		if !ok {
			return false
		}
		for _, cand := range candidates {
			if n, isNum := models.ToNumber(cand); isNum && n == v {
				return true
			}
		}
		return false
	}
}
