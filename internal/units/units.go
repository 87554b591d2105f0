// Package units converts between the representations the backend stores and
// the ones filters and views display: calendar dates versus epoch-offset
// seconds, and scaled quantities such as relay volume.
package units

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Epoch is the reference instant for all epoch-offset seconds in the
// trajectory database.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateToEpochOffset returns the whole seconds between date and base, floored.
// A zero date is not a valid date value and yields 0 (base itself).
func DateToEpochOffset(date, base time.Time) int64 {
	if date.IsZero() {
		return 0
	}
	seconds := date.Unix() - base.Unix()
	if date.Nanosecond() < base.Nanosecond() {
		seconds--
	}
	return seconds
}

// ParseDateOffset parses an RFC3339 timestamp or a YYYY-MM-DD date and
// returns its epoch offset. Unparseable text yields 0.
func ParseDateOffset(text string, base time.Time) int64 {
	text = strings.TrimSpace(text)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if date, err := time.Parse(layout, text); err == nil {
			return DateToEpochOffset(date, base)
		}
	}
	return 0
}

// maxOffset bounds offsets to what int64 seconds can hold after adding a
// Unix base.
const maxOffset = 1 << 62

// EpochOffsetToDate is the inverse of DateToEpochOffset. NaN, infinite and
// unrepresentable offsets are treated as 0.
func EpochOffsetToDate(seconds float64, base time.Time) time.Time {
	if math.IsNaN(seconds) || math.Abs(seconds) > maxOffset {
		seconds = 0
	}
	whole, frac := math.Modf(seconds)
	nanos := int64(base.Nanosecond()) + int64(math.Round(frac*1e9))
	return time.Unix(base.Unix()+int64(whole), nanos).UTC()
}

// OffsetFromValue interprets a decoded JSON value as epoch-offset seconds.
// Numbers and numeric strings convert directly; anything else is 0.
func OffsetFromValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}
