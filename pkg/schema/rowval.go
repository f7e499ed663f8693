package schema

import (
	"strconv"
	"strings"
	"time"
)

// Float reads a row value as float64. Strings are comma-stripped before
// parsing; anything unparseable is 0.
func Float(row Row, col string) float64 {
	switch v := row[col].(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Int reads a row value as int, via Float for string forms.
func Int(row Row, col string) int {
	return int(Float(row, col))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time reads a row value as time.Time; the zero time means absent or
// unparseable.
func Time(row Row, col string) time.Time {
	switch v := row[col].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v == nil {
			return time.Time{}
		}
		return *v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
