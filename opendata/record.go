// Package opendata provides clients for the French open-data endpoints the
// pipeline consumes: the paginated Opendatasoft records API and the bulk CSV
// downloads published on data.gouv.fr. All sources funnel into two
// normalized shapes, Record (API) and Row (CSV), so nothing downstream
// branches on where data came from.
package opendata

import (
	"strconv"
	"strings"
)

// Record is one normalized record from the paginated records API.
type Record struct {
	Fields map[string]any `json:"fields"`
}

// Str returns the named field as a trimmed string, or "" when absent.
func (r Record) Str(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Float returns the named field as a float64. The API is inconsistent about
// numeric typing, so string-encoded numbers (including the French decimal
// comma) are accepted.
func (r Record) Float(name string) (float64, bool) {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns the named field as an int.
func (r Record) Int(name string) (int, bool) {
	f, ok := r.Float(name)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Has reports whether the named field is present and non-nil.
func (r Record) Has(name string) bool {
	v, ok := r.Fields[name]
	return ok && v != nil
}
