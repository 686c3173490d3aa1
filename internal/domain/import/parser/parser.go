// Package parser turns raw CSV or JSON text into loosely typed rows.
// Rows are strings only; typing happens in the normalizer.
package parser

import (
	"errors"
	"fmt"

	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
)

// ErrMalformedJSON is returned for text that is not valid JSON. The
// underlying decoder error is deliberately not exposed.
var ErrMalformedJSON = errors.New("could not parse the JSON file")

// RawRow maps header names to raw values in source order.
type RawRow struct {
	keys   []string
	values map[string]string
}

// NewRawRow creates an empty row with room for n fields.
func NewRawRow(n int) RawRow {
	return RawRow{
		keys:   make([]string, 0, n),
		values: make(map[string]string, n),
	}
}

// Set stores a value. A repeated key keeps its first position and takes the
// new value.
func (r *RawRow) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether the key is present.
func (r RawRow) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the header names in source order.
func (r RawRow) Keys() []string {
	return r.keys
}

// Len returns the number of fields.
func (r RawRow) Len() int {
	return len(r.keys)
}

// Parse dispatches on format.
func Parse(format source.Format, text string) ([]RawRow, error) {
	switch format {
	case source.FormatCSV:
		return ParseCSV(text), nil
	case source.FormatJSON:
		return ParseJSON(text)
	}
	return nil, fmt.Errorf("%w: %q", source.ErrUnsupportedFormat, format)
}
