// Package normalizer validates raw rows and converts them into billing records.
// Validation is all-or-nothing: the first bad row fails the whole batch.
package normalizer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/parser"
)

var (
	ErrMissingField   = errors.New("missing field")
	ErrInvalidNumeric = errors.New("invalid numeric value")
)

// maxSuggestionDistance bounds how far a present header may be from a missing
// one to be offered as a suggestion.
const maxSuggestionDistance = 2

// MissingFieldError reports a required header absent from a row.
type MissingFieldError struct {
	Field      string
	Row        int
	Suggestion string
}

func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("row %d: missing field %s", e.Row, e.Field)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (found %q)", e.Suggestion)
	}
	return msg
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// InvalidNumericError reports a numeric field that is not a finite number.
type InvalidNumericError struct {
	Field string
	Row   int
	Value string
}

func (e *InvalidNumericError) Error() string {
	return fmt.Sprintf("row %d, field %s: %q is not a number", e.Row, e.Field, e.Value)
}

func (e *InvalidNumericError) Unwrap() error {
	return ErrInvalidNumeric
}

// Normalize converts rows in order. On error the returned slice is nil.
func Normalize(rows []parser.RawRow) ([]billing.ServiceRecord, error) {
	records := make([]billing.ServiceRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := NormalizeRow(row, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// NormalizeRow validates a single row. rowNum is only used in errors.
func NormalizeRow(row parser.RawRow, rowNum int) (billing.ServiceRecord, error) {
	for _, field := range billing.RequiredFields {
		if _, ok := row.Get(field); !ok {
			return billing.ServiceRecord{}, &MissingFieldError{
				Field:      field,
				Row:        rowNum,
				Suggestion: suggest(field, row.Keys()),
			}
		}
	}

	n := numericReader{row: row, rowNum: rowNum}
	rec := billing.ServiceRecord{
		RecordNumber:    n.integer(billing.FieldRecordNumber),
		Year:            n.integer(billing.FieldYear),
		Month:           n.integer(billing.FieldMonth),
		ServiceCount:    n.number(billing.FieldServiceCount),
		UnitPrice:       n.number(billing.FieldUnitPrice),
		CoveragePercent: n.number(billing.FieldCoveragePercent),
	}
	if n.err != nil {
		return billing.ServiceRecord{}, n.err
	}

	insurer, _ := row.Get(billing.FieldInsurerName)
	region, _ := row.Get(billing.FieldRegion)
	rec.InsurerName = strings.TrimSpace(insurer)
	rec.Region = strings.TrimSpace(region)

	return rec, nil
}

// Decimal exponents (of the leading digit) a float64 can hold. Larger values
// overflow to infinity, smaller ones underflow to zero.
const (
	maxAdjustedExponent = 308
	minAdjustedExponent = -324
)

var maxFinite = decimal.NewFromFloat(math.MaxFloat64)

// ParseNumber parses a decimal literal. Surrounding whitespace is ignored,
// an empty value is zero and a single leading '+' is accepted. Hex,
// infinities, NaN and literals beyond the float64 range are rejected;
// literals below it read as zero.
func ParseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
		if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
			return decimal.Zero, fmt.Errorf("invalid sign in %q", s)
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}

	// Checked on the exponent before any arithmetic: rescaling a literal
	// like 1e50000000 builds a big.Int with that many digits.
	adjusted := int64(d.Exponent()) + int64(d.NumDigits()) - 1
	switch {
	case adjusted > maxAdjustedExponent:
		return decimal.Zero, fmt.Errorf("%q is not a finite number", s)
	case adjusted == maxAdjustedExponent && d.Abs().GreaterThan(maxFinite):
		return decimal.Zero, fmt.Errorf("%q is not a finite number", s)
	case adjusted < minAdjustedExponent:
		return decimal.Zero, nil
	}
	return d, nil
}

// numericReader keeps the first conversion error so fields can be read in a
// single expression.
type numericReader struct {
	row    parser.RawRow
	rowNum int
	err    error
}

func (n *numericReader) number(field string) decimal.Decimal {
	if n.err != nil {
		return decimal.Zero
	}
	raw, _ := n.row.Get(field)
	d, err := ParseNumber(raw)
	if err != nil {
		n.err = &InvalidNumericError{Field: field, Row: n.rowNum, Value: raw}
		return decimal.Zero
	}
	return d
}

func (n *numericReader) integer(field string) int {
	d := n.number(field)
	if n.err != nil {
		return 0
	}
	i := d.IntPart()
	if !d.IsInteger() || !decimal.NewFromInt(i).Equal(d) {
		raw, _ := n.row.Get(field)
		n.err = &InvalidNumericError{Field: field, Row: n.rowNum, Value: raw}
		return 0
	}
	return int(i)
}

// suggest returns the present key closest to the missing field, if any is
// close enough. Keys that are themselves required fields are skipped.
func suggest(field string, keys []string) string {
	target := strings.ToLower(field)
	best, bestDist := "", maxSuggestionDistance+1
	for _, key := range keys {
		if isRequired(key) {
			continue
		}
		dist := fuzzy.LevenshteinDistance(strings.ToLower(strings.TrimSpace(key)), target)
		if dist < bestDist {
			best, bestDist = key, dist
		}
	}
	return best
}

func isRequired(key string) bool {
	for _, f := range billing.RequiredFields {
		if f == key {
			return true
		}
	}
	return false
}
