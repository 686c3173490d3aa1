// Package money formats report amounts as currency. Amounts are kept as
// decimals everywhere else; conversion to minor units happens only here,
// for display.
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes (ISO-4217) used by the reports.
const (
	ARS = "ARS" // Argentine Peso
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
)

// DefaultCurrency is used when a configured code is unknown.
const DefaultCurrency = ARS

// Money is a rounded monetary value with currency. Amounts whose minor units
// overflow int64 are kept in large and formatted without go-money.
type Money struct {
	m     *money.Money
	large *decimal.Decimal
}

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// New creates Money from minor units.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, normalize(currencyCode))}
}

// NewFromDecimal rounds amount half away from zero to the currency's minor
// unit.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	code := normalize(currencyCode)
	currency := money.GetCurrency(code)

	fraction := int32(currency.Fraction)
	minor := amount.Shift(fraction).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		rounded := minor.Shift(-fraction)
		return &Money{m: money.New(0, code), large: &rounded}
	}

	return New(minor.IntPart(), code)
}

// Valid reports whether code is a known ISO-4217 currency.
func Valid(code string) bool {
	return money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}

func normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}

// Amount returns the amount in minor units, clamped to the int64 range.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	if m.large != nil {
		if m.large.Sign() < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// Display returns the amount with symbol and grouping, e.g. "$1,234.56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return New(0, DefaultCurrency).Display()
	}
	if m.large != nil {
		return displayLarge(*m.large, m.m.Currency())
	}
	return m.m.Display()
}

// displayLarge follows go-money's template and separators for amounts it
// cannot hold.
func displayLarge(amount decimal.Decimal, c *money.Currency) string {
	digits := amount.Abs().StringFixed(int32(c.Fraction))
	whole, frac, _ := strings.Cut(digits, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(c.Thousand)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(c.Decimal)
		b.WriteString(frac)
	}

	out := strings.Replace(c.Template, "1", b.String(), 1)
	out = strings.Replace(out, "$", c.Grapheme, 1)
	if amount.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// String returns the plain decimal amount, e.g. "1234.56".
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(int32(m.fraction()))
}

// ToDecimal converts back to a decimal in major units.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	if m.large != nil {
		return *m.large
	}
	return decimal.New(m.m.Amount(), -int32(m.fraction()))
}

func (m *Money) fraction() int {
	if m == nil || m.m == nil {
		return 2
	}
	return m.m.Currency().Fraction
}

// MarshalJSON encodes as {"amount": "1234.56", "currency": "ARS"}.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{
		Amount:   m.String(),
		Currency: m.Currency(),
	})
}

// Format is a shortcut for NewFromDecimal(amount, code).Display().
func Format(amount decimal.Decimal, currencyCode string) string {
	return NewFromDecimal(amount, currencyCode).Display()
}
