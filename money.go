package budget

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// fraction is the number of decimal digits every Money value is kept at.
const fraction = 2

// Money represents a monetary value, exact to the cent.
//
// Money carries no currency: the currency is a property of the account or
// asset that owns the amount, and conversions go through Rates.
type Money struct {
	value decimal.Decimal // always rounded to the cent
}

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// M returns the Money for value, rounded to the cent.
func M[T float64 | int | int64 | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value).Round(fraction)}
}

// Cents returns the Money worth c cents.
func Cents(c int64) Money { return Money{value: decimal.New(c, -fraction)} }

// Cents returns the amount in the smallest currency unit.
func (m Money) Cents() int64 { return m.value.Shift(fraction).IntPart() }

// Decimal returns the exact decimal value.
func (m Money) Decimal() decimal.Decimal { return m.value }

// String returns the amount with exactly two decimals and no grouping, e.g. "-1234.50".
func (m Money) String() string { return m.value.StringFixed(fraction) }

// Format returns the amount formatted for display in currency, e.g. "$1,234.50".
// Unknown currency codes fall back to "1234.50 XYZ".
func (m Money) Format(currency string) string {
	// to get a never nil currency I need to call the Money constructor
	cur := money.New(0, strings.ToUpper(currency)).Currency()
	if cur.Template == "" {
		return strings.TrimSpace(m.String() + " " + currency)
	}
	return cur.Formatter().Format(m.value.Shift(int32(cur.Fraction)).Round(0).IntPart())
}

// KnownCurrency reports whether code is an ISO 4217 currency code.
func KnownCurrency(code string) bool {
	if code == "" {
		return false
	}
	return money.New(0, strings.ToUpper(code)).Currency().Template != ""
}

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int                 { return m.value.Cmp(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money                      { return Money{value: m.value.Abs()} }

// binary operators are exact, no rounding needed.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value)} }

// scalar operators round the result to the cent, half away from zero.
func (m Money) Mul(q decimal.Decimal) Money { return Money{value: m.value.Mul(q).Round(fraction)} }
func (m Money) MulInt(n int64) Money        { return Money{value: m.value.Mul(decimal.NewFromInt(n))} }

// Div panics if q is zero, like any division.
func (m Money) Div(q decimal.Decimal) Money { return Money{value: m.value.Div(q).Round(fraction)} }
func (m Money) DivInt(n int64) Money        { return m.Div(decimal.NewFromInt(n)) }

// Float64 returns the nearest float64. Only meant to feed rates and display.
func (m Money) Float64() float64 { return m.value.InexactFloat64() }

// Sum returns the exact sum of all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ParseMoney parses a user supplied amount. It tolerates locale conventions:
//
//	"1234.5", "1,234.50", "1.234,50", "1 234,50", "1'234.50", "-42,5"
//
// The right-most of '.' and ',' is the decimal separator when both are
// present. A lone ',' followed by exactly three digits is a thousands
// separator. More than two decimals are rounded to the cent.
func ParseMoney(s string) (Money, error) {
	raw := s
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f', '\'', '_':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty amount", ErrValidation)
	}

	sign := ""
	switch s[0] {
	case '-':
		sign = "-"
		s = s[1:]
	case '+':
		s = s[1:]
	}

	dots, commas := strings.Count(s, "."), strings.Count(s, ",")
	lastDot, lastComma := strings.LastIndexByte(s, '.'), strings.LastIndexByte(s, ',')

	// sep is the index of the decimal separator in s, -1 if there is none.
	sep := -1
	switch {
	case dots > 0 && commas > 0:
		if lastDot > lastComma {
			if dots > 1 {
				return Money{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, raw)
			}
			sep = lastDot
		} else {
			if commas > 1 {
				return Money{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, raw)
			}
			sep = lastComma
		}
	case dots == 1:
		sep = lastDot
	case commas == 1 && len(s)-lastComma-1 != 3:
		sep = lastComma
	}

	var integer, fractional strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			if sep >= 0 && i > sep {
				fractional.WriteByte(c)
			} else {
				integer.WriteByte(c)
			}
		case i == sep:
		case c == '.' || c == ',':
			if sep >= 0 && i > sep {
				return Money{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, raw)
			}
		default:
			return Money{}, fmt.Errorf("%w: invalid amount %q: unexpected %q", ErrValidation, raw, c)
		}
	}
	if integer.Len() == 0 && fractional.Len() == 0 {
		return Money{}, fmt.Errorf("%w: invalid amount %q: no digits", ErrValidation, raw)
	}

	str := integer.String()
	if str == "" {
		str = "0"
	}
	if fractional.Len() > 0 {
		str += "." + fractional.String()
	}
	d, err := decimal.NewFromString(sign + str)
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid amount %q: %v", ErrValidation, raw, err)
	}
	return M(d), nil
}

// MustParseMoney is like ParseMoney but panics on error.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// MarshalJSON writes the amount as a string to keep it exact: "42.50".
func (m Money) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// UnmarshalJSON accepts both a string and a plain json number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("invalid money %s: %w", data, err)
		}
		*m = M(d)
		return nil
	}
	v, err := ParseMoney(str)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
