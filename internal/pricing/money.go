package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units.
type Money int64

const minorDigits = 2

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ParseMoney converts a decimal string such as "6.50" into minor units.
// Values with sub-cent precision are rejected rather than rounded.
func ParseMoney(value string) (Money, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("pricing: empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("pricing: parse amount %q: %w", trimmed, err)
	}
	minor := d.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("pricing: amount %q has more than %d decimals", trimmed, minorDigits)
	}
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("pricing: amount %q is out of range", trimmed)
	}
	return Money(minor.IntPart()), nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -minorDigits)
}

// String formats the amount with two fixed decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(minorDigits)
}

// Ratio returns num/den clamped to [0, 1]. A non-positive denominator yields 1.
func Ratio(num, den Money) float64 {
	if den <= 0 {
		return 1
	}
	if num <= 0 {
		return 0
	}
	r := decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den)))
	if r.GreaterThan(decimal.NewFromInt(1)) {
		return 1
	}
	f, _ := r.Float64()
	return f
}
