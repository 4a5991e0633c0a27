// Package valueobject holds the money arithmetic shared by the ledger and commission contexts.
// Amounts are plain decimals; the currency is always BRL so no currency tag is carried.
package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

// Round2 rounds an amount to cents (half away from zero)
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NonNegative clamps negative amounts to zero
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Percent returns base × percent / 100, where percent is a whole number (10 = 10%)
func Percent(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred)
}

// Cent is the smallest accepted payment amount
func Cent() decimal.Decimal {
	return cent
}

// Allocate divides an amount into n parts truncated to cents.
// The last part absorbs the remainder so the parts always sum to the original amount.
func Allocate(amount decimal.Decimal, parts int) ([]decimal.Decimal, error) {
	if parts <= 0 {
		return nil, errors.New("parts must be positive")
	}
	base := amount.Div(decimal.NewFromInt(int64(parts))).Truncate(2)
	result := make([]decimal.Decimal, parts)
	for i := range parts - 1 {
		result[i] = base
	}
	result[parts-1] = amount.Sub(base.Mul(decimal.NewFromInt(int64(parts - 1))))
	return result, nil
}

// WithinTolerance reports whether |a-b| <= tolerance
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
