package sdk

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = FractionFromInt(100, 1)

// Percent is a Fraction displayed as a percentage. Arithmetic inherited from
// Fraction returns plain Fractions.
type Percent struct {
	Fraction
}

// NewPercent returns numerator/denominator as a Percent, so NewPercent(1, 100) is 1%.
func NewPercent(numerator, denominator int64) (Percent, error) {
	f, err := NewFraction(big.NewInt(numerator), big.NewInt(denominator))
	if err != nil {
		return Percent{}, err
	}
	return Percent{Fraction: f}, nil
}

// PercentFromFraction wraps an existing Fraction.
func PercentFromFraction(f Fraction) Percent {
	return Percent{Fraction: f}
}

// ParsePercent converts a user-typed percentage such as "0.5" or "2%" into a Percent.
func ParsePercent(input string) (Percent, error) {
	text := strings.TrimSuffix(strings.TrimSpace(input), "%")
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Percent{}, fmt.Errorf("percent %q: %w", input, ErrParse)
	}
	if d.IsNegative() {
		return Percent{}, fmt.Errorf("percent %q: %w", input, ErrInvalidArgument)
	}
	exp := d.Exponent()
	num := d.Coefficient()
	den := big.NewInt(100)
	if exp < 0 {
		den.Mul(den, pow10(int(-exp)))
	} else {
		num.Mul(num, pow10(int(exp)))
	}
	return Percent{Fraction: Fraction{numerator: num, denominator: den}}, nil
}

// ToSignificant renders the percentage value, e.g. 1/100 as "1".
func (p Percent) ToSignificant(digits int, rounding Rounding) (string, error) {
	return p.Fraction.Multiply(hundred).ToSignificant(digits, rounding)
}

// ToFixed renders the percentage value with places decimals.
func (p Percent) ToFixed(places int, rounding Rounding) (string, error) {
	return p.Fraction.Multiply(hundred).ToFixed(places, rounding)
}
