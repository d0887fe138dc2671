package sdk

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxUint256 bounds every currency amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// CurrencyAmount is an amount of a currency in its smallest unit. The fraction
// may be non-integral (for example after multiplying by a Percent); Quotient
// returns the whole-unit part.
type CurrencyAmount struct {
	currency     Currency
	fraction     Fraction
	decimalScale *big.Int
}

// FromRawAmount builds an amount from an integer number of smallest units.
func FromRawAmount(currency Currency, raw any) (CurrencyAmount, error) {
	switch raw.(type) {
	case Fraction, Percent:
		return CurrencyAmount{}, fmt.Errorf("raw amount must be an integer, got %T: %w", raw, ErrInvalidAmount)
	}
	f, err := ParseFraction(raw)
	if err != nil {
		return CurrencyAmount{}, fmt.Errorf("raw amount %v: %w", raw, ErrInvalidAmount)
	}
	return newCurrencyAmount(currency, f)
}

// FromFractionalAmount builds an amount of numerator/denominator smallest units.
func FromFractionalAmount(currency Currency, numerator, denominator *big.Int) (CurrencyAmount, error) {
	f, err := NewFraction(numerator, denominator)
	if err != nil {
		return CurrencyAmount{}, err
	}
	return newCurrencyAmount(currency, f)
}

func newCurrencyAmount(currency Currency, f Fraction) (CurrencyAmount, error) {
	if f.Quotient().CmpAbs(MaxUint256) > 0 {
		return CurrencyAmount{}, fmt.Errorf("amount %s exceeds uint256: %w", f.Quotient(), ErrInvalidAmount)
	}
	return CurrencyAmount{
		currency:     currency,
		fraction:     f,
		decimalScale: pow10(int(currency.Decimals)),
	}, nil
}

func (a CurrencyAmount) Currency() Currency { return a.currency }

// AsFraction returns the amount in smallest units as a Fraction.
func (a CurrencyAmount) AsFraction() Fraction { return a.fraction }

// Quotient returns the whole number of smallest units.
func (a CurrencyAmount) Quotient() *big.Int { return a.fraction.Quotient() }

func (a CurrencyAmount) Add(other CurrencyAmount) (CurrencyAmount, error) {
	if !a.currency.Equal(other.currency) {
		return CurrencyAmount{}, fmt.Errorf("add %s to %s: %w", other.currency, a.currency, ErrCurrencyMismatch)
	}
	return newCurrencyAmount(a.currency, a.fraction.Add(other.fraction))
}

func (a CurrencyAmount) Subtract(other CurrencyAmount) (CurrencyAmount, error) {
	if !a.currency.Equal(other.currency) {
		return CurrencyAmount{}, fmt.Errorf("subtract %s from %s: %w", other.currency, a.currency, ErrCurrencyMismatch)
	}
	return newCurrencyAmount(a.currency, a.fraction.Subtract(other.fraction))
}

func (a CurrencyAmount) Multiply(other Fraction) (CurrencyAmount, error) {
	return newCurrencyAmount(a.currency, a.fraction.Multiply(other))
}

func (a CurrencyAmount) Divide(other Fraction) (CurrencyAmount, error) {
	f, err := a.fraction.Divide(other)
	if err != nil {
		return CurrencyAmount{}, err
	}
	return newCurrencyAmount(a.currency, f)
}

// EqualTo reports whether both amounts have the same currency and value.
func (a CurrencyAmount) EqualTo(other CurrencyAmount) bool {
	return a.currency.Equal(other.currency) && a.fraction.EqualTo(other.fraction)
}

func (a CurrencyAmount) LessThan(other CurrencyAmount) (bool, error) {
	if !a.currency.Equal(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return a.fraction.LessThan(other.fraction), nil
}

func (a CurrencyAmount) scaled() Fraction {
	return Fraction{
		numerator:   new(big.Int).Set(a.fraction.numerator),
		denominator: new(big.Int).Mul(a.fraction.denominator, a.decimalScale),
	}
}

// ToSignificant renders the amount in whole currency units.
func (a CurrencyAmount) ToSignificant(digits int, rounding Rounding) (string, error) {
	return a.scaled().ToSignificant(digits, rounding)
}

// ToFixed renders the amount in whole currency units with places decimals.
func (a CurrencyAmount) ToFixed(places int, rounding Rounding) (string, error) {
	if places > int(a.currency.Decimals) {
		return "", fmt.Errorf("%d places exceeds %d decimals: %w", places, a.currency.Decimals, ErrInvalidArgument)
	}
	return a.scaled().ToFixed(places, rounding)
}

// ToExact renders the whole-unit quotient without rounding.
func (a CurrencyAmount) ToExact() string {
	return decimal.NewFromBigInt(a.Quotient(), -int32(a.currency.Decimals)).String()
}

func (a CurrencyAmount) String() string {
	return a.ToExact() + " " + a.currency.String()
}
