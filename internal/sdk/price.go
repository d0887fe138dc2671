package sdk

import (
	"fmt"
	"math/big"
)

// Price is the exchange rate quote/base expressed in smallest units of each
// currency. Display methods adjust for the currencies' decimals.
type Price struct {
	base     Currency
	quote    Currency
	fraction Fraction
	scalar   Fraction
}

// NewPrice returns the price of base in quote, numerator quote units per
// denominator base units.
func NewPrice(base, quote Currency, denominator, numerator *big.Int) (Price, error) {
	if base.Equal(quote) {
		return Price{}, fmt.Errorf("base and quote are both %s: %w", base, ErrInvalidArgument)
	}
	f, err := NewFraction(numerator, denominator)
	if err != nil {
		return Price{}, fmt.Errorf("price %s/%s: %w", quote, base, err)
	}
	return Price{
		base:     base,
		quote:    quote,
		fraction: f,
		scalar: Fraction{
			numerator:   pow10(int(base.Decimals)),
			denominator: pow10(int(quote.Decimals)),
		},
	}, nil
}

// PriceFromAmounts returns quoteAmount/baseAmount.
func PriceFromAmounts(baseAmount, quoteAmount CurrencyAmount) (Price, error) {
	ratio, err := quoteAmount.fraction.Divide(baseAmount.fraction)
	if err != nil {
		return Price{}, fmt.Errorf("price from zero base amount: %w", err)
	}
	return NewPrice(baseAmount.currency, quoteAmount.currency, ratio.denominator, ratio.numerator)
}

func (p Price) BaseCurrency() Currency  { return p.base }
func (p Price) QuoteCurrency() Currency { return p.quote }

// AsFraction returns the raw quote/base ratio.
func (p Price) AsFraction() Fraction { return p.fraction }

// AdjustedForDecimals returns the ratio in whole units of each currency.
func (p Price) AdjustedForDecimals() Fraction { return p.fraction.Multiply(p.scalar) }

func (p Price) Invert() (Price, error) {
	return NewPrice(p.quote, p.base, p.fraction.numerator, p.fraction.denominator)
}

// Multiply chains p (base->quote) with other (quote->other quote).
func (p Price) Multiply(other Price) (Price, error) {
	if !p.quote.Equal(other.base) {
		return Price{}, fmt.Errorf("%s quote vs %s base: %w", p.quote, other.base, ErrIncompatiblePrice)
	}
	f := p.fraction.Multiply(other.fraction)
	return NewPrice(p.base, other.quote, f.denominator, f.numerator)
}

// Quote converts an amount of the base currency into the quote currency.
func (p Price) Quote(amount CurrencyAmount) (CurrencyAmount, error) {
	if !amount.currency.Equal(p.base) {
		return CurrencyAmount{}, fmt.Errorf("quote %s with %s/%s price: %w", amount.currency, p.quote, p.base, ErrCurrencyMismatch)
	}
	f := p.fraction.Multiply(amount.fraction)
	return FromFractionalAmount(p.quote, f.numerator, f.denominator)
}

// EqualTo reports equal currencies and an equal ratio.
func (p Price) EqualTo(other Price) bool {
	return p.base.Equal(other.base) && p.quote.Equal(other.quote) && p.fraction.EqualTo(other.fraction)
}

func (p Price) ToSignificant(digits int, rounding Rounding) (string, error) {
	return p.AdjustedForDecimals().ToSignificant(digits, rounding)
}

func (p Price) ToFixed(places int, rounding Rounding) (string, error) {
	return p.AdjustedForDecimals().ToFixed(places, rounding)
}
