package sdk

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFractionArithmetic(t *testing.T) {
	half := FractionFromInt(1, 2)
	third := FractionFromInt(1, 3)

	sum := half.Add(third)
	require.Equal(t, "5/6", sum.String())
	got, err := sum.ToFixed(2, RoundHalfUp)
	require.NoError(t, err)
	require.Equal(t, "0.83", got)

	require.Equal(t, "4/4", FractionFromInt(1, 4).Add(FractionFromInt(3, 4)).String())
	require.Equal(t, "1/6", half.Subtract(third).String())
	require.Equal(t, "1/6", half.Multiply(third).String())

	div, err := half.Divide(third)
	require.NoError(t, err)
	require.Equal(t, "3/2", div.String())

	_, err = half.Divide(FractionFromInt(0, 5))
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestFractionQuotientFloors(t *testing.T) {
	cases := []struct {
		num, den int64
		want     int64
	}{
		{7, 2, 3},
		{-7, 2, -4},
		{7, -2, -4},
		{-7, -2, 3},
		{6, 3, 2},
	}
	for _, tc := range cases {
		f := FractionFromInt(tc.num, tc.den)
		require.Equal(t, tc.want, f.Quotient().Int64(), "%d/%d", tc.num, tc.den)
		back := new(big.Int).Mul(f.Quotient(), f.Denominator())
		back.Add(back, f.Remainder().Numerator())
		require.Equal(t, tc.num, back.Int64())
	}
}

func TestFractionInvert(t *testing.T) {
	f := FractionFromInt(3, 7)
	inv, err := f.Invert()
	require.NoError(t, err)
	require.Equal(t, "7/3", inv.String())

	twice, err := inv.Invert()
	require.NoError(t, err)
	require.True(t, twice.EqualTo(f))

	_, err = FractionFromInt(0, 1).Invert()
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestFractionCompare(t *testing.T) {
	require.True(t, FractionFromInt(1, 3).LessThan(FractionFromInt(1, 2)))
	require.True(t, FractionFromInt(2, 4).EqualTo(FractionFromInt(1, 2)))
	require.True(t, FractionFromInt(1, -2).LessThan(FractionFromInt(1, 3)))
	require.True(t, FractionFromInt(-1, -2).GreaterThan(FractionFromInt(1, 3)))
}

func TestFractionToFixed(t *testing.T) {
	third := FractionFromInt(1, 3)
	for _, r := range []Rounding{RoundDown, RoundHalfUp} {
		got, err := third.ToFixed(4, r)
		require.NoError(t, err)
		require.Equal(t, "0.3333", got, r.String())
	}

	got, err := FractionFromInt(2, 3).ToFixed(0, RoundUp)
	require.NoError(t, err)
	require.Equal(t, "1", got)

	got, err = FractionFromInt(-1, 2).ToFixed(1, RoundDown)
	require.NoError(t, err)
	require.Equal(t, "-0.5", got)

	got, err = FractionFromInt(5, 2).ToFixed(0, RoundHalfUp)
	require.NoError(t, err)
	require.Equal(t, "3", got)

	_, err = third.ToFixed(-1, RoundDown)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = third.ToFixed(2, Rounding(9))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFractionToSignificant(t *testing.T) {
	cases := []struct {
		f        Fraction
		digits   int
		rounding Rounding
		want     string
	}{
		{FractionFromInt(5, 6), 3, RoundHalfUp, "0.833"},
		{FractionFromInt(5, 6), 3, RoundUp, "0.834"},
		{FractionFromInt(12345, 1), 2, RoundDown, "12000"},
		{FractionFromInt(1, 1), 5, RoundDown, "1"},
		{FractionFromInt(1, 1000), 2, RoundDown, "0.001"},
		{FractionFromInt(0, 7), 3, RoundDown, "0"},
		{FractionFromInt(999, 100), 2, RoundHalfUp, "10"},
	}
	for _, tc := range cases {
		got, err := tc.f.ToSignificant(tc.digits, tc.rounding)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%s to %d digits", tc.f, tc.digits)
	}

	_, err := FractionFromInt(1, 2).ToSignificant(0, RoundDown)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseFraction(t *testing.T) {
	f, err := ParseFraction("12345678901234567890")
	require.NoError(t, err)
	require.Equal(t, "12345678901234567890/1", f.String())

	f, err = ParseFraction(uint8(7))
	require.NoError(t, err)
	require.Equal(t, "7/1", f.String())

	p, _ := NewPercent(1, 4)
	f, err = ParseFraction(p)
	require.NoError(t, err)
	require.Equal(t, "1/4", f.String())

	_, err = ParseFraction(1.5)
	require.ErrorIs(t, err, ErrParse)
	_, err = ParseFraction("1.5")
	require.ErrorIs(t, err, ErrParse)

	_, err = NewFraction(big.NewInt(1), big.NewInt(0))
	require.True(t, errors.Is(err, ErrDivisionByZero))
}

func TestFractionIsImmutable(t *testing.T) {
	num := big.NewInt(3)
	f, err := NewFraction(num, big.NewInt(4))
	require.NoError(t, err)
	num.SetInt64(99)
	f.Numerator().SetInt64(42)
	require.Equal(t, "3/4", f.String())
}

func TestPercent(t *testing.T) {
	p, err := NewPercent(1, 100)
	require.NoError(t, err)
	got, err := p.ToFixed(2, RoundDown)
	require.NoError(t, err)
	require.Equal(t, "1.00", got)

	half, err := ParsePercent("0.5")
	require.NoError(t, err)
	require.True(t, half.EqualTo(FractionFromInt(5, 1000)))
	got, err = half.ToSignificant(2, RoundDown)
	require.NoError(t, err)
	require.Equal(t, "0.5", got)

	two, err := ParsePercent("2%")
	require.NoError(t, err)
	require.True(t, two.EqualTo(FractionFromInt(2, 100)))

	_, err = ParsePercent("-1")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParsePercent("abc")
	require.ErrorIs(t, err, ErrParse)
}
