package sdk

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	usdc = NewToken(1, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin")
	weth = NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "Wrapped Ether")
	dai  = NewToken(1, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI", "Dai Stablecoin")
)

func TestCurrencySorting(t *testing.T) {
	before, err := dai.SortsBefore(usdc)
	require.NoError(t, err)
	require.True(t, before)

	_, err = dai.SortsBefore(dai)
	require.ErrorIs(t, err, ErrInvalidArgument)

	other := NewToken(56, dai.Address, 18, "DAI", "")
	_, err = dai.SortsBefore(other)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.False(t, dai.Equal(other))

	eth := NewNative(1, 18, "ETH", "Ether")
	require.True(t, eth.Equal(NewNative(1, 18, "ETH", "")))
	before, err = eth.SortsBefore(dai)
	require.NoError(t, err)
	require.True(t, before)
}

func TestCurrencyAmountFormatting(t *testing.T) {
	amount, err := FromRawAmount(usdc, "1234567")
	require.NoError(t, err)
	require.Equal(t, "1.234567", amount.ToExact())

	got, err := amount.ToFixed(2, RoundDown)
	require.NoError(t, err)
	require.Equal(t, "1.23", got)

	got, err = amount.ToSignificant(3, RoundHalfUp)
	require.NoError(t, err)
	require.Equal(t, "1.23", got)

	_, err = amount.ToFixed(7, RoundDown)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCurrencyAmountBounds(t *testing.T) {
	_, err := FromRawAmount(weth, MaxUint256)
	require.NoError(t, err)

	_, err = FromRawAmount(weth, new(big.Int).Add(MaxUint256, big.NewInt(1)))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromRawAmount(weth, FractionFromInt(1, 2))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromRawAmount(weth, "0x10")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCurrencyAmountArithmetic(t *testing.T) {
	a, err := FromRawAmount(usdc, 100)
	require.NoError(t, err)
	b, err := FromRawAmount(usdc, 50)
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, "150", sum.Quotient().String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	require.Equal(t, "50", diff.Quotient().String())

	less, err := b.LessThan(a)
	require.NoError(t, err)
	require.True(t, less)

	scaled, err := a.Multiply(FractionFromInt(1, 3))
	require.NoError(t, err)
	require.Equal(t, "33", scaled.Quotient().String())

	other, err := FromRawAmount(dai, 100)
	require.NoError(t, err)
	_, err = a.Add(other)
	require.ErrorIs(t, err, ErrCurrencyMismatch)
	require.True(t, errors.Is(err, ErrTypeMismatch))
	require.False(t, a.EqualTo(other))
}

func TestPrice(t *testing.T) {
	// 2000 USDC per WETH
	price, err := NewPrice(weth, usdc, big.NewInt(1_000_000_000_000_000_000), big.NewInt(2_000_000_000))
	require.NoError(t, err)

	got, err := price.ToSignificant(4, RoundDown)
	require.NoError(t, err)
	require.Equal(t, "2000", got)

	inverted, err := price.Invert()
	require.NoError(t, err)
	got, err = inverted.ToSignificant(1, RoundDown)
	require.NoError(t, err)
	require.Equal(t, "0.0005", got)

	back, err := inverted.Invert()
	require.NoError(t, err)
	require.True(t, back.EqualTo(price))

	oneEth, err := FromRawAmount(weth, "1000000000000000000")
	require.NoError(t, err)
	quoted, err := price.Quote(oneEth)
	require.NoError(t, err)
	require.True(t, quoted.Currency().Equal(usdc))
	require.Equal(t, "2000", quoted.ToExact())

	_, err = price.Quote(quoted)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = NewPrice(weth, weth, big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPriceMultiply(t *testing.T) {
	wethUsdc, err := NewPrice(weth, usdc, big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	usdcDai, err := NewPrice(usdc, dai, big.NewInt(3), big.NewInt(5))
	require.NoError(t, err)

	chained, err := wethUsdc.Multiply(usdcDai)
	require.NoError(t, err)
	require.True(t, chained.BaseCurrency().Equal(weth))
	require.True(t, chained.QuoteCurrency().Equal(dai))
	require.True(t, chained.AsFraction().EqualTo(FractionFromInt(10, 3)))

	_, err = usdcDai.Multiply(usdcDai)
	require.ErrorIs(t, err, ErrIncompatiblePrice)
	require.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestPriceFromAmounts(t *testing.T) {
	in, err := FromRawAmount(weth, "2000000000000000000")
	require.NoError(t, err)
	out, err := FromRawAmount(usdc, "3000000000")
	require.NoError(t, err)

	price, err := PriceFromAmounts(in, out)
	require.NoError(t, err)
	got, err := price.ToFixed(2, RoundDown)
	require.NoError(t, err)
	require.Equal(t, "1500.00", got)
}

func TestUnits(t *testing.T) {
	raw, err := ParseUnits("1.5", 18)
	require.NoError(t, err)
	require.Equal(t, "1500000000000000000", raw.String())

	raw, err = ParseUnits("42", 6)
	require.NoError(t, err)
	require.Equal(t, "42000000", raw.String())
	require.Equal(t, "42", FormatUnits(raw, 6))

	_, err = ParseUnits("1.1234567", 6)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseUnits("-1", 6)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseUnits("one", 6)
	require.ErrorIs(t, err, ErrParse)
}
