package v3

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"v3kit/internal/sdk"
)

func usdcToDAI(t *testing.T) *Route {
	t.Helper()
	route, err := NewRoute([]*Pool{fullRangePool(t)}, usdc, dai)
	require.NoError(t, err)
	return route
}

func TestTradeFromRouteExactInput(t *testing.T) {
	trade, err := TradeFromRoute(usdcToDAI(t), rawAmount(t, usdc, 100), ExactInput)
	require.NoError(t, err)
	require.Equal(t, ExactInput, trade.TradeType())
	require.Equal(t, "100", trade.InputAmount().Quotient().String())
	require.Equal(t, "98", trade.OutputAmount().Quotient().String())
	require.True(t, trade.OutputAmount().Currency().Equal(dai))

	exec, err := trade.ExecutionPrice()
	require.NoError(t, err)
	require.True(t, exec.AsFraction().EqualTo(sdk.FractionFromInt(98, 100)))

	impact, err := trade.PriceImpact()
	require.NoError(t, err)
	require.True(t, impact.EqualTo(sdk.FractionFromInt(2, 100)))
	text, err := impact.ToSignificant(2, sdk.RoundHalfUp)
	require.NoError(t, err)
	require.Equal(t, "2", text)
}

func TestTradeFromRouteExactOutput(t *testing.T) {
	trade, err := TradeFromRoute(usdcToDAI(t), rawAmount(t, dai, 98), ExactOutput)
	require.NoError(t, err)
	require.Equal(t, "100", trade.InputAmount().Quotient().String())
	require.True(t, trade.InputAmount().Currency().Equal(usdc))
	require.Equal(t, "98", trade.OutputAmount().Quotient().String())
}

func TestTradeFromRouteMultiHop(t *testing.T) {
	wbtc := sdk.NewToken(1, common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), 8, "WBTC", "Wrapped BTC")
	route, err := NewRoute([]*Pool{poolAtOne(t, usdc, dai), poolAtOne(t, dai, wbtc)}, usdc, wbtc)
	require.NoError(t, err)

	in, err := TradeFromRoute(route, rawAmount(t, usdc, 1_000_000), ExactInput)
	require.NoError(t, err)
	require.True(t, in.OutputAmount().Currency().Equal(wbtc))
	require.Positive(t, in.OutputAmount().Quotient().Sign())
	require.Less(t, in.OutputAmount().Quotient().Int64(), int64(1_000_000))

	out, err := TradeFromRoute(route, in.OutputAmount(), ExactOutput)
	require.NoError(t, err)
	require.True(t, out.InputAmount().Currency().Equal(usdc))
	require.InDelta(t, 1_000_000, out.InputAmount().Quotient().Int64(), 10)
}

func TestTradeCurrencyChecks(t *testing.T) {
	route := usdcToDAI(t)

	_, err := TradeFromRoute(route, rawAmount(t, dai, 100), ExactInput)
	require.ErrorIs(t, err, sdk.ErrCurrencyMismatch)
	_, err = TradeFromRoute(route, rawAmount(t, usdc, 100), ExactOutput)
	require.ErrorIs(t, err, sdk.ErrCurrencyMismatch)
	_, err = TradeFromRoute(route, rawAmount(t, usdc, 100), TradeType(7))
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)

	_, err = CreateUncheckedTrade(route, rawAmount(t, weth, 1), rawAmount(t, dai, 1), ExactInput)
	require.ErrorIs(t, err, sdk.ErrCurrencyMismatch)
	require.ErrorIs(t, err, sdk.ErrTypeMismatch)
	_, err = CreateUncheckedTrade(route, rawAmount(t, usdc, 1), rawAmount(t, usdc, 1), ExactInput)
	require.ErrorIs(t, err, sdk.ErrCurrencyMismatch)

	trade, err := CreateUncheckedTrade(route, rawAmount(t, usdc, 100), rawAmount(t, dai, 99), ExactOutput)
	require.NoError(t, err)
	require.Equal(t, "99", trade.OutputAmount().Quotient().String())
}

func TestTradeSlippageBounds(t *testing.T) {
	route := usdcToDAI(t)
	half := percent(t, 50, 100)

	in, err := CreateUncheckedTrade(route, rawAmount(t, usdc, 100), rawAmount(t, dai, 98), ExactInput)
	require.NoError(t, err)
	minOut, err := in.MinimumAmountOut(half)
	require.NoError(t, err)
	require.Equal(t, "65", minOut.Quotient().String())
	exact, err := in.MinimumAmountOut(percent(t, 0, 1))
	require.NoError(t, err)
	require.Equal(t, "98", exact.Quotient().String())
	maxIn, err := in.MaximumAmountIn(half)
	require.NoError(t, err)
	require.Equal(t, "100", maxIn.Quotient().String())

	out, err := CreateUncheckedTrade(route, rawAmount(t, usdc, 100), rawAmount(t, dai, 98), ExactOutput)
	require.NoError(t, err)
	maxIn, err = out.MaximumAmountIn(half)
	require.NoError(t, err)
	require.Equal(t, "150", maxIn.Quotient().String())
	minOut, err = out.MinimumAmountOut(half)
	require.NoError(t, err)
	require.Equal(t, "98", minOut.Quotient().String())

	worst, err := in.WorstExecutionPrice(half)
	require.NoError(t, err)
	require.True(t, worst.AsFraction().EqualTo(sdk.FractionFromInt(65, 100)))

	_, err = in.MinimumAmountOut(sdk.PercentFromFraction(sdk.FractionFromInt(-1, 100)))
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
	_, err = in.MinimumAmountOut(sdk.Percent{})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
	_, err = in.MaximumAmountIn(sdk.Percent{})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
	_, err = in.WorstExecutionPrice(sdk.Percent{})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
}

func TestParseTradeType(t *testing.T) {
	for input, want := range map[string]TradeType{"in": ExactInput, "exact_input": ExactInput, "out": ExactOutput, "exact_output": ExactOutput} {
		got, err := ParseTradeType(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseTradeType("sideways")
	require.ErrorIs(t, err, sdk.ErrParse)
	require.Equal(t, "exact_output", ExactOutput.String())
}
