package calldata

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"v3kit/internal/sdk"
	"v3kit/internal/v3"
	"v3kit/internal/v3math"
)

var (
	usdc = sdk.NewToken(1, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin")
	dai  = sdk.NewToken(1, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI", "Dai Stablecoin")
	wbtc = sdk.NewToken(1, common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), 8, "WBTC", "Wrapped BTC")

	router    = common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	deadline  = big.NewInt(1_700_000_000)
)

func e18() *big.Int { return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil) }

func percent(t *testing.T, num, den int64) sdk.Percent {
	t.Helper()
	p, err := sdk.NewPercent(num, den)
	require.NoError(t, err)
	return p
}

func amount(t *testing.T, c sdk.Currency, raw int64) sdk.CurrencyAmount {
	t.Helper()
	a, err := sdk.FromRawAmount(c, big.NewInt(raw))
	require.NoError(t, err)
	return a
}

func poolAtOne(t *testing.T, a, b sdk.Currency, fee int) *v3.Pool {
	t.Helper()
	spacing, ok := v3.TickSpacingForFee(fee)
	require.True(t, ok)
	minTick := v3math.MinTick / spacing * spacing
	maxTick := v3math.MaxTick / spacing * spacing
	ticks, err := v3.NewTickList([]v3.Tick{
		{Index: minTick, LiquidityNet: e18(), LiquidityGross: e18()},
		{Index: maxTick, LiquidityNet: new(big.Int).Neg(e18()), LiquidityGross: e18()},
	}, spacing)
	require.NoError(t, err)
	pool, err := v3.NewPool(v3.PoolParams{TokenA: a, TokenB: b, Fee: fee, SqrtPriceX96: v3math.Q96, Liquidity: e18(), Ticks: ticks})
	require.NoError(t, err)
	return pool
}

func unpack[T any](t *testing.T, parsed abi.ABI, name string, data []byte) T {
	t.Helper()
	method, ok := parsed.Methods[name]
	require.True(t, ok, name)
	require.Equal(t, hex.EncodeToString(method.ID), hex.EncodeToString(data[:4]), "selector for %s", name)
	values, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, values, 1)
	return *abi.ConvertType(values[0], new(T)).(*T)
}

func unpackMulticall(t *testing.T, parsed abi.ABI, data []byte) [][]byte {
	t.Helper()
	return unpack[[][]byte](t, parsed, "multicall", data)
}

func TestSelectors(t *testing.T) {
	want := map[string]string{
		"approve":                            "095ea7b3",
		"mint":                               "88316456",
		"decreaseLiquidity":                  "0c49ccbe",
		"collect":                            "fc6f7865",
		"createAndInitializePoolIfNecessary": "13ead562",
		"exactInputSingle":                   "414bf389",
		"exactInput":                         "c04b8d59",
		"exactOutputSingle":                  "db3e2198",
		"exactOutput":                        "f28c0498",
		"multicall":                          "ac9650d8",
		"refundETH":                          "12210e8a",
		"unwrapWETH9":                        "49404b7c",
	}
	erc20, err := ERC20ABI()
	require.NoError(t, err)
	npm, err := PositionManagerABI()
	require.NoError(t, err)
	swap, err := SwapRouterABI()
	require.NoError(t, err)

	for name, selector := range want {
		found := false
		for _, parsed := range []abi.ABI{erc20, npm, swap} {
			if m, ok := parsed.Methods[name]; ok {
				require.Equal(t, selector, hex.EncodeToString(m.ID), name)
				found = true
			}
		}
		require.True(t, found, name)
	}
}

func TestEncodeApprove(t *testing.T) {
	params, err := Encode(ApproveRequest{Token: usdc.Address, Spender: router, Amount: big.NewInt(1000)})
	require.NoError(t, err)
	require.Equal(t, ContractToken, params.Target)
	require.Zero(t, params.Value.Sign())
	require.Equal(t,
		"095ea7b3"+
			"000000000000000000000000e592427a0aece92de3edee1f18e0157c05861564"+
			"00000000000000000000000000000000000000000000000000000000000003e8",
		hex.EncodeToString(params.Calldata))

	_, err = Encode(ApproveRequest{Spender: router, Amount: big.NewInt(-1)})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
	_, err = Encode(&ApproveRequest{Spender: router})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
	_, err = Encode(nil)
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
}

func TestEncodeSwapExactInputSingle(t *testing.T) {
	route, err := v3.NewRoute([]*v3.Pool{poolAtOne(t, usdc, dai, v3.FeeLow)}, usdc, dai)
	require.NoError(t, err)
	trade, err := v3.TradeFromRoute(route, amount(t, usdc, 100), v3.ExactInput)
	require.NoError(t, err)
	require.Equal(t, "98", trade.OutputAmount().Quotient().String())

	params, err := Encode(SwapRequest{Trade: trade, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 5, 1000)})
	require.NoError(t, err)
	require.Equal(t, ContractSwapRouter, params.Target)
	require.Zero(t, params.Value.Sign())

	parsed, err := SwapRouterABI()
	require.NoError(t, err)
	got := unpack[exactInputSingleParams](t, parsed, "exactInputSingle", params.Calldata)
	require.Equal(t, usdc.Address, got.TokenIn)
	require.Equal(t, dai.Address, got.TokenOut)
	require.Equal(t, int64(500), got.Fee.Int64())
	require.Equal(t, recipient, got.Recipient)
	require.Equal(t, deadline.String(), got.Deadline.String())
	require.Equal(t, "100", got.AmountIn.String())
	require.Equal(t, "97", got.AmountOutMinimum.String())
	require.Zero(t, got.SqrtPriceLimitX96.Sign())
}

func TestEncodeSwapNativeOut(t *testing.T) {
	route, err := v3.NewRoute([]*v3.Pool{poolAtOne(t, usdc, dai, v3.FeeLow)}, usdc, dai)
	require.NoError(t, err)
	trade, err := v3.CreateUncheckedTrade(route, amount(t, usdc, 100), amount(t, dai, 98), v3.ExactInput)
	require.NoError(t, err)

	params, err := Encode(SwapRequest{Trade: trade, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 5, 1000), NativeOut: true})
	require.NoError(t, err)

	parsed, err := SwapRouterABI()
	require.NoError(t, err)
	calls := unpackMulticall(t, parsed, params.Calldata)
	require.Len(t, calls, 2)
	swap := unpack[exactInputSingleParams](t, parsed, "exactInputSingle", calls[0])
	require.Equal(t, common.Address{}, swap.Recipient)

	unwrap := parsed.Methods["unwrapWETH9"]
	require.Equal(t, unwrap.ID, calls[1][:4])
	values, err := unwrap.Inputs.Unpack(calls[1][4:])
	require.NoError(t, err)
	require.Equal(t, "97", values[0].(*big.Int).String())
	require.Equal(t, recipient, values[1].(common.Address))
}

func TestEncodeSwapExactOutputNativeIn(t *testing.T) {
	route, err := v3.NewRoute([]*v3.Pool{poolAtOne(t, usdc, dai, v3.FeeLow)}, usdc, dai)
	require.NoError(t, err)
	trade, err := v3.CreateUncheckedTrade(route, amount(t, usdc, 100), amount(t, dai, 98), v3.ExactOutput)
	require.NoError(t, err)

	params, err := Encode(&SwapRequest{Trade: trade, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 1, 100), NativeIn: true})
	require.NoError(t, err)
	require.Equal(t, "101", params.Value.String())

	parsed, err := SwapRouterABI()
	require.NoError(t, err)
	calls := unpackMulticall(t, parsed, params.Calldata)
	require.Len(t, calls, 2)
	swap := unpack[exactOutputSingleParams](t, parsed, "exactOutputSingle", calls[0])
	require.Equal(t, "98", swap.AmountOut.String())
	require.Equal(t, "101", swap.AmountInMaximum.String())
	require.Equal(t, recipient, swap.Recipient)
	require.Equal(t, parsed.Methods["refundETH"].ID, calls[1])
}

func TestEncodeSwapMultiHop(t *testing.T) {
	route, err := v3.NewRoute([]*v3.Pool{poolAtOne(t, usdc, dai, v3.FeeMedium), poolAtOne(t, dai, wbtc, v3.FeeLow)}, usdc, wbtc)
	require.NoError(t, err)
	parsed, err := SwapRouterABI()
	require.NoError(t, err)

	forward := "a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" + "000bb8" +
		"6b175474e89094c44da98b954eedeac495271d0f" + "0001f4" +
		"2260fac5e5542a773aa44fbcfedf7c193bc2c599"
	backward := "2260fac5e5542a773aa44fbcfedf7c193bc2c599" + "0001f4" +
		"6b175474e89094c44da98b954eedeac495271d0f" + "000bb8" +
		"a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

	in, err := v3.CreateUncheckedTrade(route, amount(t, usdc, 1000), amount(t, wbtc, 900), v3.ExactInput)
	require.NoError(t, err)
	params, err := Encode(SwapRequest{Trade: in, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 0, 1)})
	require.NoError(t, err)
	exactIn := unpack[exactInputParams](t, parsed, "exactInput", params.Calldata)
	require.Equal(t, forward, hex.EncodeToString(exactIn.Path))
	require.Equal(t, "1000", exactIn.AmountIn.String())
	require.Equal(t, "900", exactIn.AmountOutMinimum.String())

	out, err := v3.CreateUncheckedTrade(route, amount(t, usdc, 1000), amount(t, wbtc, 900), v3.ExactOutput)
	require.NoError(t, err)
	params, err = Encode(SwapRequest{Trade: out, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 0, 1)})
	require.NoError(t, err)
	exactOut := unpack[exactOutputParams](t, parsed, "exactOutput", params.Calldata)
	require.Equal(t, backward, hex.EncodeToString(exactOut.Path))
	require.Equal(t, "900", exactOut.AmountOut.String())
	require.Equal(t, "1000", exactOut.AmountInMaximum.String())

	_, err = Encode(SwapRequest{Trade: in, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 0, 1), SqrtPriceLimitX96: big.NewInt(1)})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
}

func TestEncodeSwapRejects(t *testing.T) {
	route, err := v3.NewRoute([]*v3.Pool{poolAtOne(t, usdc, dai, v3.FeeLow)}, usdc, dai)
	require.NoError(t, err)
	trade, err := v3.CreateUncheckedTrade(route, amount(t, usdc, 100), amount(t, dai, 98), v3.ExactInput)
	require.NoError(t, err)

	negative := sdk.PercentFromFraction(sdk.FractionFromInt(-1, 100))
	cases := map[string]SwapRequest{
		"nil trade":         {Recipient: recipient, Deadline: deadline, Slippage: percent(t, 1, 100)},
		"zero recipient":    {Trade: trade, Deadline: deadline, Slippage: percent(t, 1, 100)},
		"no deadline":       {Trade: trade, Recipient: recipient, Slippage: percent(t, 1, 100)},
		"no slippage":       {Trade: trade, Recipient: recipient, Deadline: deadline},
		"negative slippage": {Trade: trade, Recipient: recipient, Deadline: deadline, Slippage: negative},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Encode(req)
			require.ErrorIs(t, err, sdk.ErrInvalidArgument)
		})
	}
}

func TestEncodeMint(t *testing.T) {
	pool := poolAtOne(t, dai, usdc, v3.FeeLow)
	pos, err := v3.NewPosition(pool, -600, 600, e18())
	require.NoError(t, err)

	params, err := Encode(MintRequest{Position: pos, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 5, 1000)})
	require.NoError(t, err)
	require.Equal(t, ContractPositionManager, params.Target)

	parsed, err := PositionManagerABI()
	require.NoError(t, err)
	got := unpack[mintParams](t, parsed, "mint", params.Calldata)
	require.Equal(t, dai.Address, got.Token0)
	require.Equal(t, usdc.Address, got.Token1)
	require.Equal(t, int64(500), got.Fee.Int64())
	require.Equal(t, int64(-600), got.TickLower.Int64())
	require.Equal(t, int64(600), got.TickUpper.Int64())
	require.Equal(t, "29553010879137170", got.Amount0Desired.String())
	require.Equal(t, "29553010879137170", got.Amount1Desired.String())
	require.Equal(t, "27062346986770073", got.Amount0Min.String())
	require.Equal(t, "27049878042137337", got.Amount1Min.String())
	require.Equal(t, recipient, got.Recipient)

	params, err = Encode(MintRequest{Position: pos, Recipient: recipient, Deadline: deadline, Slippage: percent(t, 5, 1000), CreatePool: true})
	require.NoError(t, err)
	calls := unpackMulticall(t, parsed, params.Calldata)
	require.Len(t, calls, 2)
	create := parsed.Methods["createAndInitializePoolIfNecessary"]
	require.Equal(t, create.ID, calls[0][:4])
	values, err := create.Inputs.Unpack(calls[0][4:])
	require.NoError(t, err)
	require.Equal(t, dai.Address, values[0].(common.Address))
	require.Equal(t, v3math.Q96.String(), values[3].(*big.Int).String())
	require.Equal(t, parsed.Methods["mint"].ID, calls[1][:4])
}

func TestEncodeDecreaseLiquidity(t *testing.T) {
	pool := poolAtOne(t, dai, usdc, v3.FeeLow)
	pos, err := v3.NewPosition(pool, -600, 600, big.NewInt(999))
	require.NoError(t, err)
	half := percent(t, 50, 100)

	params, err := Encode(DecreaseLiquidityRequest{
		TokenID:        big.NewInt(7),
		Position:       pos,
		LiquidityShare: half,
		Recipient:      recipient,
		Deadline:       deadline,
		Slippage:       percent(t, 0, 1),
	})
	require.NoError(t, err)
	require.Equal(t, ContractPositionManager, params.Target)

	parsed, err := PositionManagerABI()
	require.NoError(t, err)
	calls := unpackMulticall(t, parsed, params.Calldata)
	require.Len(t, calls, 2)

	partial, err := pos.Scale(half)
	require.NoError(t, err)
	wantMin, err := partial.BurnAmountsWithSlippage(percent(t, 0, 1))
	require.NoError(t, err)

	decrease := unpack[decreaseLiquidityParams](t, parsed, "decreaseLiquidity", calls[0])
	require.Equal(t, "7", decrease.TokenId.String())
	require.Equal(t, "499", decrease.Liquidity.String())
	require.Equal(t, wantMin.Amount0.String(), decrease.Amount0Min.String())
	require.Equal(t, wantMin.Amount1.String(), decrease.Amount1Min.String())

	collect := unpack[collectParams](t, parsed, "collect", calls[1])
	require.Equal(t, "7", collect.TokenId.String())
	require.Equal(t, recipient, collect.Recipient)
	require.Equal(t, MaxUint128.String(), collect.Amount0Max.String())
	require.Equal(t, MaxUint128.String(), collect.Amount1Max.String())

	_, err = Encode(DecreaseLiquidityRequest{TokenID: big.NewInt(7), Position: pos, LiquidityShare: percent(t, 0, 1),
		Recipient: recipient, Deadline: deadline, Slippage: percent(t, 0, 1)})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
	_, err = Encode(DecreaseLiquidityRequest{Position: pos, LiquidityShare: half,
		Recipient: recipient, Deadline: deadline, Slippage: percent(t, 0, 1)})
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)
}
