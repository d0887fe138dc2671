package v3math

import (
	"fmt"
	"math/big"

	"v3kit/internal/sdk"
)

// AddDelta applies a signed liquidity delta, failing if the result would be
// negative.
func AddDelta(liquidity, delta *big.Int) (*big.Int, error) {
	out := new(big.Int).Add(liquidity, delta)
	if out.Sign() < 0 {
		return nil, fmt.Errorf("liquidity %s%+d: %w", liquidity, delta, sdk.ErrInsufficientLiquidity)
	}
	return out, nil
}

func maxLiquidityForAmount0Imprecise(sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	intermediate := MulDiv(a, b, Q96)
	return MulDiv(amount0, intermediate, new(big.Int).Sub(b, a))
}

func maxLiquidityForAmount0Precise(sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	numerator := new(big.Int).Mul(amount0, a)
	numerator.Mul(numerator, b)
	denominator := new(big.Int).Mul(Q96, new(big.Int).Sub(b, a))
	return numerator.Quo(numerator, denominator)
}

func maxLiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *big.Int) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	return MulDiv(amount1, Q96, new(big.Int).Sub(b, a))
}

// MaxLiquidityForAmounts returns the largest liquidity that amount0 and
// amount1 can fund between sqrtRatioAX96 and sqrtRatioBX96 at the current
// price. useFullPrecision selects exact division for the token0 leg; the
// imprecise variant matches the periphery contract's rounding.
func MaxLiquidityForAmounts(sqrtRatioCurrentX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *big.Int, useFullPrecision bool) (*big.Int, error) {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	if a.Cmp(b) == 0 {
		return nil, fmt.Errorf("empty price range at %s: %w", a, sdk.ErrInvalidArgument)
	}
	forAmount0 := maxLiquidityForAmount0Imprecise
	if useFullPrecision {
		forAmount0 = maxLiquidityForAmount0Precise
	}

	switch {
	case sqrtRatioCurrentX96.Cmp(a) <= 0:
		return forAmount0(a, b, amount0), nil
	case sqrtRatioCurrentX96.Cmp(b) < 0:
		liquidity0 := forAmount0(sqrtRatioCurrentX96, b, amount0)
		liquidity1 := maxLiquidityForAmount1(a, sqrtRatioCurrentX96, amount1)
		if liquidity0.Cmp(liquidity1) < 0 {
			return liquidity0, nil
		}
		return liquidity1, nil
	default:
		return maxLiquidityForAmount1(a, b, amount1), nil
	}
}

// AmountsForLiquidity returns the token amounts held by liquidity between
// two sqrt prices at the current price, rounded down.
func AmountsForLiquidity(sqrtRatioCurrentX96, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) (*big.Int, *big.Int) {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	switch {
	case sqrtRatioCurrentX96.Cmp(a) <= 0:
		return GetAmount0Delta(a, b, liquidity, false), new(big.Int)
	case sqrtRatioCurrentX96.Cmp(b) < 0:
		return GetAmount0Delta(sqrtRatioCurrentX96, b, liquidity, false), GetAmount1Delta(a, sqrtRatioCurrentX96, liquidity, false)
	default:
		return new(big.Int), GetAmount1Delta(a, b, liquidity, false)
	}
}
