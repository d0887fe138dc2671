package v3math

import (
	"fmt"
	"math/big"

	"v3kit/internal/sdk"
)

// EncodeSqrtRatioX96 returns floor(sqrt(amount1/amount0) * 2^96), the Q64.96
// sqrt price for a pool holding amount1 of token1 per amount0 of token0.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) (*big.Int, error) {
	if amount0 == nil || amount0.Sign() == 0 {
		return nil, sdk.ErrDivisionByZero
	}
	if amount1 == nil || amount1.Sign() < 0 || amount0.Sign() < 0 {
		return nil, fmt.Errorf("negative amounts %v/%v: %w", amount1, amount0, sdk.ErrInvalidArgument)
	}
	ratioX192 := new(big.Int).Lsh(amount1, 192)
	ratioX192.Quo(ratioX192, amount0)
	return ratioX192.Sqrt(ratioX192), nil
}

func sortRatios(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// GetAmount0Delta returns the token0 amount between two sqrt prices for the
// given liquidity: L * (b - a) / (a * b).
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(b, a)
	if roundUp {
		return divRoundingUp(MulDivRoundingUp(numerator1, numerator2, b), a)
	}
	res := MulDiv(numerator1, numerator2, b)
	return res.Quo(res, a)
}

// GetAmount1Delta returns the token1 amount between two sqrt prices for the
// given liquidity: L * (b - a).
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	a, b := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	diff := new(big.Int).Sub(b, a)
	if roundUp {
		return MulDivRoundingUp(liquidity, diff, Q96)
	}
	return MulDiv(liquidity, diff, Q96)
}

func checkPriceInputs(sqrtPX96, liquidity *big.Int) error {
	if sqrtPX96.Sign() <= 0 {
		return fmt.Errorf("sqrt price %s: %w", sqrtPX96, sdk.ErrInvalidArgument)
	}
	if liquidity.Sign() <= 0 {
		return fmt.Errorf("liquidity %s: %w", liquidity, sdk.ErrInvalidArgument)
	}
	return nil
}

// GetNextSqrtPriceFromInput returns the sqrt price after adding amountIn of
// the input token. Rounding always favours the pool.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if err := checkPriceInputs(sqrtPX96, liquidity); err != nil {
		return nil, err
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the sqrt price after removing amountOut
// of the output token.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if err := checkPriceInputs(sqrtPX96, liquidity); err != nil {
		return nil, err
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

func nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPX96), nil
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	product := multiplyIn256(amount, sqrtPX96)

	if add {
		if new(big.Int).Quo(product, amount).Cmp(sqrtPX96) == 0 {
			denominator := addIn256(numerator1, product)
			if denominator.Cmp(numerator1) >= 0 {
				return MulDivRoundingUp(numerator1, sqrtPX96, denominator), nil
			}
		}
		fallback := new(big.Int).Quo(numerator1, sqrtPX96)
		return divRoundingUp(numerator1, fallback.Add(fallback, amount)), nil
	}

	if new(big.Int).Quo(product, amount).Cmp(sqrtPX96) != 0 || numerator1.Cmp(product) <= 0 {
		return nil, fmt.Errorf("output %s exceeds token0 reserves: %w", amount, sdk.ErrInsufficientLiquidity)
	}
	denominator := new(big.Int).Sub(numerator1, product)
	return MulDivRoundingUp(numerator1, sqrtPX96, denominator), nil
}

func nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if add {
		var quotient *big.Int
		if amount.Cmp(MaxUint160) <= 0 {
			quotient = new(big.Int).Lsh(amount, 96)
			quotient.Quo(quotient, liquidity)
		} else {
			quotient = MulDiv(amount, Q96, liquidity)
		}
		return quotient.Add(quotient, sqrtPX96), nil
	}

	quotient := MulDivRoundingUp(amount, Q96, liquidity)
	if sqrtPX96.Cmp(quotient) <= 0 {
		return nil, fmt.Errorf("output %s exceeds token1 reserves: %w", amount, sdk.ErrInsufficientLiquidity)
	}
	return quotient.Sub(sqrtPX96, quotient), nil
}
