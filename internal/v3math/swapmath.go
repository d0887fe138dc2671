package v3math

import "math/big"

// SwapStep is the result of swapping within a single price range.
type SwapStep struct {
	SqrtRatioNextX96 *big.Int
	AmountIn         *big.Int
	AmountOut        *big.Int
	FeeAmount        *big.Int
}

// ComputeSwapStep swaps amountRemaining (positive for exact input, negative
// for exact output) from the current price toward the target price with the
// given liquidity and fee in hundredths of a bip.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *big.Int, feePips int) (SwapStep, error) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0
	fee := big.NewInt(int64(feePips))
	feeComplement := big.NewInt(int64(MaxFee - feePips))
	maxFee := big.NewInt(MaxFee)

	var (
		next      *big.Int
		amountIn  *big.Int
		amountOut *big.Int
		err       error
	)

	if exactIn {
		remainingLessFee := MulDiv(amountRemaining, feeComplement, maxFee)
		if zeroForOne {
			amountIn = GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			amountIn = GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if remainingLessFee.Cmp(amountIn) >= 0 {
			next = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			next, err = GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	} else {
		wanted := new(big.Int).Neg(amountRemaining)
		if zeroForOne {
			amountOut = GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			amountOut = GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if wanted.Cmp(amountOut) >= 0 {
			next = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			next, err = GetNextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, wanted, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	}

	reached := sqrtRatioTargetX96.Cmp(next) == 0
	if zeroForOne {
		if !(reached && exactIn) {
			amountIn = GetAmount0Delta(next, sqrtRatioCurrentX96, liquidity, true)
		}
		if !(reached && !exactIn) {
			amountOut = GetAmount1Delta(next, sqrtRatioCurrentX96, liquidity, false)
		}
	} else {
		if !(reached && exactIn) {
			amountIn = GetAmount1Delta(sqrtRatioCurrentX96, next, liquidity, true)
		}
		if !(reached && !exactIn) {
			amountOut = GetAmount0Delta(sqrtRatioCurrentX96, next, liquidity, false)
		}
	}

	if !exactIn && amountOut.Cmp(new(big.Int).Neg(amountRemaining)) > 0 {
		amountOut = new(big.Int).Neg(amountRemaining)
	}

	var feeAmount *big.Int
	if exactIn && next.Cmp(sqrtRatioTargetX96) != 0 {
		// target not reached: the rest of the input is fee
		feeAmount = new(big.Int).Sub(amountRemaining, amountIn)
	} else {
		feeAmount = MulDivRoundingUp(amountIn, fee, feeComplement)
	}

	return SwapStep{
		SqrtRatioNextX96: next,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeAmount:        feeAmount,
	}, nil
}
