package v3

import (
	"fmt"
	"math/big"

	"v3kit/internal/sdk"
	"v3kit/internal/v3math"
)

type swapResult struct {
	amountCalculated *big.Int
	sqrtRatioX96     *big.Int
	liquidity        *big.Int
	tick             int
}

type swapState struct {
	amountSpecifiedRemaining *big.Int
	amountCalculated         *big.Int
	sqrtPriceX96             *big.Int
	tick                     int
	liquidity                *big.Int
}

// swap walks price from the current state across initialized ticks until the
// specified amount (positive exact in, negative exact out) is consumed or
// the price limit is reached.
func (p *Pool) swap(zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int) (swapResult, error) {
	if amountSpecified.Sign() == 0 {
		return swapResult{}, fmt.Errorf("zero swap amount: %w", sdk.ErrInvalidAmount)
	}

	limit := sqrtPriceLimitX96
	if limit == nil {
		if zeroForOne {
			limit = new(big.Int).Add(v3math.MinSqrtRatio, big.NewInt(1))
		} else {
			limit = new(big.Int).Sub(v3math.MaxSqrtRatio, big.NewInt(1))
		}
	}
	if zeroForOne {
		if limit.Cmp(v3math.MinSqrtRatio) <= 0 || limit.Cmp(p.sqrtRatioX96) >= 0 {
			return swapResult{}, fmt.Errorf("price limit %s for zero for one from %s: %w", limit, p.sqrtRatioX96, sdk.ErrInvalidArgument)
		}
	} else {
		if limit.Cmp(v3math.MaxSqrtRatio) >= 0 || limit.Cmp(p.sqrtRatioX96) <= 0 {
			return swapResult{}, fmt.Errorf("price limit %s for one for zero from %s: %w", limit, p.sqrtRatioX96, sdk.ErrInvalidArgument)
		}
	}

	exactInput := amountSpecified.Sign() > 0
	state := swapState{
		amountSpecifiedRemaining: new(big.Int).Set(amountSpecified),
		amountCalculated:         new(big.Int),
		sqrtPriceX96:             new(big.Int).Set(p.sqrtRatioX96),
		tick:                     p.tickCurrent,
		liquidity:                new(big.Int).Set(p.liquidity),
	}

	for state.amountSpecifiedRemaining.Sign() != 0 && state.sqrtPriceX96.Cmp(limit) != 0 {
		sqrtPriceStart := state.sqrtPriceX96
		tickNext, initialized, err := p.ticks.NextInitializedTickWithinOneWord(state.tick, zeroForOne, p.tickSpacing)
		if err != nil {
			return swapResult{}, fmt.Errorf("next tick from %d: %w", state.tick, err)
		}
		if tickNext < v3math.MinTick {
			tickNext = v3math.MinTick
		} else if tickNext > v3math.MaxTick {
			tickNext = v3math.MaxTick
		}

		sqrtPriceNext, err := v3math.GetSqrtRatioAtTick(tickNext)
		if err != nil {
			return swapResult{}, err
		}
		target := sqrtPriceNext
		if (zeroForOne && sqrtPriceNext.Cmp(limit) < 0) || (!zeroForOne && sqrtPriceNext.Cmp(limit) > 0) {
			target = limit
		}

		step, err := v3math.ComputeSwapStep(state.sqrtPriceX96, target, state.liquidity, state.amountSpecifiedRemaining, p.fee)
		if err != nil {
			return swapResult{}, err
		}
		state.sqrtPriceX96 = step.SqrtRatioNextX96

		if exactInput {
			state.amountSpecifiedRemaining.Sub(state.amountSpecifiedRemaining, new(big.Int).Add(step.AmountIn, step.FeeAmount))
			state.amountCalculated.Sub(state.amountCalculated, step.AmountOut)
		} else {
			state.amountSpecifiedRemaining.Add(state.amountSpecifiedRemaining, step.AmountOut)
			state.amountCalculated.Add(state.amountCalculated, new(big.Int).Add(step.AmountIn, step.FeeAmount))
		}

		if state.sqrtPriceX96.Cmp(sqrtPriceNext) == 0 {
			if initialized {
				t, err := p.ticks.GetTick(tickNext)
				if err != nil {
					return swapResult{}, fmt.Errorf("cross tick %d: %w", tickNext, err)
				}
				net := new(big.Int).Set(t.LiquidityNet)
				if zeroForOne {
					net.Neg(net)
				}
				if state.liquidity, err = v3math.AddDelta(state.liquidity, net); err != nil {
					return swapResult{}, fmt.Errorf("cross tick %d: %w", tickNext, err)
				}
			}
			if zeroForOne {
				state.tick = tickNext - 1
			} else {
				state.tick = tickNext
			}
		} else if state.sqrtPriceX96.Cmp(sqrtPriceStart) != 0 {
			if state.tick, err = v3math.GetTickAtSqrtRatio(state.sqrtPriceX96); err != nil {
				return swapResult{}, err
			}
		}
	}

	if state.amountSpecifiedRemaining.Sign() != 0 {
		return swapResult{}, fmt.Errorf("%s left unfilled at price limit: %w", state.amountSpecifiedRemaining, sdk.ErrInsufficientLiquidity)
	}

	return swapResult{
		amountCalculated: state.amountCalculated,
		sqrtRatioX96:     state.sqrtPriceX96,
		liquidity:        state.liquidity,
		tick:             state.tick,
	}, nil
}
