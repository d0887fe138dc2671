package replay

import (
	"fmt"
	"math/big"

	"v3kit/internal/model"
	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

// applySwap moves the state to the post-swap values the chain reported.
func (s *poolState) applySwap(swap *model.SwapEventData) error {
	sqrtPrice, err := parseBig("sqrt price", swap.SqrtPriceX96)
	if err != nil {
		return err
	}
	liquidity, err := parseBig("liquidity", swap.Liquidity)
	if err != nil {
		return err
	}
	s.sqrtPrice = sqrtPrice
	s.tick = int(swap.Tick)
	s.liquidity = liquidity
	return nil
}

// replaySwap simulates swap from the current state. The amount the pool
// received is tried as an exact input first; if that does not land on the
// chain's result, the amount it paid out is tried as an exact output.
func (s *poolState) replaySwap(swap *model.SwapEventData) model.ReplayResult {
	res := model.ReplayResult{ChainSqrtPrice: swap.SqrtPriceX96, ChainTick: swap.Tick}
	fail := func(err error) model.ReplayResult {
		res.Error = err.Error()
		return res
	}

	amount0, err := parseBig("amount0", swap.Amount0)
	if err != nil {
		return fail(err)
	}
	amount1, err := parseBig("amount1", swap.Amount1)
	if err != nil {
		return fail(err)
	}
	chainSqrt, err := parseBig("sqrt price", swap.SqrtPriceX96)
	if err != nil {
		return fail(err)
	}

	var (
		tokenIn, tokenOut   sdk.Currency
		amountIn, amountOut *big.Int
	)
	switch {
	case amount0.Sign() > 0:
		tokenIn, tokenOut, amountIn, amountOut = s.token0, s.token1, amount0, new(big.Int).Neg(amount1)
	case amount1.Sign() > 0:
		tokenIn, tokenOut, amountIn, amountOut = s.token1, s.token0, amount1, new(big.Int).Neg(amount0)
	default:
		res.Skipped = true
		res.Error = "swap paid nothing into the pool"
		return res
	}

	pool, err := s.pool()
	if err != nil {
		return fail(fmt.Errorf("build pool: %w", err))
	}

	res.TradeType = v3.ExactInput.String()
	res.AmountSpecified = amountIn.String()
	res.ChainAmount = amountOut.String()
	input, err := sdk.FromRawAmount(tokenIn, amountIn)
	if err != nil {
		return fail(err)
	}
	simOut, after, errIn := pool.GetOutputAmount(input, nil)
	if errIn == nil {
		res.SimAmount = simOut.Quotient().String()
		res.SimSqrtPrice = after.SqrtRatioX96().String()
		res.SimTick = int32(after.TickCurrent())
		if simOut.Quotient().Cmp(amountOut) == 0 && after.SqrtRatioX96().Cmp(chainSqrt) == 0 {
			res.Match = true
			return res
		}
	}

	if amountOut.Sign() > 0 {
		output, err := sdk.FromRawAmount(tokenOut, amountOut)
		if err != nil {
			return fail(err)
		}
		simIn, after, err := pool.GetInputAmount(output, nil)
		if err == nil && simIn.Quotient().Cmp(amountIn) == 0 && after.SqrtRatioX96().Cmp(chainSqrt) == 0 {
			res.TradeType = v3.ExactOutput.String()
			res.AmountSpecified = amountOut.String()
			res.ChainAmount = amountIn.String()
			res.SimAmount = simIn.Quotient().String()
			res.SimSqrtPrice = after.SqrtRatioX96().String()
			res.SimTick = int32(after.TickCurrent())
			res.Match = true
			return res
		}
	}

	if errIn != nil {
		return fail(errIn)
	}
	return res
}
