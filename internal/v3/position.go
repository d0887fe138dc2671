package v3

import (
	"fmt"
	"math/big"

	"v3kit/internal/sdk"
	"v3kit/internal/v3math"
)

// Position is liquidity provided over [TickLower, TickUpper) in a pool.
type Position struct {
	pool      *Pool
	tickLower int
	tickUpper int
	liquidity *big.Int
}

// Amounts is a pair of raw token0/token1 amounts.
type Amounts struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

func NewPosition(pool *Pool, tickLower, tickUpper int, liquidity *big.Int) (*Position, error) {
	if tickLower >= tickUpper {
		return nil, fmt.Errorf("tick order %d >= %d: %w", tickLower, tickUpper, sdk.ErrInvalidArgument)
	}
	if tickLower < v3math.MinTick || tickUpper > v3math.MaxTick {
		return nil, fmt.Errorf("ticks [%d, %d]: %w", tickLower, tickUpper, sdk.ErrTickOutOfRange)
	}
	if tickLower%pool.tickSpacing != 0 || tickUpper%pool.tickSpacing != 0 {
		return nil, fmt.Errorf("ticks [%d, %d] not aligned to spacing %d: %w", tickLower, tickUpper, pool.tickSpacing, sdk.ErrInvalidArgument)
	}
	if liquidity == nil || liquidity.Sign() < 0 {
		return nil, fmt.Errorf("liquidity %v: %w", liquidity, sdk.ErrInvalidArgument)
	}
	return &Position{
		pool:      pool,
		tickLower: tickLower,
		tickUpper: tickUpper,
		liquidity: new(big.Int).Set(liquidity),
	}, nil
}

func (p *Position) Pool() *Pool         { return p.pool }
func (p *Position) TickLower() int      { return p.tickLower }
func (p *Position) TickUpper() int      { return p.tickUpper }
func (p *Position) Liquidity() *big.Int { return new(big.Int).Set(p.liquidity) }

func (p *Position) sqrtBounds() (*big.Int, *big.Int) {
	// ticks were range checked at construction
	lower, _ := v3math.GetSqrtRatioAtTick(p.tickLower)
	upper, _ := v3math.GetSqrtRatioAtTick(p.tickUpper)
	return lower, upper
}

// amounts returns the token amounts represented by the position at the
// pool's current price.
func (p *Position) amounts(roundUp bool) Amounts {
	lower, upper := p.sqrtBounds()
	price := p.pool.sqrtRatioX96
	switch {
	case p.pool.tickCurrent < p.tickLower:
		return Amounts{
			Amount0: v3math.GetAmount0Delta(lower, upper, p.liquidity, roundUp),
			Amount1: new(big.Int),
		}
	case p.pool.tickCurrent < p.tickUpper:
		return Amounts{
			Amount0: v3math.GetAmount0Delta(price, upper, p.liquidity, roundUp),
			Amount1: v3math.GetAmount1Delta(lower, price, p.liquidity, roundUp),
		}
	default:
		return Amounts{
			Amount0: new(big.Int),
			Amount1: v3math.GetAmount1Delta(lower, upper, p.liquidity, roundUp),
		}
	}
}

// Amount0 is the token0 value of the position, rounded down.
func (p *Position) Amount0() sdk.CurrencyAmount {
	a, _ := sdk.FromRawAmount(p.pool.token0, p.amounts(false).Amount0)
	return a
}

// Amount1 is the token1 value of the position, rounded down.
func (p *Position) Amount1() sdk.CurrencyAmount {
	a, _ := sdk.FromRawAmount(p.pool.token1, p.amounts(false).Amount1)
	return a
}

// MintAmounts are the token amounts needed to mint the position's liquidity
// at the current price, rounded up.
func (p *Position) MintAmounts() Amounts {
	return p.amounts(true)
}

// TokenPriceLower is the price of token0 in token1 at the lower tick.
func (p *Position) TokenPriceLower() (sdk.Price, error) {
	return TickToPrice(p.pool.token0, p.pool.token1, p.tickLower)
}

// TokenPriceUpper is the price of token0 in token1 at the upper tick.
func (p *Position) TokenPriceUpper() (sdk.Price, error) {
	return TickToPrice(p.pool.token0, p.pool.token1, p.tickUpper)
}

// ratiosAfterSlippage returns the sqrt prices at token0Price scaled by
// (1 - tolerance) and (1 + tolerance), clamped inside the protocol range.
func (p *Position) ratiosAfterSlippage(tolerance sdk.Percent) (*big.Int, *big.Int, error) {
	if !tolerance.IsSet() {
		return nil, nil, fmt.Errorf("slippage not set: %w", sdk.ErrInvalidArgument)
	}
	if tolerance.LessThan(sdk.FractionFromInt(0, 1)) {
		return nil, nil, fmt.Errorf("slippage %s: %w", tolerance, sdk.ErrInvalidArgument)
	}
	one := sdk.FractionFromInt(1, 1)
	price := p.pool.Token0Price().AsFraction()
	priceLower := price.Multiply(one.Subtract(tolerance.Fraction))
	priceUpper := price.Multiply(one.Add(tolerance.Fraction))

	var sqrtLower *big.Int
	if priceLower.Numerator().Sign() <= 0 {
		sqrtLower = new(big.Int).Add(v3math.MinSqrtRatio, big.NewInt(1))
	} else {
		var err error
		if sqrtLower, err = v3math.EncodeSqrtRatioX96(priceLower.Numerator(), priceLower.Denominator()); err != nil {
			return nil, nil, err
		}
		if sqrtLower.Cmp(v3math.MinSqrtRatio) <= 0 {
			sqrtLower = new(big.Int).Add(v3math.MinSqrtRatio, big.NewInt(1))
		}
	}
	sqrtUpper, err := v3math.EncodeSqrtRatioX96(priceUpper.Numerator(), priceUpper.Denominator())
	if err != nil {
		return nil, nil, err
	}
	if sqrtUpper.Cmp(v3math.MaxSqrtRatio) >= 0 {
		sqrtUpper = new(big.Int).Sub(v3math.MaxSqrtRatio, big.NewInt(1))
	}
	return sqrtLower, sqrtUpper, nil
}

// atPrice returns the same range and liquidity on an empty copy of the pool
// moved to sqrtRatioX96.
func (p *Position) atPrice(sqrtRatioX96, liquidity *big.Int) (*Position, error) {
	tick, err := v3math.GetTickAtSqrtRatio(sqrtRatioX96)
	if err != nil {
		return nil, err
	}
	moved := *p.pool
	moved.sqrtRatioX96 = sqrtRatioX96
	moved.liquidity = new(big.Int)
	moved.tickCurrent = tick
	return NewPosition(&moved, p.tickLower, p.tickUpper, liquidity)
}

// BurnAmountsWithSlippage returns the minimum amounts to accept when burning
// the position: for each token, the smallest amount over the current price
// and the prices shifted down and up by tolerance.
func (p *Position) BurnAmountsWithSlippage(tolerance sdk.Percent) (Amounts, error) {
	sqrtLower, sqrtUpper, err := p.ratiosAfterSlippage(tolerance)
	if err != nil {
		return Amounts{}, err
	}
	lowerPos, err := p.atPrice(sqrtLower, p.liquidity)
	if err != nil {
		return Amounts{}, err
	}
	upperPos, err := p.atPrice(sqrtUpper, p.liquidity)
	if err != nil {
		return Amounts{}, err
	}

	current := p.amounts(false)
	atLower := lowerPos.amounts(false)
	atUpper := upperPos.amounts(false)
	return Amounts{
		Amount0: minBig(current.Amount0, atLower.Amount0, atUpper.Amount0),
		Amount1: minBig(current.Amount1, atLower.Amount1, atUpper.Amount1),
	}, nil
}

// MintAmountsWithSlippage returns the amount0Min/amount1Min pair for a mint:
// what the position actually created by the periphery contract needs at the
// edges of the slippage band. token0 is smallest at the upper price, token1
// at the lower.
func (p *Position) MintAmountsWithSlippage(tolerance sdk.Percent) (Amounts, error) {
	sqrtLower, sqrtUpper, err := p.ratiosAfterSlippage(tolerance)
	if err != nil {
		return Amounts{}, err
	}
	mint := p.MintAmounts()
	created, err := PositionFromAmounts(p.pool, p.tickLower, p.tickUpper, mint.Amount0, mint.Amount1, false)
	if err != nil {
		return Amounts{}, err
	}
	upperPos, err := p.atPrice(sqrtUpper, created.liquidity)
	if err != nil {
		return Amounts{}, err
	}
	lowerPos, err := p.atPrice(sqrtLower, created.liquidity)
	if err != nil {
		return Amounts{}, err
	}
	return Amounts{
		Amount0: upperPos.MintAmounts().Amount0,
		Amount1: lowerPos.MintAmounts().Amount1,
	}, nil
}

// Scale returns the position with floor(liquidity * pct) liquidity, the
// share removed by a partial withdrawal.
func (p *Position) Scale(pct sdk.Percent) (*Position, error) {
	if pct.LessThan(sdk.FractionFromInt(0, 1)) || pct.GreaterThan(sdk.FractionFromInt(1, 1)) {
		return nil, fmt.Errorf("liquidity share %s: %w", pct.Fraction, sdk.ErrInvalidArgument)
	}
	part := sdk.FractionFromBig(p.liquidity).Multiply(pct.Fraction).Quotient()
	return NewPosition(p.pool, p.tickLower, p.tickUpper, part)
}

// PositionFromAmounts returns the largest position the amounts can fund.
// useFullPrecision false reproduces the periphery contract's rounding.
func PositionFromAmounts(pool *Pool, tickLower, tickUpper int, amount0, amount1 *big.Int, useFullPrecision bool) (*Position, error) {
	lower, err := v3math.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	upper, err := v3math.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}
	liquidity, err := v3math.MaxLiquidityForAmounts(pool.sqrtRatioX96, lower, upper, amount0, amount1, useFullPrecision)
	if err != nil {
		return nil, err
	}
	return NewPosition(pool, tickLower, tickUpper, liquidity)
}

// PositionFromAmount0 funds the position with token0 alone.
func PositionFromAmount0(pool *Pool, tickLower, tickUpper int, amount0 *big.Int, useFullPrecision bool) (*Position, error) {
	return PositionFromAmounts(pool, tickLower, tickUpper, amount0, v3math.MaxUint256, useFullPrecision)
}

// PositionFromAmount1 funds the position with token1 alone.
func PositionFromAmount1(pool *Pool, tickLower, tickUpper int, amount1 *big.Int) (*Position, error) {
	return PositionFromAmounts(pool, tickLower, tickUpper, v3math.MaxUint256, amount1, true)
}

func minBig(first *big.Int, rest ...*big.Int) *big.Int {
	out := first
	for _, v := range rest {
		if v.Cmp(out) < 0 {
			out = v
		}
	}
	return new(big.Int).Set(out)
}
