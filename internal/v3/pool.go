package v3

import (
	"fmt"
	"math/big"

	"v3kit/internal/sdk"
	"v3kit/internal/v3math"
)

// Fee tiers in hundredths of a bip.
const (
	FeeLowest        = 100
	FeeLow           = 500
	FeePancakeMedium = 2500
	FeeMedium        = 3000
	FeeHigh          = 10000
)

var feeTickSpacing = map[int]int{
	FeeLowest:        1,
	FeeLow:           10,
	FeePancakeMedium: 50,
	FeeMedium:        60,
	FeeHigh:          200,
}

// TickSpacingForFee returns the protocol tick spacing of a known fee tier.
func TickSpacingForFee(fee int) (int, bool) {
	spacing, ok := feeTickSpacing[fee]
	return spacing, ok
}

// PoolParams describes a pool snapshot as read from chain. SqrtPriceX96 is
// always the canonical token1/token0 price regardless of the order TokenA and
// TokenB are given in.
type PoolParams struct {
	TokenA       sdk.Currency
	TokenB       sdk.Currency
	Fee          int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int
	// TickSpacing overrides the fee table when non-zero.
	TickSpacing int
	// Ticks defaults to NoTickData.
	Ticks TickDataProvider
}

// Pool is an immutable snapshot of one concentrated-liquidity pool.
type Pool struct {
	token0       sdk.Currency
	token1       sdk.Currency
	fee          int
	sqrtRatioX96 *big.Int
	liquidity    *big.Int
	tickCurrent  int
	tickSpacing  int
	ticks        TickDataProvider
	swapped      bool
}

func NewPool(p PoolParams) (*Pool, error) {
	if p.Fee < 0 || p.Fee >= v3math.MaxFee {
		return nil, fmt.Errorf("fee %d: %w", p.Fee, sdk.ErrInvalidArgument)
	}
	aFirst, err := p.TokenA.SortsBefore(p.TokenB)
	if err != nil {
		return nil, fmt.Errorf("pool tokens: %w", err)
	}
	token0, token1 := p.TokenA, p.TokenB
	if !aFirst {
		token0, token1 = p.TokenB, p.TokenA
	}

	spacing := p.TickSpacing
	if spacing == 0 {
		var ok bool
		if spacing, ok = TickSpacingForFee(p.Fee); !ok {
			return nil, fmt.Errorf("no tick spacing for fee %d: %w", p.Fee, sdk.ErrInvalidArgument)
		}
	}
	if spacing < 0 {
		return nil, fmt.Errorf("tick spacing %d: %w", spacing, sdk.ErrInvalidArgument)
	}

	if p.SqrtPriceX96 == nil || p.Liquidity == nil {
		return nil, fmt.Errorf("missing sqrt price or liquidity: %w", sdk.ErrInvalidArgument)
	}
	if p.Liquidity.Sign() < 0 {
		return nil, fmt.Errorf("liquidity %s: %w", p.Liquidity, sdk.ErrInvalidArgument)
	}
	lower, err := v3math.GetSqrtRatioAtTick(p.Tick)
	if err != nil {
		return nil, err
	}
	upper, err := v3math.GetSqrtRatioAtTick(p.Tick + 1)
	if err != nil {
		return nil, err
	}
	if p.SqrtPriceX96.Cmp(lower) < 0 || p.SqrtPriceX96.Cmp(upper) > 0 {
		return nil, fmt.Errorf("sqrt price %s outside tick %d: %w", p.SqrtPriceX96, p.Tick, sdk.ErrInvalidArgument)
	}

	ticks := p.Ticks
	if ticks == nil {
		ticks = NoTickData{}
	}
	return &Pool{
		token0:       token0,
		token1:       token1,
		fee:          p.Fee,
		sqrtRatioX96: new(big.Int).Set(p.SqrtPriceX96),
		liquidity:    new(big.Int).Set(p.Liquidity),
		tickCurrent:  p.Tick,
		tickSpacing:  spacing,
		ticks:        ticks,
		swapped:      !aFirst,
	}, nil
}

func (p *Pool) Token0() sdk.Currency { return p.token0 }
func (p *Pool) Token1() sdk.Currency { return p.token1 }
func (p *Pool) Fee() int             { return p.fee }
func (p *Pool) TickCurrent() int     { return p.tickCurrent }
func (p *Pool) TickSpacing() int     { return p.tickSpacing }
func (p *Pool) ChainID() uint64      { return p.token0.ChainID }

// Swapped reports whether the constructor reversed the caller's token order.
func (p *Pool) Swapped() bool { return p.swapped }

func (p *Pool) SqrtRatioX96() *big.Int { return new(big.Int).Set(p.sqrtRatioX96) }
func (p *Pool) Liquidity() *big.Int    { return new(big.Int).Set(p.liquidity) }

func (p *Pool) TickDataProvider() TickDataProvider { return p.ticks }

// InvolvesToken reports whether c is token0 or token1.
func (p *Pool) InvolvesToken(c sdk.Currency) bool {
	return c.Equal(p.token0) || c.Equal(p.token1)
}

// Same reports whether other is the same market: identical tokens and fee,
// whatever the current price or liquidity.
func (p *Pool) Same(other *Pool) bool {
	return p.token0.Equal(other.token0) && p.token1.Equal(other.token1) && p.fee == other.fee
}

// Token0Price is the price of token0 in token1.
func (p *Pool) Token0Price() sdk.Price {
	ratioX192 := new(big.Int).Mul(p.sqrtRatioX96, p.sqrtRatioX96)
	price, _ := sdk.NewPrice(p.token0, p.token1, v3math.Q192, ratioX192)
	return price
}

// Token1Price is the price of token1 in token0.
func (p *Pool) Token1Price() sdk.Price {
	ratioX192 := new(big.Int).Mul(p.sqrtRatioX96, p.sqrtRatioX96)
	price, _ := sdk.NewPrice(p.token1, p.token0, ratioX192, v3math.Q192)
	return price
}

// PriceOf returns the price of token in the pool's other token.
func (p *Pool) PriceOf(token sdk.Currency) (sdk.Price, error) {
	switch {
	case token.Equal(p.token0):
		return p.Token0Price(), nil
	case token.Equal(p.token1):
		return p.Token1Price(), nil
	default:
		return sdk.Price{}, fmt.Errorf("%s not in pool: %w", token, sdk.ErrCurrencyMismatch)
	}
}

func (p *Pool) String() string {
	return fmt.Sprintf("%s/%s %d", p.token0, p.token1, p.fee)
}

// GetOutputAmount simulates selling input into the pool. It returns the
// output amount and the pool state after the swap. A nil sqrtPriceLimitX96
// lets price move to the protocol bound.
func (p *Pool) GetOutputAmount(input sdk.CurrencyAmount, sqrtPriceLimitX96 *big.Int) (sdk.CurrencyAmount, *Pool, error) {
	if !p.InvolvesToken(input.Currency()) {
		return sdk.CurrencyAmount{}, nil, fmt.Errorf("%s not in pool %s: %w", input.Currency(), p, sdk.ErrCurrencyMismatch)
	}
	zeroForOne := input.Currency().Equal(p.token0)
	res, err := p.swap(zeroForOne, input.Quotient(), sqrtPriceLimitX96)
	if err != nil {
		return sdk.CurrencyAmount{}, nil, err
	}
	outputToken := p.token0
	if zeroForOne {
		outputToken = p.token1
	}
	out, err := sdk.FromRawAmount(outputToken, new(big.Int).Neg(res.amountCalculated))
	if err != nil {
		return sdk.CurrencyAmount{}, nil, err
	}
	return out, p.withState(res), nil
}

// GetInputAmount simulates buying output from the pool and returns the input
// required together with the pool state after the swap.
func (p *Pool) GetInputAmount(output sdk.CurrencyAmount, sqrtPriceLimitX96 *big.Int) (sdk.CurrencyAmount, *Pool, error) {
	if !p.InvolvesToken(output.Currency()) {
		return sdk.CurrencyAmount{}, nil, fmt.Errorf("%s not in pool %s: %w", output.Currency(), p, sdk.ErrCurrencyMismatch)
	}
	zeroForOne := output.Currency().Equal(p.token1)
	res, err := p.swap(zeroForOne, new(big.Int).Neg(output.Quotient()), sqrtPriceLimitX96)
	if err != nil {
		return sdk.CurrencyAmount{}, nil, err
	}
	inputToken := p.token1
	if zeroForOne {
		inputToken = p.token0
	}
	in, err := sdk.FromRawAmount(inputToken, res.amountCalculated)
	if err != nil {
		return sdk.CurrencyAmount{}, nil, err
	}
	return in, p.withState(res), nil
}

func (p *Pool) withState(res swapResult) *Pool {
	next := *p
	next.sqrtRatioX96 = res.sqrtRatioX96
	next.liquidity = res.liquidity
	next.tickCurrent = res.tick
	return &next
}
