package replay

import (
	"fmt"
	"math/big"

	"v3kit/internal/model"
	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

type tickLiquidity struct {
	net   *big.Int
	gross *big.Int
}

// poolState is the mutable pool the replay walks forward. Swaps overwrite
// price, tick and active liquidity with what the chain reported; mints and
// burns update active liquidity and the loaded ticks.
type poolState struct {
	token0  sdk.Currency
	token1  sdk.Currency
	fee     int
	spacing int

	sqrtPrice *big.Int
	tick      int
	liquidity *big.Int

	// window is nil when no ticks were loaded.
	window *model.TickWindow
	ticks  map[int]tickLiquidity
}

func newPoolState(snap model.PoolSnapshot) (*poolState, error) {
	token0, err := snap.Token0.Currency(snap.ChainID)
	if err != nil {
		return nil, fmt.Errorf("token0: %w", err)
	}
	token1, err := snap.Token1.Currency(snap.ChainID)
	if err != nil {
		return nil, fmt.Errorf("token1: %w", err)
	}
	sqrtPrice, err := parseBig("sqrt price", snap.SqrtPriceX96)
	if err != nil {
		return nil, err
	}
	liquidity, err := parseBig("liquidity", snap.Liquidity)
	if err != nil {
		return nil, err
	}

	s := &poolState{
		token0:    token0,
		token1:    token1,
		fee:       int(snap.Fee),
		spacing:   int(snap.TickSpacing),
		sqrtPrice: sqrtPrice,
		tick:      int(snap.Tick),
		liquidity: liquidity,
		ticks:     make(map[int]tickLiquidity),
	}
	if snap.TickWindow != nil {
		s.window = &model.TickWindow{Lower: snap.TickWindow.Lower, Upper: snap.TickWindow.Upper}
		for _, rec := range snap.TickWindow.Ticks {
			net, err := parseBig("liquidity net", rec.LiquidityNet)
			if err != nil {
				return nil, err
			}
			gross, err := parseBig("liquidity gross", rec.LiquidityGross)
			if err != nil {
				return nil, err
			}
			s.ticks[int(rec.Index)] = tickLiquidity{net: net, gross: gross}
		}
	}
	return s, nil
}

// pool freezes the current state into a simulator pool.
func (s *poolState) pool() (*v3.Pool, error) {
	params := v3.PoolParams{
		TokenA:       s.token0,
		TokenB:       s.token1,
		Fee:          s.fee,
		SqrtPriceX96: s.sqrtPrice,
		Liquidity:    s.liquidity,
		Tick:         s.tick,
		TickSpacing:  s.spacing,
	}
	if s.window != nil {
		ticks := make([]v3.Tick, 0, len(s.ticks))
		for index, liq := range s.ticks {
			ticks = append(ticks, v3.Tick{Index: index, LiquidityNet: liq.net, LiquidityGross: liq.gross})
		}
		provider, err := v3.NewTickWindow(ticks, s.spacing, int(s.window.Lower), int(s.window.Upper))
		if err != nil {
			return nil, err
		}
		params.Ticks = provider
	}
	return v3.NewPool(params)
}

// applyPosition adds delta liquidity to [lower, upper); burns pass a negative delta.
func (s *poolState) applyPosition(lower, upper int, delta *big.Int) error {
	if lower >= upper {
		return fmt.Errorf("position [%d, %d]: %w", lower, upper, sdk.ErrInvalidArgument)
	}
	if lower <= s.tick && s.tick < upper {
		next := new(big.Int).Add(s.liquidity, delta)
		if next.Sign() < 0 {
			return fmt.Errorf("active liquidity %s with delta %s below zero: %w", s.liquidity, delta, sdk.ErrInsufficientLiquidity)
		}
		s.liquidity = next
	}
	if s.window == nil {
		return nil
	}
	s.updateTick(lower, delta, delta)
	s.updateTick(upper, new(big.Int).Neg(delta), delta)
	return nil
}

func (s *poolState) updateTick(index int, netDelta, grossDelta *big.Int) {
	if index < int(s.window.Lower) || index > int(s.window.Upper) {
		return
	}
	cur, ok := s.ticks[index]
	if !ok {
		cur = tickLiquidity{net: new(big.Int), gross: new(big.Int)}
	}
	next := tickLiquidity{
		net:   new(big.Int).Add(cur.net, netDelta),
		gross: new(big.Int).Add(cur.gross, grossDelta),
	}
	if next.gross.Sign() <= 0 {
		delete(s.ticks, index)
		return
	}
	s.ticks[index] = next
}

func parseBig(field, text string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", field, text, sdk.ErrParse)
	}
	return n, nil
}
