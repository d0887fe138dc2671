package dex

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"v3kit/internal/model"
	"v3kit/internal/sdk"
	"v3kit/internal/v3"
	"v3kit/internal/v3math"
)

func wordOf(tick, spacing int) int {
	compressed := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		compressed--
	}
	return compressed >> 8
}

// FetchTicks reads the tick bitmap words within radius of the word holding
// tickCurrent and loads every initialized tick found in them.
func (r *Reader) FetchTicks(ctx context.Context, pool common.Address, tickSpacing, tickCurrent, radius int, block *big.Int) (model.TickWindow, error) {
	if tickSpacing <= 0 || radius < 0 {
		return model.TickWindow{}, fmt.Errorf("fetch ticks: spacing %d radius %d: %w", tickSpacing, radius, sdk.ErrInvalidArgument)
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.TickWindow{}, fmt.Errorf("parse pool abi: %w", err)
	}

	center := wordOf(tickCurrent, tickSpacing)
	first := max(center-radius, wordOf(v3math.MinTick, tickSpacing), math.MinInt16)
	last := min(center+radius, wordOf(v3math.MaxTick, tickSpacing), math.MaxInt16)
	lower, upper := v3.WordBounds(first, last, tickSpacing)
	window := model.TickWindow{Lower: int32(max(lower, v3math.MinTick)), Upper: int32(min(upper, v3math.MaxTick))}

	for word := first; word <= last; word++ {
		values, err := r.call(ctx, pool, poolABI, "tickBitmap", block, int16(word))
		if err != nil {
			return model.TickWindow{}, err
		}
		bitmap, err := asBigInt(values[0])
		if err != nil {
			return model.TickWindow{}, fmt.Errorf("tick bitmap word %d: %w", word, err)
		}
		for bit := 0; bit < 256; bit++ {
			if bitmap.Bit(bit) == 0 {
				continue
			}
			index := ((word << 8) + bit) * tickSpacing
			record, err := r.fetchTick(ctx, pool, index, block)
			if err != nil {
				return model.TickWindow{}, err
			}
			window.Ticks = append(window.Ticks, record)
		}
	}
	r.logger.Debug("ticks loaded",
		zap.String("pool", pool.Hex()),
		zap.Int("first_word", first),
		zap.Int("last_word", last),
		zap.Int("initialized", len(window.Ticks)),
	)
	return window, nil
}

func (r *Reader) fetchTick(ctx context.Context, pool common.Address, index int, block *big.Int) (model.TickRecord, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.TickRecord{}, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := r.call(ctx, pool, poolABI, "ticks", block, big.NewInt(int64(index)))
	if err != nil {
		return model.TickRecord{}, err
	}
	if len(values) < 2 {
		return model.TickRecord{}, fmt.Errorf("ticks(%d): %d values", index, len(values))
	}
	gross, err := asBigInt(values[0])
	if err != nil {
		return model.TickRecord{}, fmt.Errorf("tick %d gross: %w", index, err)
	}
	net, err := asBigInt(values[1])
	if err != nil {
		return model.TickRecord{}, fmt.Errorf("tick %d net: %w", index, err)
	}
	return model.TickRecord{Index: int32(index), LiquidityNet: net.String(), LiquidityGross: gross.String()}, nil
}

// PoolFromSnapshot builds a simulator pool. With a tick window the pool can
// swap across every tick in it; without one it is limited to the current
// tick-spacing interval.
func PoolFromSnapshot(snap model.PoolSnapshot) (*v3.Pool, error) {
	token0, err := snap.Token0.Currency(snap.ChainID)
	if err != nil {
		return nil, fmt.Errorf("token0: %w", err)
	}
	token1, err := snap.Token1.Currency(snap.ChainID)
	if err != nil {
		return nil, fmt.Errorf("token1: %w", err)
	}
	sqrtPrice, ok := new(big.Int).SetString(snap.SqrtPriceX96, 10)
	if !ok {
		return nil, fmt.Errorf("sqrt price %q: %w", snap.SqrtPriceX96, sdk.ErrParse)
	}
	liquidity, ok := new(big.Int).SetString(snap.Liquidity, 10)
	if !ok {
		return nil, fmt.Errorf("liquidity %q: %w", snap.Liquidity, sdk.ErrParse)
	}

	params := v3.PoolParams{
		TokenA:       token0,
		TokenB:       token1,
		Fee:          int(snap.Fee),
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
		Tick:         int(snap.Tick),
		TickSpacing:  int(snap.TickSpacing),
	}
	if window := snap.TickWindow; window != nil {
		ticks, err := toTicks(window.Ticks)
		if err != nil {
			return nil, err
		}
		provider, err := v3.NewTickWindow(ticks, int(snap.TickSpacing), int(window.Lower), int(window.Upper))
		if err != nil {
			return nil, err
		}
		params.Ticks = provider
	}
	return v3.NewPool(params)
}

func toTicks(records []model.TickRecord) ([]v3.Tick, error) {
	ticks := make([]v3.Tick, 0, len(records))
	for _, rec := range records {
		net, ok := new(big.Int).SetString(rec.LiquidityNet, 10)
		if !ok {
			return nil, fmt.Errorf("tick %d liquidity net %q: %w", rec.Index, rec.LiquidityNet, sdk.ErrParse)
		}
		gross, ok := new(big.Int).SetString(rec.LiquidityGross, 10)
		if !ok {
			return nil, fmt.Errorf("tick %d liquidity gross %q: %w", rec.Index, rec.LiquidityGross, sdk.ErrParse)
		}
		ticks = append(ticks, v3.Tick{Index: int(rec.Index), LiquidityNet: net, LiquidityGross: gross})
	}
	return ticks, nil
}
