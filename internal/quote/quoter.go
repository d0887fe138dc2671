package quote

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

// Request asks for a trade of Amount along Route.
type Request struct {
	Route     *v3.Route
	Amount    sdk.CurrencyAmount
	TradeType v3.TradeType
	Tolerance sdk.Percent
}

// Quote is a simulated trade plus its slippage bounds.
type Quote struct {
	Trade          *v3.Trade
	ExecutionPrice sdk.Price
	PriceImpact    sdk.Percent
	MinimumOut     sdk.CurrencyAmount
	MaximumIn      sdk.CurrencyAmount
	Fingerprint    string
}

// Quoter simulates trades and memoizes them in a Cache.
type Quoter struct {
	cache  *Cache
	logger *zap.Logger
}

// NewQuoter wires a quoter. A nil cache disables memoization.
func NewQuoter(cache *Cache, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{cache: cache, logger: logger}
}

// Quote returns the quote for req and whether it came from the cache.
func (q *Quoter) Quote(ctx context.Context, req Request) (Quote, bool, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, false, err
	}
	if req.Route == nil {
		return Quote{}, false, fmt.Errorf("quote: nil route: %w", sdk.ErrInvalidRoute)
	}
	tolerance := req.Tolerance
	if !tolerance.IsSet() {
		tolerance = sdk.PercentFromFraction(sdk.FractionFromInt(0, 1))
	}

	key := Fingerprint(req.Route, req.Amount, req.TradeType, tolerance)
	if q.cache != nil {
		if cached, ok := q.cache.Get(key); ok {
			q.logger.Debug("quote cache hit", zap.String("fingerprint", key.Hex()))
			return cached, true, nil
		}
	}

	trade, err := v3.TradeFromRoute(req.Route, req.Amount, req.TradeType)
	if err != nil {
		return Quote{}, false, fmt.Errorf("quote: %w", err)
	}
	out, err := build(trade, tolerance)
	if err != nil {
		return Quote{}, false, err
	}
	out.Fingerprint = key.Hex()

	if q.cache != nil {
		q.cache.Set(key, out)
	}
	q.logger.Debug("quote computed",
		zap.String("fingerprint", out.Fingerprint),
		zap.String("trade_type", req.TradeType.String()),
		zap.String("input", trade.InputAmount().Quotient().String()),
		zap.String("output", trade.OutputAmount().Quotient().String()),
	)
	return out, false, nil
}

// Best quotes every route and keeps the one giving the most output for an
// exact-input request or needing the least input for an exact-output one.
// Routes that cannot fill the amount are skipped.
func (q *Quoter) Best(ctx context.Context, routes []*v3.Route, amount sdk.CurrencyAmount, tradeType v3.TradeType, tolerance sdk.Percent) (Quote, error) {
	var (
		best  Quote
		found bool
	)
	for i, route := range routes {
		candidate, _, err := q.Quote(ctx, Request{Route: route, Amount: amount, TradeType: tradeType, Tolerance: tolerance})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Quote{}, err
			}
			q.logger.Debug("route skipped", zap.Int("route", i), zap.Error(err))
			continue
		}
		if !found || better(candidate.Trade, best.Trade) {
			best, found = candidate, true
		}
	}
	if !found {
		return Quote{}, fmt.Errorf("quote: no route can fill %s: %w", amount.ToExact(), sdk.ErrInsufficientLiquidity)
	}
	return best, nil
}

func better(a, b *v3.Trade) bool {
	if a.TradeType() == v3.ExactInput {
		return b.OutputAmount().AsFraction().LessThan(a.OutputAmount().AsFraction())
	}
	return a.InputAmount().AsFraction().LessThan(b.InputAmount().AsFraction())
}

func build(trade *v3.Trade, tolerance sdk.Percent) (Quote, error) {
	exec, err := trade.ExecutionPrice()
	if err != nil {
		return Quote{}, fmt.Errorf("execution price: %w", err)
	}
	impact, err := trade.PriceImpact()
	if err != nil {
		return Quote{}, fmt.Errorf("price impact: %w", err)
	}
	minOut, err := trade.MinimumAmountOut(tolerance)
	if err != nil {
		return Quote{}, fmt.Errorf("minimum out: %w", err)
	}
	maxIn, err := trade.MaximumAmountIn(tolerance)
	if err != nil {
		return Quote{}, fmt.Errorf("maximum in: %w", err)
	}
	return Quote{Trade: trade, ExecutionPrice: exec, PriceImpact: impact, MinimumOut: minOut, MaximumIn: maxIn}, nil
}
