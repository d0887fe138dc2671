package v3

import (
	"math/big"

	"v3kit/internal/sdk"
	"v3kit/internal/v3math"
)

// TickToPrice returns the price of base in quote at tick.
func TickToPrice(base, quote sdk.Currency, tick int) (sdk.Price, error) {
	sqrtRatioX96, err := v3math.GetSqrtRatioAtTick(tick)
	if err != nil {
		return sdk.Price{}, err
	}
	ratioX192 := new(big.Int).Mul(sqrtRatioX96, sqrtRatioX96)
	sorted, err := base.SortsBefore(quote)
	if err != nil {
		return sdk.Price{}, err
	}
	if sorted {
		return sdk.NewPrice(base, quote, v3math.Q192, ratioX192)
	}
	return sdk.NewPrice(base, quote, ratioX192, v3math.Q192)
}

// PriceToClosestTick returns the greatest tick whose price does not exceed
// price, measured in the pool's token1/token0 direction.
func PriceToClosestTick(price sdk.Price) (int, error) {
	base, quote := price.BaseCurrency(), price.QuoteCurrency()
	sorted, err := base.SortsBefore(quote)
	if err != nil {
		return 0, err
	}
	raw := price.AsFraction()
	var sqrtRatioX96 *big.Int
	if sorted {
		sqrtRatioX96, err = v3math.EncodeSqrtRatioX96(raw.Numerator(), raw.Denominator())
	} else {
		sqrtRatioX96, err = v3math.EncodeSqrtRatioX96(raw.Denominator(), raw.Numerator())
	}
	if err != nil {
		return 0, err
	}
	tick, err := v3math.GetTickAtSqrtRatio(sqrtRatioX96)
	if err != nil {
		return 0, err
	}
	next, err := TickToPrice(base, quote, tick+1)
	if err != nil {
		return 0, err
	}
	if sorted {
		if !raw.LessThan(next.AsFraction()) {
			tick++
		}
	} else if !raw.GreaterThan(next.AsFraction()) {
		tick++
	}
	return tick, nil
}
