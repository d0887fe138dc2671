package v3

import (
	"fmt"

	"v3kit/internal/sdk"
)

// TradeType selects which side of a trade is fixed by the caller.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	switch t {
	case ExactInput:
		return "exact_input"
	case ExactOutput:
		return "exact_output"
	default:
		return fmt.Sprintf("trade_type(%d)", int(t))
	}
}

// ParseTradeType accepts "exact_input"/"in" and "exact_output"/"out".
func ParseTradeType(s string) (TradeType, error) {
	switch s {
	case "exact_input", "in":
		return ExactInput, nil
	case "exact_output", "out":
		return ExactOutput, nil
	default:
		return 0, fmt.Errorf("trade type %q: %w", s, sdk.ErrParse)
	}
}

// Trade is a route with both of its amounts known.
type Trade struct {
	route     *Route
	input     sdk.CurrencyAmount
	output    sdk.CurrencyAmount
	tradeType TradeType
}

// CreateUncheckedTrade builds a trade from amounts the caller already has,
// typically an on-chain quote, checking only their currencies.
func CreateUncheckedTrade(route *Route, input, output sdk.CurrencyAmount, tradeType TradeType) (*Trade, error) {
	if !input.Currency().Equal(route.input) {
		return nil, fmt.Errorf("input %s, route starts at %s: %w", input.Currency(), route.input, sdk.ErrCurrencyMismatch)
	}
	if !output.Currency().Equal(route.output) {
		return nil, fmt.Errorf("output %s, route ends at %s: %w", output.Currency(), route.output, sdk.ErrCurrencyMismatch)
	}
	if tradeType != ExactInput && tradeType != ExactOutput {
		return nil, fmt.Errorf("%s: %w", tradeType, sdk.ErrInvalidArgument)
	}
	return &Trade{route: route, input: input, output: output, tradeType: tradeType}, nil
}

// TradeFromRoute simulates amount through every pool of the route. For
// ExactInput amount is in the route's input currency; for ExactOutput it is
// in the output currency and the pools are walked backwards.
func TradeFromRoute(route *Route, amount sdk.CurrencyAmount, tradeType TradeType) (*Trade, error) {
	switch tradeType {
	case ExactInput:
		if !amount.Currency().Equal(route.input) {
			return nil, fmt.Errorf("amount in %s, route starts at %s: %w", amount.Currency(), route.input, sdk.ErrCurrencyMismatch)
		}
		current := amount
		for i, pool := range route.pools {
			out, _, err := pool.GetOutputAmount(current, nil)
			if err != nil {
				return nil, fmt.Errorf("pool %d (%s): %w", i, pool, err)
			}
			current = out
		}
		return CreateUncheckedTrade(route, amount, current, tradeType)

	case ExactOutput:
		if !amount.Currency().Equal(route.output) {
			return nil, fmt.Errorf("amount in %s, route ends at %s: %w", amount.Currency(), route.output, sdk.ErrCurrencyMismatch)
		}
		current := amount
		for i := len(route.pools) - 1; i >= 0; i-- {
			in, _, err := route.pools[i].GetInputAmount(current, nil)
			if err != nil {
				return nil, fmt.Errorf("pool %d (%s): %w", i, route.pools[i], err)
			}
			current = in
		}
		return CreateUncheckedTrade(route, current, amount, tradeType)

	default:
		return nil, fmt.Errorf("%s: %w", tradeType, sdk.ErrInvalidArgument)
	}
}

func (t *Trade) Route() *Route                    { return t.route }
func (t *Trade) InputAmount() sdk.CurrencyAmount  { return t.input }
func (t *Trade) OutputAmount() sdk.CurrencyAmount { return t.output }
func (t *Trade) TradeType() TradeType             { return t.tradeType }

// ExecutionPrice is output per input as actually traded.
func (t *Trade) ExecutionPrice() (sdk.Price, error) {
	return sdk.NewPrice(t.input.Currency(), t.output.Currency(), t.input.Quotient(), t.output.Quotient())
}

// PriceImpact is how far the output falls short of the route's mid price
// applied to the input, as a share of the latter.
func (t *Trade) PriceImpact() (sdk.Percent, error) {
	mid, err := t.route.MidPrice()
	if err != nil {
		return sdk.Percent{}, err
	}
	spot, err := mid.Quote(t.input)
	if err != nil {
		return sdk.Percent{}, err
	}
	impact, err := spot.AsFraction().Subtract(t.output.AsFraction()).Divide(spot.AsFraction())
	if err != nil {
		return sdk.Percent{}, fmt.Errorf("price impact of empty quote: %w", err)
	}
	return sdk.PercentFromFraction(impact), nil
}

func checkTolerance(tolerance sdk.Percent) error {
	if !tolerance.IsSet() {
		return fmt.Errorf("slippage not set: %w", sdk.ErrInvalidArgument)
	}
	if tolerance.LessThan(sdk.FractionFromInt(0, 1)) {
		return fmt.Errorf("slippage %s: %w", tolerance.Fraction, sdk.ErrInvalidArgument)
	}
	return nil
}

// MinimumAmountOut is the least output to accept: output / (1 + tolerance)
// for exact input trades, the fixed output otherwise.
func (t *Trade) MinimumAmountOut(tolerance sdk.Percent) (sdk.CurrencyAmount, error) {
	if err := checkTolerance(tolerance); err != nil {
		return sdk.CurrencyAmount{}, err
	}
	if t.tradeType == ExactOutput {
		return t.output, nil
	}
	factor, err := sdk.FractionFromInt(1, 1).Add(tolerance.Fraction).Invert()
	if err != nil {
		return sdk.CurrencyAmount{}, err
	}
	adjusted := factor.Multiply(sdk.FractionFromBig(t.output.Quotient())).Quotient()
	return sdk.FromRawAmount(t.output.Currency(), adjusted)
}

// MaximumAmountIn is the most input to spend: input * (1 + tolerance) for
// exact output trades, the fixed input otherwise.
func (t *Trade) MaximumAmountIn(tolerance sdk.Percent) (sdk.CurrencyAmount, error) {
	if err := checkTolerance(tolerance); err != nil {
		return sdk.CurrencyAmount{}, err
	}
	if t.tradeType == ExactInput {
		return t.input, nil
	}
	adjusted := sdk.FractionFromInt(1, 1).Add(tolerance.Fraction).Multiply(sdk.FractionFromBig(t.input.Quotient())).Quotient()
	return sdk.FromRawAmount(t.input.Currency(), adjusted)
}

// WorstExecutionPrice is the execution price at the slippage bound.
func (t *Trade) WorstExecutionPrice(tolerance sdk.Percent) (sdk.Price, error) {
	maxIn, err := t.MaximumAmountIn(tolerance)
	if err != nil {
		return sdk.Price{}, err
	}
	minOut, err := t.MinimumAmountOut(tolerance)
	if err != nil {
		return sdk.Price{}, err
	}
	return sdk.NewPrice(maxIn.Currency(), minOut.Currency(), maxIn.Quotient(), minOut.Quotient())
}
