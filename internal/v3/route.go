package v3

import (
	"fmt"

	"v3kit/internal/sdk"
)

// Route is a path of pools from Input to Output.
type Route struct {
	pools  []*Pool
	path   []sdk.Currency
	input  sdk.Currency
	output sdk.Currency
}

// NewRoute validates that pools chain input to output: every pool is on the
// same chain, adjacent pools share exactly one token and the walk from input
// ends at output.
func NewRoute(pools []*Pool, input, output sdk.Currency) (*Route, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("no pools: %w", sdk.ErrInvalidRoute)
	}
	chainID := pools[0].ChainID()
	for i, pool := range pools {
		if pool.ChainID() != chainID {
			return nil, fmt.Errorf("pool %d on chain %d, want %d: %w", i, pool.ChainID(), chainID, sdk.ErrInvalidRoute)
		}
		if i > 0 && sharedTokens(pools[i-1], pool) != 1 {
			return nil, fmt.Errorf("pools %d and %d share %d tokens: %w", i-1, i, sharedTokens(pools[i-1], pool), sdk.ErrInvalidRoute)
		}
	}
	if !pools[0].InvolvesToken(input) {
		return nil, fmt.Errorf("input %s not in first pool: %w", input, sdk.ErrInvalidRoute)
	}
	if !pools[len(pools)-1].InvolvesToken(output) {
		return nil, fmt.Errorf("output %s not in last pool: %w", output, sdk.ErrInvalidRoute)
	}

	path := make([]sdk.Currency, 0, len(pools)+1)
	path = append(path, input)
	for i, pool := range pools {
		current := path[i]
		switch {
		case current.Equal(pool.token0):
			path = append(path, pool.token1)
		case current.Equal(pool.token1):
			path = append(path, pool.token0)
		default:
			return nil, fmt.Errorf("%s not in pool %d: %w", current, i, sdk.ErrInvalidRoute)
		}
	}
	if !path[len(path)-1].Equal(output) {
		return nil, fmt.Errorf("path ends at %s, want %s: %w", path[len(path)-1], output, sdk.ErrInvalidRoute)
	}

	return &Route{
		pools:  append([]*Pool(nil), pools...),
		path:   path,
		input:  input,
		output: output,
	}, nil
}

func sharedTokens(a, b *Pool) int {
	n := 0
	if b.InvolvesToken(a.token0) {
		n++
	}
	if b.InvolvesToken(a.token1) {
		n++
	}
	return n
}

func (r *Route) Input() sdk.Currency  { return r.input }
func (r *Route) Output() sdk.Currency { return r.output }
func (r *Route) ChainID() uint64      { return r.pools[0].ChainID() }

// Pools returns the route's pools in order.
func (r *Route) Pools() []*Pool { return append([]*Pool(nil), r.pools...) }

// Path returns the currencies visited, input first.
func (r *Route) Path() []sdk.Currency { return append([]sdk.Currency(nil), r.path...) }

// MidPrice is the product of the pool prices along the path, before any trade.
func (r *Route) MidPrice() (sdk.Price, error) {
	price, err := r.pools[0].PriceOf(r.path[0])
	if err != nil {
		return sdk.Price{}, err
	}
	for i, pool := range r.pools[1:] {
		next, err := pool.PriceOf(r.path[i+1])
		if err != nil {
			return sdk.Price{}, err
		}
		if price, err = price.Multiply(next); err != nil {
			return sdk.Price{}, err
		}
	}
	raw := price.AsFraction()
	return sdk.NewPrice(r.input, r.output, raw.Denominator(), raw.Numerator())
}
