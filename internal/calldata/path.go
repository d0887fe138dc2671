package calldata

import (
	"fmt"

	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

const feeBytes = 3

// EncodePath packs a route as token|fee|token|fee|token. Exact-output paths
// are written from the output back to the input, which is how the router
// walks them.
func EncodePath(route *v3.Route, exactOutput bool) ([]byte, error) {
	if route == nil {
		return nil, fmt.Errorf("encode path: nil route: %w", sdk.ErrInvalidRoute)
	}
	tokens := route.Path()
	pools := route.Pools()
	if len(tokens) != len(pools)+1 {
		return nil, fmt.Errorf("encode path: %d tokens for %d pools: %w", len(tokens), len(pools), sdk.ErrInvalidRoute)
	}
	if exactOutput {
		reverse(tokens)
		reverse(pools)
	}

	out := make([]byte, 0, len(tokens)*20+len(pools)*feeBytes)
	for i, pool := range pools {
		out = append(out, tokens[i].Address.Bytes()...)
		fee := pool.Fee()
		out = append(out, byte(fee>>16), byte(fee>>8), byte(fee))
	}
	out = append(out, tokens[len(tokens)-1].Address.Bytes()...)
	return out, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
