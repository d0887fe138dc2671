package calldata

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

var errNoSlippage = fmt.Errorf("slippage tolerance not set: %w", sdk.ErrInvalidArgument)

// MaxUint128 is the collect cap that sweeps everything owed.
var MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Tuple params. Field names are the camel-cased ABI component names.

type mintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

type decreaseLiquidityParams struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Deadline   *big.Int
}

type collectParams struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactOutputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountOut         *big.Int
	AmountInMaximum   *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactInputParams struct {
	Path             []byte
	Recipient        common.Address
	Deadline         *big.Int
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

type exactOutputParams struct {
	Path            []byte
	Recipient       common.Address
	Deadline        *big.Int
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

// Encode turns a request into calldata for its target contract. Requests
// needing more than one call are wrapped in multicall.
func Encode(req Request) (MethodParameters, error) {
	switch r := req.(type) {
	case ApproveRequest:
		return encodeApprove(r)
	case *ApproveRequest:
		return encodeApprove(*r)
	case MintRequest:
		return encodeMint(r)
	case *MintRequest:
		return encodeMint(*r)
	case DecreaseLiquidityRequest:
		return encodeDecrease(r)
	case *DecreaseLiquidityRequest:
		return encodeDecrease(*r)
	case SwapRequest:
		return encodeSwap(r)
	case *SwapRequest:
		return encodeSwap(*r)
	default:
		return MethodParameters{}, fmt.Errorf("encode: unsupported request %T: %w", req, sdk.ErrInvalidArgument)
	}
}

func encodeApprove(r ApproveRequest) (MethodParameters, error) {
	if err := checkUint256("amount", r.Amount); err != nil {
		return MethodParameters{}, fmt.Errorf("encode approve: %w", err)
	}
	parsed, err := ERC20ABI()
	if err != nil {
		return MethodParameters{}, err
	}
	data, err := parsed.Pack("approve", r.Spender, r.Amount)
	if err != nil {
		return MethodParameters{}, fmt.Errorf("pack approve: %w", err)
	}
	return MethodParameters{Target: ContractToken, Calldata: data, Value: new(big.Int)}, nil
}

func encodeMint(r MintRequest) (MethodParameters, error) {
	if r.Position == nil {
		return MethodParameters{}, fmt.Errorf("encode mint: nil position: %w", sdk.ErrInvalidArgument)
	}
	if err := checkCommon(r.Recipient, r.Deadline); err != nil {
		return MethodParameters{}, fmt.Errorf("encode mint: %w", err)
	}
	if r.Position.Liquidity().Sign() == 0 {
		return MethodParameters{}, fmt.Errorf("encode mint: zero liquidity: %w", sdk.ErrInvalidArgument)
	}
	if !r.Slippage.IsSet() {
		return MethodParameters{}, fmt.Errorf("encode mint: %w", errNoSlippage)
	}
	parsed, err := PositionManagerABI()
	if err != nil {
		return MethodParameters{}, err
	}

	pool := r.Position.Pool()
	desired := r.Position.MintAmounts()
	minimums, err := r.Position.MintAmountsWithSlippage(r.Slippage)
	if err != nil {
		return MethodParameters{}, fmt.Errorf("encode mint: %w", err)
	}

	var calls [][]byte
	if r.CreatePool {
		create, err := parsed.Pack("createAndInitializePoolIfNecessary",
			pool.Token0().Address, pool.Token1().Address, big.NewInt(int64(pool.Fee())), pool.SqrtRatioX96())
		if err != nil {
			return MethodParameters{}, fmt.Errorf("pack createAndInitializePoolIfNecessary: %w", err)
		}
		calls = append(calls, create)
	}
	mint, err := parsed.Pack("mint", mintParams{
		Token0:         pool.Token0().Address,
		Token1:         pool.Token1().Address,
		Fee:            big.NewInt(int64(pool.Fee())),
		TickLower:      big.NewInt(int64(r.Position.TickLower())),
		TickUpper:      big.NewInt(int64(r.Position.TickUpper())),
		Amount0Desired: desired.Amount0,
		Amount1Desired: desired.Amount1,
		Amount0Min:     minimums.Amount0,
		Amount1Min:     minimums.Amount1,
		Recipient:      r.Recipient,
		Deadline:       r.Deadline,
	})
	if err != nil {
		return MethodParameters{}, fmt.Errorf("pack mint: %w", err)
	}
	calls = append(calls, mint)

	data, err := multicall(parsed.Pack, calls)
	if err != nil {
		return MethodParameters{}, err
	}
	return MethodParameters{Target: ContractPositionManager, Calldata: data, Value: new(big.Int)}, nil
}

func encodeDecrease(r DecreaseLiquidityRequest) (MethodParameters, error) {
	if r.Position == nil {
		return MethodParameters{}, fmt.Errorf("encode decrease: nil position: %w", sdk.ErrInvalidArgument)
	}
	if r.TokenID == nil || r.TokenID.Sign() < 0 {
		return MethodParameters{}, fmt.Errorf("encode decrease: token id: %w", sdk.ErrInvalidArgument)
	}
	if err := checkCommon(r.Recipient, r.Deadline); err != nil {
		return MethodParameters{}, fmt.Errorf("encode decrease: %w", err)
	}
	if !r.LiquidityShare.IsSet() || !r.LiquidityShare.GreaterThan(sdk.FractionFromInt(0, 1)) {
		return MethodParameters{}, fmt.Errorf("encode decrease: share must be positive: %w", sdk.ErrInvalidArgument)
	}
	if !r.Slippage.IsSet() {
		return MethodParameters{}, fmt.Errorf("encode decrease: %w", errNoSlippage)
	}
	partial, err := r.Position.Scale(r.LiquidityShare)
	if err != nil {
		return MethodParameters{}, fmt.Errorf("encode decrease: %w", err)
	}
	if partial.Liquidity().Sign() == 0 {
		return MethodParameters{}, fmt.Errorf("encode decrease: zero liquidity: %w", sdk.ErrInvalidArgument)
	}
	minimums, err := partial.BurnAmountsWithSlippage(r.Slippage)
	if err != nil {
		return MethodParameters{}, fmt.Errorf("encode decrease: %w", err)
	}

	parsed, err := PositionManagerABI()
	if err != nil {
		return MethodParameters{}, err
	}
	decrease, err := parsed.Pack("decreaseLiquidity", decreaseLiquidityParams{
		TokenId:    r.TokenID,
		Liquidity:  partial.Liquidity(),
		Amount0Min: minimums.Amount0,
		Amount1Min: minimums.Amount1,
		Deadline:   r.Deadline,
	})
	if err != nil {
		return MethodParameters{}, fmt.Errorf("pack decreaseLiquidity: %w", err)
	}
	collect, err := parsed.Pack("collect", collectParams{
		TokenId:    r.TokenID,
		Recipient:  r.Recipient,
		Amount0Max: MaxUint128,
		Amount1Max: MaxUint128,
	})
	if err != nil {
		return MethodParameters{}, fmt.Errorf("pack collect: %w", err)
	}

	data, err := multicall(parsed.Pack, [][]byte{decrease, collect})
	if err != nil {
		return MethodParameters{}, err
	}
	return MethodParameters{Target: ContractPositionManager, Calldata: data, Value: new(big.Int)}, nil
}

func encodeSwap(r SwapRequest) (MethodParameters, error) {
	if r.Trade == nil {
		return MethodParameters{}, fmt.Errorf("encode swap: nil trade: %w", sdk.ErrInvalidArgument)
	}
	if err := checkCommon(r.Recipient, r.Deadline); err != nil {
		return MethodParameters{}, fmt.Errorf("encode swap: %w", err)
	}
	if !r.Slippage.IsSet() {
		return MethodParameters{}, fmt.Errorf("encode swap: %w", errNoSlippage)
	}
	minOut, err := r.Trade.MinimumAmountOut(r.Slippage)
	if err != nil {
		return MethodParameters{}, fmt.Errorf("encode swap: %w", err)
	}
	maxIn, err := r.Trade.MaximumAmountIn(r.Slippage)
	if err != nil {
		return MethodParameters{}, fmt.Errorf("encode swap: %w", err)
	}
	amountOutMinimum := minOut.Quotient()
	amountInMaximum := maxIn.Quotient()

	parsed, err := SwapRouterABI()
	if err != nil {
		return MethodParameters{}, err
	}

	route := r.Trade.Route()
	pools := route.Pools()
	exactOutput := r.Trade.TradeType() == v3.ExactOutput
	// the router holds the output until unwrapWETH9 pays it out
	swapRecipient := r.Recipient
	if r.NativeOut {
		swapRecipient = common.Address{}
	}
	limit := r.SqrtPriceLimitX96
	if limit == nil {
		limit = new(big.Int)
	}
	if limit.Sign() != 0 && len(pools) > 1 {
		return MethodParameters{}, fmt.Errorf("encode swap: price limit on multi-hop route: %w", sdk.ErrInvalidArgument)
	}

	var swap []byte
	switch {
	case len(pools) == 1 && !exactOutput:
		swap, err = parsed.Pack("exactInputSingle", exactInputSingleParams{
			TokenIn:           route.Input().Address,
			TokenOut:          route.Output().Address,
			Fee:               big.NewInt(int64(pools[0].Fee())),
			Recipient:         swapRecipient,
			Deadline:          r.Deadline,
			AmountIn:          r.Trade.InputAmount().Quotient(),
			AmountOutMinimum:  amountOutMinimum,
			SqrtPriceLimitX96: limit,
		})
	case len(pools) == 1:
		swap, err = parsed.Pack("exactOutputSingle", exactOutputSingleParams{
			TokenIn:           route.Input().Address,
			TokenOut:          route.Output().Address,
			Fee:               big.NewInt(int64(pools[0].Fee())),
			Recipient:         swapRecipient,
			Deadline:          r.Deadline,
			AmountOut:         r.Trade.OutputAmount().Quotient(),
			AmountInMaximum:   amountInMaximum,
			SqrtPriceLimitX96: limit,
		})
	default:
		path, perr := EncodePath(route, exactOutput)
		if perr != nil {
			return MethodParameters{}, perr
		}
		if exactOutput {
			swap, err = parsed.Pack("exactOutput", exactOutputParams{
				Path:            path,
				Recipient:       swapRecipient,
				Deadline:        r.Deadline,
				AmountOut:       r.Trade.OutputAmount().Quotient(),
				AmountInMaximum: amountInMaximum,
			})
		} else {
			swap, err = parsed.Pack("exactInput", exactInputParams{
				Path:             path,
				Recipient:        swapRecipient,
				Deadline:         r.Deadline,
				AmountIn:         r.Trade.InputAmount().Quotient(),
				AmountOutMinimum: amountOutMinimum,
			})
		}
	}
	if err != nil {
		return MethodParameters{}, fmt.Errorf("pack swap: %w", err)
	}

	calls := [][]byte{swap}
	if r.NativeOut {
		unwrap, err := parsed.Pack("unwrapWETH9", amountOutMinimum, r.Recipient)
		if err != nil {
			return MethodParameters{}, fmt.Errorf("pack unwrapWETH9: %w", err)
		}
		calls = append(calls, unwrap)
	}
	value := new(big.Int)
	if r.NativeIn {
		value.Set(amountInMaximum)
		if exactOutput {
			refund, err := parsed.Pack("refundETH")
			if err != nil {
				return MethodParameters{}, fmt.Errorf("pack refundETH: %w", err)
			}
			calls = append(calls, refund)
		}
	}

	data, err := multicall(parsed.Pack, calls)
	if err != nil {
		return MethodParameters{}, err
	}
	return MethodParameters{Target: ContractSwapRouter, Calldata: data, Value: value}, nil
}

type packFunc func(name string, args ...interface{}) ([]byte, error)

// multicall returns a lone call unwrapped.
func multicall(pack packFunc, calls [][]byte) ([]byte, error) {
	if len(calls) == 1 {
		return calls[0], nil
	}
	data, err := pack("multicall", calls)
	if err != nil {
		return nil, fmt.Errorf("pack multicall: %w", err)
	}
	return data, nil
}

func checkCommon(recipient common.Address, deadline *big.Int) error {
	if recipient == (common.Address{}) {
		return fmt.Errorf("zero recipient: %w", sdk.ErrInvalidArgument)
	}
	return checkUint256("deadline", deadline)
}

func checkUint256(name string, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(sdk.MaxUint256) > 0 {
		return fmt.Errorf("%s out of uint256 range: %w", name, sdk.ErrInvalidArgument)
	}
	return nil
}
