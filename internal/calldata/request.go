package calldata

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"v3kit/internal/sdk"
	"v3kit/internal/v3"
)

// Request is one periphery interaction. The concrete types are
// ApproveRequest, MintRequest, DecreaseLiquidityRequest and SwapRequest.
type Request interface {
	isRequest()
}

// ApproveRequest grants Spender an ERC20 allowance on Token.
type ApproveRequest struct {
	Token   common.Address
	Spender common.Address
	Amount  *big.Int
}

// MintRequest opens a new position through the position manager. Desired
// amounts come from the position and the minimums from Slippage.
type MintRequest struct {
	Position  *v3.Position
	Recipient common.Address
	Deadline  *big.Int
	Slippage  sdk.Percent
	// CreatePool prepends createAndInitializePoolIfNecessary at the pool's price.
	CreatePool bool
}

// DecreaseLiquidityRequest removes LiquidityShare of an existing position and
// collects everything owed to Recipient.
type DecreaseLiquidityRequest struct {
	TokenID        *big.Int
	Position       *v3.Position
	LiquidityShare sdk.Percent
	Recipient      common.Address
	Deadline       *big.Int
	Slippage       sdk.Percent
}

// SwapRequest executes a trade through the swap router.
type SwapRequest struct {
	Trade     *v3.Trade
	Recipient common.Address
	Deadline  *big.Int
	Slippage  sdk.Percent
	// SqrtPriceLimitX96 applies to single-hop swaps only. Nil means no limit.
	SqrtPriceLimitX96 *big.Int
	// NativeIn pays the input in the chain's native currency.
	NativeIn bool
	// NativeOut unwraps the output before sending it to Recipient.
	NativeOut bool
}

func (ApproveRequest) isRequest()           {}
func (MintRequest) isRequest()              {}
func (DecreaseLiquidityRequest) isRequest() {}
func (SwapRequest) isRequest()              {}

// Contract identifies which contract a calldata blob is meant for.
type Contract int

const (
	ContractToken Contract = iota
	ContractPositionManager
	ContractSwapRouter
)

func (c Contract) String() string {
	switch c {
	case ContractToken:
		return "token"
	case ContractPositionManager:
		return "position_manager"
	case ContractSwapRouter:
		return "swap_router"
	default:
		return "unknown"
	}
}

// MethodParameters is a ready-to-send transaction body.
type MethodParameters struct {
	Target   Contract
	Calldata []byte
	// Value is the native amount to attach, zero unless paying natively.
	Value *big.Int
}
