package v3

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"v3kit/internal/sdk"
)

var poolKeyArgs = func() abi.Arguments {
	address, _ := abi.NewType("address", "", nil)
	uint24, _ := abi.NewType("uint24", "", nil)
	return abi.Arguments{{Type: address}, {Type: address}, {Type: uint24}}
}()

// ComputePoolAddress derives the CREATE2 address of the pool for a token pair
// and fee: keccak256(0xff ++ deployer ++ keccak256(abi.encode(token0, token1,
// fee)) ++ initCodeHash)[12:].
func ComputePoolAddress(deployer common.Address, tokenA, tokenB sdk.Currency, fee int, initCodeHash common.Hash) (common.Address, error) {
	aFirst, err := tokenA.SortsBefore(tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("pool address: %w", err)
	}
	token0, token1 := tokenA, tokenB
	if !aFirst {
		token0, token1 = tokenB, tokenA
	}
	if fee < 0 || fee >= 1<<24 {
		return common.Address{}, fmt.Errorf("fee %d: %w", fee, sdk.ErrInvalidArgument)
	}
	encoded, err := poolKeyArgs.Pack(token0.SortKey(), token1.SortKey(), big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("encode pool key: %w", err)
	}
	salt := crypto.Keccak256Hash(encoded)
	return crypto.CreateAddress2(deployer, salt, initCodeHash.Bytes()), nil
}
