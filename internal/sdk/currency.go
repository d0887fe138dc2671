package sdk

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Currency identifies an ERC20 token or the chain's native currency.
type Currency struct {
	ChainID  uint64
	Address  common.Address
	Decimals uint8
	Symbol   string
	Name     string
	Native   bool
}

func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) Currency {
	return Currency{
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

func NewNative(chainID uint64, decimals uint8, symbol, name string) Currency {
	return Currency{
		ChainID:  chainID,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
		Native:   true,
	}
}

// Equal reports whether both values denote the same currency on the same chain.
func (c Currency) Equal(other Currency) bool {
	if c.ChainID != other.ChainID || c.Native != other.Native {
		return false
	}
	return c.Native || c.Address == other.Address
}

// SortKey is the address used for canonical pair ordering. Native currency
// sorts as the zero address.
func (c Currency) SortKey() common.Address {
	if c.Native {
		return common.Address{}
	}
	return c.Address
}

// SortsBefore reports whether c orders before other in a pool pair.
func (c Currency) SortsBefore(other Currency) (bool, error) {
	if c.ChainID != other.ChainID {
		return false, fmt.Errorf("chain ids %d and %d: %w", c.ChainID, other.ChainID, ErrInvalidArgument)
	}
	left, right := c.SortKey(), other.SortKey()
	cmp := bytes.Compare(left[:], right[:])
	if cmp == 0 {
		return false, fmt.Errorf("identical currencies %s: %w", c, ErrInvalidArgument)
	}
	return cmp < 0, nil
}

func (c Currency) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	if c.Native {
		return "native"
	}
	return c.Address.Hex()
}
