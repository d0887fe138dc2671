package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"v3kit/internal/sdk"
)

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// Currency converts the metadata into a token on chainID.
func (m TokenMeta) Currency(chainID uint64) (sdk.Currency, error) {
	if !common.IsHexAddress(m.Address) {
		return sdk.Currency{}, fmt.Errorf("token address %q: %w", m.Address, sdk.ErrInvalidArgument)
	}
	return sdk.NewToken(chainID, common.HexToAddress(m.Address), m.Decimals, m.Symbol, m.Name), nil
}
