package v3math

import (
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick whose sqrt ratio fits the protocol's price range.
	MinTick = -887272
	// MaxTick is the highest such tick.
	MaxTick = 887272

	// MaxFee is the fee denominator: fees are expressed in hundredths of a bip.
	MaxFee = 1_000_000
)

var (
	// MinSqrtRatio is GetSqrtRatioAtTick(MinTick).
	MinSqrtRatio = big.NewInt(4295128739)
	// MaxSqrtRatio is GetSqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970342")

	Q96        = new(big.Int).Lsh(big.NewInt(1), 96)
	Q192       = new(big.Int).Lsh(big.NewInt(1), 192)
	MaxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)

	u256Max = uint256.MustFromBig(MaxUint256)
)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic("v3math: bad constant " + s)
	}
	return n
}
