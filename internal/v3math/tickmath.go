package v3math

import (
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"

	"v3kit/internal/sdk"
)

// sqrt(1.0001^-(2^i)) in Q128.128; index 0 is the odd-tick seed and index 1
// the even-tick seed (1.0).
var ratioConstants = [21]*uint256.Int{
	uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	uint256.MustFromHex("0x100000000000000000000000000000000"),
	uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
	uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
	uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
	uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
	uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
	uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
	uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
	uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
	uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
	uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
	uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
}

var lowMask32 = uint256.NewInt(0xffffffff)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96, rounded up, matching
// the on-chain TickMath library bit for bit.
func GetSqrtRatioAtTick(tick int) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d: %w", tick, sdk.ErrTickOutOfRange)
	}
	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioConstants[0])
	} else {
		ratio.Set(ratioConstants[1])
	}
	for i := 2; i < len(ratioConstants); i++ {
		if absTick&(1<<(i-1)) != 0 {
			ratio.Mul(ratio, ratioConstants[i]).Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(u256Max, ratio)
	}

	rem := new(uint256.Int).And(ratio, lowMask32)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.AddUint64(ratio, 1)
	}
	return ratio.ToBig(), nil
}

var log1p0001 = math.Log(1.0001)

// GetTickAtSqrtRatio returns the greatest tick t with
// GetSqrtRatioAtTick(t) <= sqrtRatioX96. The input must lie in
// [MinSqrtRatio, MaxSqrtRatio).
func GetTickAtSqrtRatio(sqrtRatioX96 *big.Int) (int, error) {
	if sqrtRatioX96 == nil || sqrtRatioX96.Cmp(MinSqrtRatio) < 0 || sqrtRatioX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, fmt.Errorf("sqrt ratio %v outside [%s, %s): %w", sqrtRatioX96, MinSqrtRatio, MaxSqrtRatio, sdk.ErrInvalidArgument)
	}

	// Estimate from log_1.0001(price), then settle on the exact boundary.
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtRatioX96), new(big.Float).SetInt(Q96)).Float64()
	tick := int(math.Floor(2 * math.Log(f) / log1p0001))
	tick = clampTick(tick, MinTick, MaxTick-1)

	for {
		at, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			return 0, err
		}
		if at.Cmp(sqrtRatioX96) <= 0 || tick == MinTick {
			break
		}
		tick--
	}
	for tick < MaxTick-1 {
		next, err := GetSqrtRatioAtTick(tick + 1)
		if err != nil {
			return 0, err
		}
		if next.Cmp(sqrtRatioX96) > 0 {
			break
		}
		tick++
	}
	return tick, nil
}

func clampTick(tick, lo, hi int) int {
	if tick < lo {
		return lo
	}
	if tick > hi {
		return hi
	}
	return tick
}

// NearestUsableTick rounds tick to the closest multiple of spacing that stays
// inside [MinTick, MaxTick]. Halves round up.
func NearestUsableTick(tick, spacing int) (int, error) {
	if spacing <= 0 {
		return 0, fmt.Errorf("tick spacing %d: %w", spacing, sdk.ErrInvalidArgument)
	}
	if tick < MinTick || tick > MaxTick {
		return 0, fmt.Errorf("tick %d: %w", tick, sdk.ErrTickOutOfRange)
	}
	rounded := int(math.Floor(float64(tick)/float64(spacing)+0.5)) * spacing
	if rounded < MinTick {
		return rounded + spacing, nil
	}
	if rounded > MaxTick {
		return rounded - spacing, nil
	}
	return rounded, nil
}
