package tickmath

import (
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// MinSqrtRatio is GetSqrtRatioAtTick(MinTick).
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is GetSqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = uint256.MustFromHex("0xfffd8963efd1fc6a506488495d951d5263988d26")

	// Q96 is 1.0 in Q64.96.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q192 is Q96 squared.
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)

	maxUint256 = new(uint256.Int).SetAllOne()
	lowMask    = uint256.NewInt(0xffffffff)

	// sqrt(1.0001^-(2^i)) in Q128.128, applied for each set bit of |tick|.
	ratioSteps = [...]*uint256.Int{
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
	ratioOddTick = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	ratioOne     = uint256.MustFromHex("0x100000000000000000000000000000000")
)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96, rounded up, matching the on-chain library.
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}
	absTick := int64(tick)
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioOddTick)
	} else {
		ratio.Set(ratioOne)
	}
	for i, step := range ratioSteps {
		if absTick&(int64(2)<<i) != 0 {
			ratio.Mul(ratio, step)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	rem := new(uint256.Int).And(ratio, lowMask)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.AddUint64(ratio, 1)
	}
	return ratio, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtPriceOutOfBounds
	}

	low, high := MinTick, MaxTick
	var tick int32
	for low <= high {
		mid := low + (high-low)/2
		ratio, err := GetSqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if !ratio.Gt(sqrtPriceX96) {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}

// SqrtRatioAtTick is GetSqrtRatioAtTick returning a big.Int.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	ratio, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	return ratio.ToBig(), nil
}

// TickAtSqrtPrice is GetTickAtSqrtRatio for a big.Int price.
func TickAtSqrtPrice(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}
	v, overflow := uint256.FromBig(sqrtPriceX96)
	if overflow {
		return 0, ErrSqrtPriceOutOfBounds
	}
	return GetTickAtSqrtRatio(v)
}

// EncodeSqrtRatioX96 returns floor(sqrt(amount1 * 2^192 / amount0)), the sqrt price of amount1/amount0.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) *big.Int {
	if amount0 == nil || amount0.Sign() == 0 {
		return new(big.Int)
	}
	ratioX192 := new(big.Int).Lsh(amount1, 192)
	ratioX192.Quo(ratioX192, amount0)
	if ratioX192.Sign() <= 0 {
		return new(big.Int)
	}
	return ratioX192.Sqrt(ratioX192)
}
