package tickmath

import (
	"fmt"
	"math"
	"math/big"
)

const tickBase = 1.0001

// TickToPrice returns the human price of token0 in token1 at tick.
func TickToPrice(tick int32, decimals0, decimals1 uint8) float64 {
	return math.Exp(float64(tick)*math.Log(tickBase)) * decimalScale(decimals0, decimals1)
}

// PriceToTick returns floor(log_1.0001(price / 10^(d0-d1))).
// Results within 1e-6 of an integer snap to it so that TickToPrice round-trips.
func PriceToTick(price float64, decimals0, decimals1 uint8) (int32, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price must be positive and finite: %v", price)
	}
	raw := price / decimalScale(decimals0, decimals1)
	exact := math.Log(raw) / math.Log(tickBase)
	tick := math.Floor(exact)
	if nearest := math.Round(exact); math.Abs(exact-nearest) < 1e-6 {
		tick = nearest
	}
	if tick < float64(MinTick) || tick > float64(MaxTick) {
		return 0, fmt.Errorf("%w: price %v maps to tick %.0f", ErrTickOutOfBounds, price, tick)
	}
	return int32(tick), nil
}

// SqrtPriceToPrice returns (sqrtPriceX96 / 2^96)^2 scaled to human units.
func SqrtPriceToPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Float).SetPrec(256).SetInt(sqrtPriceX96)
	ratio.Quo(ratio, new(big.Float).SetPrec(256).SetInt(Q96))
	ratio.Mul(ratio, ratio)
	ratio.Mul(ratio, big.NewFloat(decimalScale(decimals0, decimals1)))
	price, _ := ratio.Float64()
	return price
}

// SqrtPriceRat returns sqrtPriceX96^2 / 2^192 exactly, in raw token units.
func SqrtPriceRat(sqrtPriceX96 *big.Int) *big.Rat {
	num := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	return new(big.Rat).SetFrac(num, Q192)
}

func decimalScale(decimals0, decimals1 uint8) float64 {
	return math.Pow(10, float64(int(decimals0)-int(decimals1)))
}
