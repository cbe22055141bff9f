package position

import (
	"math/big"

	"liquidityDesk/internal/tickmath"
)

var (
	// MaxUint128 bounds position liquidity.
	MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	// MaxUint256 stands in for an unconstrained side when sizing from one amount.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func ordered(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// liquidityForAmount0 is amount0 * sqrtA * sqrtB / (Q96 * (sqrtB - sqrtA)).
func liquidityForAmount0(sqrtA, sqrtB, amount0 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	numerator := new(big.Int).Mul(amount0, sqrtA)
	numerator.Mul(numerator, sqrtB)
	denominator := new(big.Int).Sub(sqrtB, sqrtA)
	denominator.Mul(denominator, tickmath.Q96)
	return numerator.Quo(numerator, denominator)
}

// liquidityForAmount1 is amount1 * Q96 / (sqrtB - sqrtA).
func liquidityForAmount1(sqrtA, sqrtB, amount1 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	return tickmath.MulDiv(amount1, tickmath.Q96, new(big.Int).Sub(sqrtB, sqrtA))
}

// maxLiquidityForAmounts returns the largest liquidity that amount0 and amount1 can fund
// between sqrtA and sqrtB at the current price.
func maxLiquidityForAmounts(sqrtCurrent, sqrtA, sqrtB, amount0, amount1 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	switch {
	case sqrtCurrent.Cmp(sqrtA) <= 0:
		return liquidityForAmount0(sqrtA, sqrtB, amount0)
	case sqrtCurrent.Cmp(sqrtB) < 0:
		l0 := liquidityForAmount0(sqrtCurrent, sqrtB, amount0)
		l1 := liquidityForAmount1(sqrtA, sqrtCurrent, amount1)
		if l0.Cmp(l1) < 0 {
			return l0
		}
		return l1
	default:
		return liquidityForAmount1(sqrtA, sqrtB, amount1)
	}
}

// amountsForLiquidity splits liquidity into token amounts for a range at the given tick and price.
func amountsForLiquidity(tick int32, sqrtCurrent *big.Int, rng tickmath.TickRange, liquidity *big.Int, roundUp bool) (*big.Int, *big.Int, error) {
	sqrtA, sqrtB, err := rangeSqrtPrices(rng)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case tick < rng.Lower:
		amount0, err := tickmath.GetAmount0Delta(sqrtA, sqrtB, liquidity, roundUp)
		return amount0, new(big.Int), err
	case tick < rng.Upper:
		amount0, err := tickmath.GetAmount0Delta(sqrtCurrent, sqrtB, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		return amount0, tickmath.GetAmount1Delta(sqrtA, sqrtCurrent, liquidity, roundUp), nil
	default:
		return new(big.Int), tickmath.GetAmount1Delta(sqrtA, sqrtB, liquidity, roundUp), nil
	}
}

func rangeSqrtPrices(rng tickmath.TickRange) (*big.Int, *big.Int, error) {
	sqrtA, err := tickmath.SqrtRatioAtTick(rng.Lower)
	if err != nil {
		return nil, nil, err
	}
	sqrtB, err := tickmath.SqrtRatioAtTick(rng.Upper)
	if err != nil {
		return nil, nil, err
	}
	return sqrtA, sqrtB, nil
}
