// Package position sizes a concentrated-liquidity position from a single token amount.
package position

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/tickmath"
)

// Side names the token an amount is denominated in.
type Side uint8

const (
	Token0 Side = iota
	Token1
)

func (s Side) String() string {
	if s == Token1 {
		return "amount1"
	}
	return "amount0"
}

// Input is the one amount the user typed. The other side is always derived.
type Input struct {
	side   Side
	amount *big.Int
}

// FromAmount0 sizes the position from a token0 amount.
func FromAmount0(amount *big.Int) Input {
	return Input{side: Token0, amount: amount}
}

// FromAmount1 sizes the position from a token1 amount.
func FromAmount1(amount *big.Int) Input {
	return Input{side: Token1, amount: amount}
}

func (in Input) Side() Side { return in.side }

// Amount returns a copy of the raw amount, or zero when unset.
func (in Input) Amount() *big.Int {
	if in.amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(in.amount)
}

// Pool is the pool snapshot a position is sized against.
type Pool struct {
	Key          poolid.PoolKey
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
}

// NewPool builds a snapshot from a state-view read.
func NewPool(key poolid.PoolKey, state model.PoolState) Pool {
	liquidity := state.Liquidity
	if liquidity == nil {
		liquidity = new(big.Int)
	}
	return Pool{Key: key, SqrtPriceX96: state.SqrtPriceX96, Tick: state.Tick, Liquidity: liquidity}
}

// Validate checks the key and that the price lies inside the current tick.
func (p Pool) Validate() error {
	if err := p.Key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPoolState, err)
	}
	if p.SqrtPriceX96 == nil || p.SqrtPriceX96.Sign() <= 0 {
		return fmt.Errorf("%w: pool not initialized", ErrPoolState)
	}
	lower, err := tickmath.SqrtRatioAtTick(p.Tick)
	if err != nil {
		return fmt.Errorf("%w: tick %d: %v", ErrPoolState, p.Tick, err)
	}
	if p.SqrtPriceX96.Cmp(lower) < 0 {
		return fmt.Errorf("%w: sqrt price %s below tick %d", ErrPoolState, p.SqrtPriceX96, p.Tick)
	}
	if p.Tick < tickmath.MaxTick {
		upper, err := tickmath.SqrtRatioAtTick(p.Tick + 1)
		if err != nil {
			return fmt.Errorf("%w: tick %d: %v", ErrPoolState, p.Tick+1, err)
		}
		if p.SqrtPriceX96.Cmp(upper) > 0 {
			return fmt.Errorf("%w: sqrt price %s above tick %d", ErrPoolState, p.SqrtPriceX96, p.Tick+1)
		}
	}
	return nil
}

// Position is a sized position. Amounts are rounded down.
type Position struct {
	Pool      Pool
	Range     tickmath.TickRange
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

// MintAmounts returns the amounts the pool will pull to mint the liquidity, rounded up.
func (p Position) MintAmounts() (*big.Int, *big.Int, error) {
	return amountsForLiquidity(p.Pool.Tick, p.Pool.SqrtPriceX96, p.Range, p.Liquidity, true)
}

// MintAmountsWithSlippage returns the maximum amounts the mint may pull when the price moves
// by up to bps basis points either way before execution.
func (p Position) MintAmountsWithSlippage(bps uint32) (*big.Int, *big.Int, error) {
	if bps > 10_000 {
		return nil, nil, fmt.Errorf("%w: slippage %d bps above 100%%", model.ErrArithmetic, bps)
	}
	lowerSqrt, upperSqrt := slippageSqrtPrices(p.Pool.SqrtPriceX96, bps)

	lowerTick, err := tickmath.TickAtSqrtPrice(lowerSqrt)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lower bound price: %v", model.ErrArithmetic, err)
	}
	upperTick, err := tickmath.TickAtSqrtPrice(upperSqrt)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: upper bound price: %v", model.ErrArithmetic, err)
	}

	// Counterfactual positions at both price bounds holding the same liquidity.
	amount0, _, err := amountsForLiquidity(lowerTick, lowerSqrt, p.Range, p.Liquidity, true)
	if err != nil {
		return nil, nil, err
	}
	_, amount1, err := amountsForLiquidity(upperTick, upperSqrt, p.Range, p.Liquidity, true)
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// slippageSqrtPrices returns the sqrt prices of price*(1-s) and price*(1+s), kept strictly
// inside the valid sqrt price domain.
func slippageSqrtPrices(sqrtPriceX96 *big.Int, bps uint32) (*big.Int, *big.Int) {
	priceX192 := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	denominator := new(big.Int).Mul(tickmath.Q192, big.NewInt(10_000))

	lowerNum := new(big.Int).Mul(priceX192, big.NewInt(int64(10_000-bps)))
	upperNum := new(big.Int).Mul(priceX192, big.NewInt(int64(10_000+bps)))

	lower := tickmath.EncodeSqrtRatioX96(lowerNum, denominator)
	upper := tickmath.EncodeSqrtRatioX96(upperNum, denominator)

	minSqrt := tickmath.MinSqrtRatio.ToBig()
	maxSqrt := tickmath.MaxSqrtRatio.ToBig()
	if lower.Cmp(minSqrt) <= 0 {
		lower = minSqrt.Add(minSqrt, big.NewInt(1))
	}
	if upper.Cmp(maxSqrt) >= 0 {
		upper = maxSqrt.Sub(maxSqrt, big.NewInt(1))
	}
	return lower, upper
}

// Engine sizes positions. It keeps no state between calls.
type Engine struct {
	logger *zap.Logger
}

// NewEngine returns an engine that logs absence diagnostics to logger.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Compute returns the position or reports absence. Failures are logged, never raised.
func (e *Engine) Compute(pool Pool, rng tickmath.TickRange, in Input) (Position, bool) {
	pos, err := e.Calculate(pool, rng, in)
	if err != nil {
		e.logger.Debug("position unavailable",
			zap.Int32("tick_lower", rng.Lower),
			zap.Int32("tick_upper", rng.Upper),
			zap.Stringer("input", in.side),
			zap.String("amount", in.Amount().String()),
			zap.Error(err),
		)
		return Position{}, false
	}
	return pos, true
}

// Calculate sizes the position for in and returns a typed error when none exists.
func (e *Engine) Calculate(pool Pool, rng tickmath.TickRange, in Input) (Position, error) {
	if err := rng.Validate(); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if err := pool.Validate(); err != nil {
		return Position{}, err
	}
	amount := in.Amount()
	if amount.Sign() <= 0 {
		return Position{}, ErrNoPosition
	}

	sqrtA, sqrtB, err := rangeSqrtPrices(rng)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	sqrtP := pool.SqrtPriceX96

	var liquidity *big.Int
	switch in.side {
	case Token0:
		if pool.Tick >= rng.Upper || sqrtP.Cmp(sqrtB) >= 0 {
			return Position{}, ErrSideOutOfRange
		}
		liquidity = maxLiquidityForAmounts(sqrtP, sqrtA, sqrtB, amount, MaxUint256)
	case Token1:
		if pool.Tick < rng.Lower || sqrtP.Cmp(sqrtA) <= 0 {
			return Position{}, ErrSideOutOfRange
		}
		liquidity = maxLiquidityForAmounts(sqrtP, sqrtA, sqrtB, MaxUint256, amount)
	default:
		return Position{}, fmt.Errorf("%w: unknown input side %d", model.ErrInsufficientData, in.side)
	}

	if liquidity.Sign() <= 0 {
		return Position{}, ErrNoPosition
	}
	if liquidity.Cmp(MaxUint128) > 0 {
		e.logger.Warn("liquidity overflow", zap.String("liquidity", liquidity.String()))
		return Position{}, ErrLiquidityOverflow
	}

	amount0, amount1, err := amountsForLiquidity(pool.Tick, sqrtP, rng, liquidity, false)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", model.ErrArithmetic, err)
	}
	active := amount0
	if in.side == Token1 {
		active = amount1
	}
	if active.Sign() <= 0 {
		return Position{}, ErrNoPosition
	}

	return Position{
		Pool:      pool,
		Range:     rng,
		Liquidity: liquidity,
		Amount0:   amount0,
		Amount1:   amount1,
	}, nil
}
