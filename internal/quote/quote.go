// Package quote estimates single-pool swap output from the pool's spot price.
//
// The estimate ignores tick crossings, so it is only indicative for amounts that are
// small relative to the pool's active liquidity.
package quote

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/tickmath"
)

const (
	feeDenominator = 1_000_000
	bpsDenominator = 10_000
	labelPrecision = 6
)

var (
	ErrNoLiquidity   = fmt.Errorf("%w: pool has no liquidity", model.ErrInsufficientData)
	ErrNoPrice       = fmt.Errorf("%w: pool price unset", model.ErrInsufficientData)
	ErrNoInput       = fmt.Errorf("%w: input amount must be positive", model.ErrInsufficientData)
	ErrUnknownToken  = fmt.Errorf("%w: token not in pool", model.ErrInsufficientData)
	ErrNoOutput      = fmt.Errorf("%w: output rounds to zero", model.ErrInsufficientData)
	ErrSlippage      = fmt.Errorf("%w: slippage above 10000 bps", model.ErrArithmetic)
	ErrFeeOutOfRange = fmt.Errorf("%w: fee at or above 100%%", model.ErrArithmetic)
)

// Request describes an exact-input swap.
type Request struct {
	TokenIn     model.Token
	TokenOut    model.Token
	AmountIn    *big.Int
	SlippageBps uint32
}

// Quote is the estimated result of a Request.
type Quote struct {
	AmountIn         *big.Int
	AmountOut        *big.Int
	MinimumAmountOut *big.Int
	// PriceImpact is the percent move of the pool price the input would cause.
	PriceImpact    float64
	ExecutionPrice string
	ZeroForOne     bool
	Fee            uint32
}

// Record is the printable form of a Quote.
type Record struct {
	AmountIn         string  `json:"amount_in"`
	AmountOut        string  `json:"amount_out"`
	MinimumAmountOut string  `json:"minimum_amount_out"`
	PriceImpact      float64 `json:"price_impact_pct"`
	ExecutionPrice   string  `json:"execution_price"`
	ZeroForOne       bool    `json:"zero_for_one"`
	Fee              uint32  `json:"fee"`
}

// Record returns the printable form of q.
func (q Quote) Record() Record {
	return Record{
		AmountIn:         q.AmountIn.String(),
		AmountOut:        q.AmountOut.String(),
		MinimumAmountOut: q.MinimumAmountOut.String(),
		PriceImpact:      q.PriceImpact,
		ExecutionPrice:   q.ExecutionPrice,
		ZeroForOne:       q.ZeroForOne,
		Fee:              q.Fee,
	}
}

// EffectiveFee returns the LP fee in hundredths of a bip. Dynamic-fee pools report theirs in slot0.
func EffectiveFee(key poolid.PoolKey, state model.PoolState) (uint32, error) {
	fee := key.Fee
	if key.IsDynamicFee() {
		fee = state.LPFee
	}
	if fee >= feeDenominator {
		return 0, fmt.Errorf("%w: %d", ErrFeeOutOfRange, fee)
	}
	return fee, nil
}

// Engine produces quotes. It keeps no state between calls.
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

// Quote returns the estimate or reports absence.
func (e *Engine) Quote(key poolid.PoolKey, state model.PoolState, req Request) (Quote, bool) {
	q, err := e.Calculate(key, state, req)
	if err != nil {
		e.logger.Debug("quote unavailable",
			zap.String("pool_id", key.ID().Hex()),
			zap.String("token_in", req.TokenIn.Address.Hex()),
			zap.Error(err),
		)
		return Quote{}, false
	}
	return q, true
}

// Calculate returns the estimate for req or a typed error.
func (e *Engine) Calculate(key poolid.PoolKey, state model.PoolState, req Request) (Quote, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return Quote{}, ErrNoInput
	}
	if !state.Initialized() {
		return Quote{}, ErrNoPrice
	}
	if state.Liquidity == nil || state.Liquidity.Sign() <= 0 {
		return Quote{}, ErrNoLiquidity
	}
	if req.SlippageBps > bpsDenominator {
		return Quote{}, fmt.Errorf("%w: %d", ErrSlippage, req.SlippageBps)
	}
	zeroForOne, err := direction(key, req)
	if err != nil {
		return Quote{}, err
	}
	fee, err := EffectiveFee(key, state)
	if err != nil {
		return Quote{}, err
	}

	sqrtP := state.SqrtPriceX96
	priceX192 := new(big.Int).Mul(sqrtP, sqrtP)
	feeKeep := big.NewInt(int64(feeDenominator - fee))
	amountInLessFee := new(big.Int).Mul(req.AmountIn, feeKeep)
	amountInLessFee.Quo(amountInLessFee, big.NewInt(feeDenominator))

	numerator := new(big.Int).Mul(req.AmountIn, feeKeep)
	denominator := big.NewInt(feeDenominator)
	if zeroForOne {
		numerator.Mul(numerator, priceX192)
		denominator.Mul(denominator, tickmath.Q192)
	} else {
		numerator.Mul(numerator, tickmath.Q192)
		denominator.Mul(denominator, priceX192)
	}
	amountOut := numerator.Quo(numerator, denominator)
	if amountOut.Sign() <= 0 {
		return Quote{}, ErrNoOutput
	}

	minOut := new(big.Int).Mul(amountOut, big.NewInt(int64(bpsDenominator-req.SlippageBps)))
	minOut.Quo(minOut, big.NewInt(bpsDenominator))

	return Quote{
		AmountIn:         new(big.Int).Set(req.AmountIn),
		AmountOut:        amountOut,
		MinimumAmountOut: minOut,
		PriceImpact:      e.priceImpact(sqrtP, state.Liquidity, amountInLessFee, zeroForOne),
		ExecutionPrice:   ExecutionPriceLabel(sqrtP, req.TokenIn, req.TokenOut, zeroForOne),
		ZeroForOne:       zeroForOne,
		Fee:              fee,
	}, nil
}

func direction(key poolid.PoolKey, req Request) (bool, error) {
	in, out := req.TokenIn.Address, req.TokenOut.Address
	switch {
	case in == key.Currency0 && out == key.Currency1:
		return true, nil
	case in == key.Currency1 && out == key.Currency0:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrUnknownToken, in.Hex(), out.Hex())
	}
}

// priceImpact is |1 - (next/current)^2| in percent for a swap that stays in the current tick.
func (e *Engine) priceImpact(sqrtP, liquidity, amountInLessFee *big.Int, zeroForOne bool) float64 {
	next, err := tickmath.GetNextSqrtPriceFromInput(sqrtP, liquidity, amountInLessFee, zeroForOne)
	if err != nil {
		e.logger.Debug("price impact unavailable", zap.Error(err))
		return 0
	}
	ratio := new(big.Float).SetPrec(256).SetInt(next)
	ratio.Quo(ratio, new(big.Float).SetPrec(256).SetInt(sqrtP))
	ratio.Mul(ratio, ratio)
	ratio.Sub(big.NewFloat(1), ratio)
	ratio.Abs(ratio)
	ratio.Mul(ratio, big.NewFloat(100))
	impact, _ := ratio.Float64()
	return impact
}

// ExecutionPriceLabel renders the spot price as "1 IN = X.XXXXXX OUT" in human units.
func ExecutionPriceLabel(sqrtPriceX96 *big.Int, tokenIn, tokenOut model.Token, zeroForOne bool) string {
	price := SpotPrice(sqrtPriceX96, tokenIn.Decimals, tokenOut.Decimals, zeroForOne)
	return fmt.Sprintf("1 %s = %s %s", tokenIn.Label(), price.StringFixed(labelPrecision), tokenOut.Label())
}

// SpotPrice returns the human price of one input token in output tokens.
func SpotPrice(sqrtPriceX96 *big.Int, decimalsIn, decimalsOut uint8, zeroForOne bool) decimal.Decimal {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero
	}
	priceX192 := decimal.NewFromBigInt(new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96), 0)
	q192 := decimal.NewFromBigInt(tickmath.Q192, 0)
	num, den := priceX192, q192
	if !zeroForOne {
		num, den = q192, priceX192
	}
	shift := int32(decimalsIn) - int32(decimalsOut)
	return num.Shift(shift).DivRound(den, 18)
}
