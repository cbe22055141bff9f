package quote

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/tickmath"
)

var (
	tokenA = model.Token{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Decimals: 18, Symbol: "TKA"}
	tokenB = model.Token{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Decimals: 18, Symbol: "TKB"}
	ether  = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

func testKey() poolid.PoolKey {
	return poolid.NewPoolKey(tokenA.Address, tokenB.Address, poolid.DynamicFeeFlag, 120, common.Address{})
}

func testState(sqrtP *big.Int) model.PoolState {
	return model.PoolState{
		SqrtPriceX96: sqrtP,
		Tick:         0,
		LPFee:        3000,
		Liquidity:    new(big.Int).Mul(big.NewInt(1000), ether),
	}
}

func TestQuoteAtParity(t *testing.T) {
	engine := NewEngine(nil)
	q, ok := engine.Quote(testKey(), testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether, SlippageBps: 50})
	require.True(t, ok)
	require.True(t, q.ZeroForOne)
	require.Equal(t, uint32(3000), q.Fee)
	require.Equal(t, "997000000000000000", q.AmountOut.String())
	require.Equal(t, "992015000000000000", q.MinimumAmountOut.String())
	require.Equal(t, "1 TKA = 1.000000 TKB", q.ExecutionPrice)
	require.InDelta(t, 0.199, q.PriceImpact, 0.005)
}

func TestQuoteDirection(t *testing.T) {
	engine := NewEngine(nil)
	sqrtP := new(big.Int).Lsh(tickmath.Q96, 1) // price 4

	forward, err := engine.Calculate(testKey(), testState(sqrtP), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether})
	require.NoError(t, err)
	require.True(t, forward.ZeroForOne)
	require.Equal(t, "3988000000000000000", forward.AmountOut.String())
	require.Equal(t, "1 TKA = 4.000000 TKB", forward.ExecutionPrice)

	reverse, err := engine.Calculate(testKey(), testState(sqrtP), Request{TokenIn: tokenB, TokenOut: tokenA, AmountIn: ether})
	require.NoError(t, err)
	require.False(t, reverse.ZeroForOne)
	require.Equal(t, "249250000000000000", reverse.AmountOut.String())
	require.Equal(t, "1 TKB = 0.250000 TKA", reverse.ExecutionPrice)
}

func TestMinimumAmountOut(t *testing.T) {
	engine := NewEngine(nil)
	for _, bps := range []uint32{0, 1, 50, 100, 10_000} {
		q, err := engine.Calculate(testKey(), testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether, SlippageBps: bps})
		require.NoError(t, err)
		if bps == 0 {
			require.Equal(t, q.AmountOut.String(), q.MinimumAmountOut.String())
			continue
		}
		require.Equal(t, -1, q.MinimumAmountOut.Cmp(q.AmountOut), "bps %d", bps)
	}
}

func TestStaticFeeIgnoresSlot0Fee(t *testing.T) {
	key := poolid.NewPoolKey(tokenA.Address, tokenB.Address, 500, 10, common.Address{})
	q, err := NewEngine(nil).Calculate(key, testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether})
	require.NoError(t, err)
	require.Equal(t, uint32(500), q.Fee)
	require.Equal(t, "999500000000000000", q.AmountOut.String())
}

func TestDecimalsInLabel(t *testing.T) {
	usdc := model.Token{Address: tokenB.Address, Decimals: 6, Symbol: "USDC"}
	// raw price 1e-9 token1 per token0 is 1000 USDC per 18-decimal token.
	sqrtP := tickmath.EncodeSqrtRatioX96(big.NewInt(1), big.NewInt(1_000_000_000))
	label := ExecutionPriceLabel(sqrtP, tokenA, usdc, true)
	require.Equal(t, "1 TKA = 1000.000000 USDC", label)
}

func TestQuoteAbsence(t *testing.T) {
	engine := NewEngine(nil)
	noLiquidity := testState(tickmath.Q96)
	noLiquidity.Liquidity = new(big.Int)
	stranger := model.Token{Address: common.HexToAddress("0x3333333333333333333333333333333333333333"), Decimals: 18}
	badFee := testState(tickmath.Q96)
	badFee.LPFee = 1_000_000

	tests := []struct {
		name  string
		state model.PoolState
		req   Request
		want  error
	}{
		{"zero input", testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: new(big.Int)}, ErrNoInput},
		{"nil input", testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB}, ErrNoInput},
		{"no liquidity", noLiquidity, Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether}, ErrNoLiquidity},
		{"unset price", testState(new(big.Int)), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether}, ErrNoPrice},
		{"unknown token", testState(tickmath.Q96), Request{TokenIn: stranger, TokenOut: tokenB, AmountIn: ether}, ErrUnknownToken},
		{"same token", testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenA, AmountIn: ether}, ErrUnknownToken},
		{"slippage", testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether, SlippageBps: 10_001}, ErrSlippage},
		{"fee", badFee, Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: ether}, ErrFeeOutOfRange},
		{"dust", testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB, AmountIn: big.NewInt(1)}, ErrNoOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Calculate(testKey(), tt.state, tt.req)
			require.ErrorIs(t, err, tt.want)
			_, ok := engine.Quote(testKey(), tt.state, tt.req)
			require.False(t, ok)
		})
	}
}

func TestQuoteInsufficientDataClass(t *testing.T) {
	_, err := NewEngine(nil).Calculate(testKey(), testState(tickmath.Q96), Request{TokenIn: tokenA, TokenOut: tokenB})
	require.ErrorIs(t, err, model.ErrInsufficientData)
}
