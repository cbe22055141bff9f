package calldata

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/position"
	"liquidityDesk/internal/tickmath"
)

var (
	tokenA    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	hooks     = common.HexToAddress("0x9A411c87d79059d99ebB1F229289593713Ace080")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	router    = common.HexToAddress("0x66a9893cC07D91D95644AEDD05D03f95e1dBA8Af")
	posmAddr  = common.HexToAddress("0xbD216513d74C8cf14cf4747E6AaA6420FF64ee9e")
	ether     = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	now       = time.Unix(1_700_000_000, 0)
)

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func TestExecuteSelector(t *testing.T) {
	require.Equal(t, "3593564c", hex.EncodeToString(selector("execute(bytes,bytes[],uint256)")))
}

func TestDeadline(t *testing.T) {
	require.Equal(t, now.Add(20*time.Minute).Unix(), Deadline(now, 0).Int64())
	require.Equal(t, now.Add(time.Minute).Unix(), Deadline(now, time.Minute).Int64())
}

func TestSwapCalldataLayout(t *testing.T) {
	key := poolid.NewPoolKey(tokenA, tokenB, poolid.DynamicFeeFlag, 120, hooks)
	params := SwapParams{
		Key:              key,
		ZeroForOne:       false,
		AmountIn:         ether,
		AmountOutMinimum: big.NewInt(990),
		Deadline:         Deadline(now, 0),
	}
	data, err := SwapCalldata(params)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0x35, 0x93, 0x56, 0x4c}))

	routerABI, err := UniversalRouterABI()
	require.NoError(t, err)
	values, err := routerABI.Methods["execute"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, []byte{CommandV4Swap}, values[0].([]byte))
	inputs := values[1].([][]byte)
	require.Len(t, inputs, 1)
	require.Equal(t, params.Deadline.Int64(), values[2].(*big.Int).Int64())

	actions, encoded, err := DecodeUnlockData(inputs[0])
	require.NoError(t, err)
	require.Equal(t, []Action{ActionSwapExactInSingle, ActionSettleAll, ActionTakeAll}, actions)
	require.Len(t, encoded, 3)

	expected := NewV4Planner()
	require.NoError(t, expected.AddSwapExactInSingle(key, false, ether, big.NewInt(990), nil))
	require.Equal(t, expected.params[0], encoded[0])

	settle, err := ActionArguments(ActionSettleAll)
	require.NoError(t, err)
	settleValues, err := settle.Unpack(encoded[1])
	require.NoError(t, err)
	require.Equal(t, tokenB, settleValues[0].(common.Address))
	require.Equal(t, 0, settleValues[1].(*big.Int).Cmp(ether))

	take, err := ActionArguments(ActionTakeAll)
	require.NoError(t, err)
	takeValues, err := take.Unpack(encoded[2])
	require.NoError(t, err)
	require.Equal(t, tokenA, takeValues[0].(common.Address))
	require.Equal(t, int64(990), takeValues[1].(*big.Int).Int64())
}

func TestSwapCalldataRejectsBadInput(t *testing.T) {
	key := poolid.NewPoolKey(tokenA, tokenB, 3000, 60, common.Address{})
	tests := []SwapParams{
		{Key: key, AmountIn: big.NewInt(0), AmountOutMinimum: big.NewInt(1), Deadline: big.NewInt(1)},
		{Key: key, AmountIn: big.NewInt(1), AmountOutMinimum: big.NewInt(0), Deadline: big.NewInt(1)},
		{Key: key, AmountIn: big.NewInt(1), AmountOutMinimum: big.NewInt(1)},
		{Key: key, AmountIn: new(big.Int).Lsh(big.NewInt(1), 128), AmountOutMinimum: big.NewInt(1), Deadline: big.NewInt(1)},
		{Key: poolid.PoolKey{Currency0: tokenB, Currency1: tokenA, Fee: 3000, TickSpacing: 60}, AmountIn: big.NewInt(1), AmountOutMinimum: big.NewInt(1), Deadline: big.NewInt(1)},
	}
	for i, params := range tests {
		_, err := SwapCalldata(params)
		require.ErrorIs(t, err, model.ErrInsufficientData, "case %d", i)
	}
}

func TestBuildSwapNativeValue(t *testing.T) {
	key := poolid.NewPoolKey(common.Address{}, tokenB, 3000, 60, common.Address{})
	call, err := BuildSwap(router, SwapParams{Key: key, ZeroForOne: true, AmountIn: ether, AmountOutMinimum: big.NewInt(1), Deadline: big.NewInt(1)}, "swap")
	require.NoError(t, err)
	require.Equal(t, router, call.To)
	require.Equal(t, 0, call.ValueInt().Cmp(ether))

	call, err = BuildSwap(router, SwapParams{Key: key, ZeroForOne: false, AmountIn: ether, AmountOutMinimum: big.NewInt(1), Deadline: big.NewInt(1)}, "swap")
	require.NoError(t, err)
	require.Zero(t, call.ValueInt().Sign())
}

func testPosition(t *testing.T, currency0 common.Address, rng tickmath.TickRange) position.Position {
	t.Helper()
	key := poolid.NewPoolKey(currency0, tokenB, poolid.DynamicFeeFlag, 120, hooks)
	pool := position.NewPool(key, model.PoolState{SqrtPriceX96: new(big.Int).Set(tickmath.Q96), Liquidity: ether})
	pos, err := position.NewEngine(nil).Calculate(pool, rng, position.FromAmount0(ether))
	require.NoError(t, err)
	return pos
}

func TestMintCalldataLayout(t *testing.T) {
	pos := testPosition(t, tokenA, tickmath.TickRange{Lower: -120, Upper: 120})
	mint, err := MintCalldata(pos, MintOptions{SlippageBps: 100, Deadline: Deadline(now, 0), Recipient: recipient})
	require.NoError(t, err)
	require.Equal(t, selector("modifyLiquidities(bytes,uint256)"), mint.Data[:4])
	require.Zero(t, mint.Value.Sign())

	posm, err := PositionManagerABI()
	require.NoError(t, err)
	values, err := posm.Methods["modifyLiquidities"].Inputs.Unpack(mint.Data[4:])
	require.NoError(t, err)

	actions, params, err := DecodeUnlockData(values[0].([]byte))
	require.NoError(t, err)
	require.Equal(t, []Action{ActionMintPosition, ActionSettlePair}, actions)

	layout, err := ActionArguments(ActionMintPosition)
	require.NoError(t, err)
	mintValues, err := layout.Unpack(params[0])
	require.NoError(t, err)
	require.Equal(t, int64(-120), mintValues[1].(*big.Int).Int64())
	require.Equal(t, int64(120), mintValues[2].(*big.Int).Int64())
	require.Equal(t, 0, mintValues[3].(*big.Int).Cmp(pos.Liquidity))
	require.Equal(t, 0, mintValues[4].(*big.Int).Cmp(mint.Amount0Max))
	require.Equal(t, 0, mintValues[5].(*big.Int).Cmp(mint.Amount1Max))
	require.Equal(t, recipient, mintValues[6].(common.Address))

	pair, err := ActionArguments(ActionSettlePair)
	require.NoError(t, err)
	pairValues, err := pair.Unpack(params[1])
	require.NoError(t, err)
	require.Equal(t, tokenA, pairValues[0].(common.Address))
	require.Equal(t, tokenB, pairValues[1].(common.Address))
}

func TestMintCalldataNativeSweep(t *testing.T) {
	pos := testPosition(t, common.Address{}, tickmath.TickRange{Lower: -120, Upper: 120})
	call, err := BuildMint(posmAddr, pos, MintOptions{SlippageBps: 100, Deadline: Deadline(now, 0), Recipient: recipient}, "mint")
	require.NoError(t, err)
	require.Equal(t, posmAddr, call.To)

	mint, err := MintCalldata(pos, MintOptions{SlippageBps: 100, Deadline: Deadline(now, 0), Recipient: recipient})
	require.NoError(t, err)
	require.Equal(t, 0, call.ValueInt().Cmp(mint.Amount0Max))

	posm, err := PositionManagerABI()
	require.NoError(t, err)
	values, err := posm.Methods["modifyLiquidities"].Inputs.Unpack(mint.Data[4:])
	require.NoError(t, err)
	actions, params, err := DecodeUnlockData(values[0].([]byte))
	require.NoError(t, err)
	require.Equal(t, []Action{ActionMintPosition, ActionSettlePair, ActionSweep}, actions)

	sweep, err := ActionArguments(ActionSweep)
	require.NoError(t, err)
	sweepValues, err := sweep.Unpack(params[2])
	require.NoError(t, err)
	require.Equal(t, MsgSender, sweepValues[1].(common.Address))
}

func TestMintCalldataRequiresAlignment(t *testing.T) {
	pos := testPosition(t, tokenA, tickmath.FullRange)
	_, err := MintCalldata(pos, MintOptions{Deadline: big.NewInt(1), Recipient: recipient})
	require.ErrorIs(t, err, model.ErrInsufficientData)

	aligned, err := tickmath.FullRangeFor(120)
	require.NoError(t, err)
	pos = testPosition(t, tokenA, aligned)
	_, err = MintCalldata(pos, MintOptions{Deadline: big.NewInt(1), Recipient: recipient})
	require.NoError(t, err)
}

func TestMintCalldataRequiresRecipient(t *testing.T) {
	pos := testPosition(t, tokenA, tickmath.TickRange{Lower: -120, Upper: 120})
	_, err := MintCalldata(pos, MintOptions{Deadline: big.NewInt(1)})
	require.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestFinalizeEmptyPlanner(t *testing.T) {
	_, err := NewV4Planner().Finalize()
	require.Error(t, err)
}

func TestActionString(t *testing.T) {
	require.Equal(t, "SWAP_EXACT_IN_SINGLE", ActionSwapExactInSingle.String())
	require.Equal(t, "ACTION_0xff", Action(0xff).String())
}
