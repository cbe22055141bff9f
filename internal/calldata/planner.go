// Package calldata serializes swap and mint calls for the universal router and position manager.
package calldata

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/poolid"
)

// MsgSender is the router's placeholder for the transaction sender.
var MsgSender = common.HexToAddress("0x0000000000000000000000000000000000000001")

type poolKeyParam struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

func newPoolKeyParam(key poolid.PoolKey) poolKeyParam {
	return poolKeyParam{
		Currency0:   key.Currency0,
		Currency1:   key.Currency1,
		Fee:         new(big.Int).SetUint64(uint64(key.Fee)),
		TickSpacing: big.NewInt(int64(key.TickSpacing)),
		Hooks:       key.Hooks,
	}
}

type exactInputSingleParam struct {
	PoolKey          poolKeyParam
	ZeroForOne       bool
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	HookData         []byte
}

// V4Planner accumulates actions and their encoded parameters for one unlock call.
type V4Planner struct {
	actions []byte
	params  [][]byte
}

// NewV4Planner returns an empty planner.
func NewV4Planner() *V4Planner {
	return &V4Planner{}
}

// AddAction encodes args with the action's parameter layout and appends it.
func (p *V4Planner) AddAction(action Action, args ...interface{}) error {
	layout, err := ActionArguments(action)
	if err != nil {
		return err
	}
	encoded, err := layout.Pack(args...)
	if err != nil {
		return fmt.Errorf("encode %s: %w", action, err)
	}
	p.actions = append(p.actions, byte(action))
	p.params = append(p.params, encoded)
	return nil
}

// AddSwapExactInSingle appends an exact-input swap through a single pool.
func (p *V4Planner) AddSwapExactInSingle(key poolid.PoolKey, zeroForOne bool, amountIn, amountOutMinimum *big.Int, hookData []byte) error {
	if hookData == nil {
		hookData = []byte{}
	}
	return p.AddAction(ActionSwapExactInSingle, exactInputSingleParam{
		PoolKey:          newPoolKeyParam(key),
		ZeroForOne:       zeroForOne,
		AmountIn:         amountIn,
		AmountOutMinimum: amountOutMinimum,
		HookData:         hookData,
	})
}

// AddSettleAll pays up to maxAmount of currency owed to the pool manager.
func (p *V4Planner) AddSettleAll(currency common.Address, maxAmount *big.Int) error {
	return p.AddAction(ActionSettleAll, currency, maxAmount)
}

// AddTakeAll withdraws all of currency owed to the sender, requiring at least minAmount.
func (p *V4Planner) AddTakeAll(currency common.Address, minAmount *big.Int) error {
	return p.AddAction(ActionTakeAll, currency, minAmount)
}

// AddMint appends a position mint.
func (p *V4Planner) AddMint(key poolid.PoolKey, tickLower, tickUpper int32, liquidity, amount0Max, amount1Max *big.Int, owner common.Address, hookData []byte) error {
	if hookData == nil {
		hookData = []byte{}
	}
	return p.AddAction(ActionMintPosition,
		newPoolKeyParam(key),
		big.NewInt(int64(tickLower)),
		big.NewInt(int64(tickUpper)),
		liquidity,
		amount0Max,
		amount1Max,
		owner,
		hookData,
	)
}

// AddSettlePair settles both currencies from the sender.
func (p *V4Planner) AddSettlePair(currency0, currency1 common.Address) error {
	return p.AddAction(ActionSettlePair, currency0, currency1)
}

// AddSweep returns any leftover currency held by the contract to recipient.
func (p *V4Planner) AddSweep(currency, recipient common.Address) error {
	return p.AddAction(ActionSweep, currency, recipient)
}

// Actions returns the queued action codes.
func (p *V4Planner) Actions() []Action {
	out := make([]Action, len(p.actions))
	for i, a := range p.actions {
		out[i] = Action(a)
	}
	return out
}

var (
	unlockArgs     abi.Arguments
	unlockArgsOnce sync.Once
	unlockArgsErr  error
)

func unlockArguments() (abi.Arguments, error) {
	unlockArgsOnce.Do(func() {
		bytesType, err := abi.NewType("bytes", "", nil)
		if err != nil {
			unlockArgsErr = err
			return
		}
		bytesSliceType, err := abi.NewType("bytes[]", "", nil)
		if err != nil {
			unlockArgsErr = err
			return
		}
		unlockArgs = abi.Arguments{{Name: "actions", Type: bytesType}, {Name: "params", Type: bytesSliceType}}
	})
	return unlockArgs, unlockArgsErr
}

// Finalize returns abi.encode(bytes actions, bytes[] params).
func (p *V4Planner) Finalize() ([]byte, error) {
	if len(p.actions) == 0 {
		return nil, fmt.Errorf("planner has no actions")
	}
	args, err := unlockArguments()
	if err != nil {
		return nil, err
	}
	return args.Pack(p.actions, p.params)
}

// DecodeUnlockData splits finalized planner output back into actions and params.
func DecodeUnlockData(data []byte) ([]Action, [][]byte, error) {
	args, err := unlockArguments()
	if err != nil {
		return nil, nil, err
	}
	values, err := args.Unpack(data)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack unlock data: %w", err)
	}
	raw, ok := values[0].([]byte)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected actions type %T", values[0])
	}
	params, ok := values[1].([][]byte)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected params type %T", values[1])
	}
	actions := make([]Action, len(raw))
	for i, a := range raw {
		actions[i] = Action(a)
	}
	return actions, params, nil
}
