package calldata

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Action is a v4-periphery router or position-manager action code.
type Action byte

const (
	ActionIncreaseLiquidity  Action = 0x00
	ActionDecreaseLiquidity  Action = 0x01
	ActionMintPosition       Action = 0x02
	ActionBurnPosition       Action = 0x03
	ActionSwapExactInSingle  Action = 0x06
	ActionSwapExactIn        Action = 0x07
	ActionSwapExactOutSingle Action = 0x08
	ActionSwapExactOut       Action = 0x09
	ActionSettle             Action = 0x0b
	ActionSettleAll          Action = 0x0c
	ActionSettlePair         Action = 0x0d
	ActionTake               Action = 0x0e
	ActionTakeAll            Action = 0x0f
	ActionTakePair           Action = 0x11
	ActionCloseCurrency      Action = 0x12
	ActionSweep              Action = 0x14
)

var actionNames = map[Action]string{
	ActionIncreaseLiquidity:  "INCREASE_LIQUIDITY",
	ActionDecreaseLiquidity:  "DECREASE_LIQUIDITY",
	ActionMintPosition:       "MINT_POSITION",
	ActionBurnPosition:       "BURN_POSITION",
	ActionSwapExactInSingle:  "SWAP_EXACT_IN_SINGLE",
	ActionSwapExactIn:        "SWAP_EXACT_IN",
	ActionSwapExactOutSingle: "SWAP_EXACT_OUT_SINGLE",
	ActionSwapExactOut:       "SWAP_EXACT_OUT",
	ActionSettle:             "SETTLE",
	ActionSettleAll:          "SETTLE_ALL",
	ActionSettlePair:         "SETTLE_PAIR",
	ActionTake:               "TAKE",
	ActionTakeAll:            "TAKE_ALL",
	ActionTakePair:           "TAKE_PAIR",
	ActionCloseCurrency:      "CLOSE_CURRENCY",
	ActionSweep:              "SWEEP",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_0x%02x", byte(a))
}

var poolKeyComponents = []abi.ArgumentMarshaling{
	{Name: "currency0", Type: "address"},
	{Name: "currency1", Type: "address"},
	{Name: "fee", Type: "uint24"},
	{Name: "tickSpacing", Type: "int24"},
	{Name: "hooks", Type: "address"},
}

// actionParams lists the ABI parameter layout of every action the planner can encode.
var actionParams = map[Action][]argSpec{
	ActionSwapExactInSingle: {
		{name: "params", typ: "tuple", components: []abi.ArgumentMarshaling{
			{Name: "poolKey", Type: "tuple", Components: poolKeyComponents},
			{Name: "zeroForOne", Type: "bool"},
			{Name: "amountIn", Type: "uint128"},
			{Name: "amountOutMinimum", Type: "uint128"},
			{Name: "hookData", Type: "bytes"},
		}},
	},
	ActionMintPosition: {
		{name: "poolKey", typ: "tuple", components: poolKeyComponents},
		{name: "tickLower", typ: "int24"},
		{name: "tickUpper", typ: "int24"},
		{name: "liquidity", typ: "uint256"},
		{name: "amount0Max", typ: "uint128"},
		{name: "amount1Max", typ: "uint128"},
		{name: "owner", typ: "address"},
		{name: "hookData", typ: "bytes"},
	},
	ActionSettleAll:  {{name: "currency", typ: "address"}, {name: "maxAmount", typ: "uint256"}},
	ActionTakeAll:    {{name: "currency", typ: "address"}, {name: "minAmount", typ: "uint256"}},
	ActionSettlePair: {{name: "currency0", typ: "address"}, {name: "currency1", typ: "address"}},
	ActionTakePair:   {{name: "currency0", typ: "address"}, {name: "currency1", typ: "address"}, {name: "recipient", typ: "address"}},
	ActionSweep:      {{name: "currency", typ: "address"}, {name: "recipient", typ: "address"}},
}

type argSpec struct {
	name       string
	typ        string
	components []abi.ArgumentMarshaling
}

var (
	actionArgs     map[Action]abi.Arguments
	actionArgsOnce sync.Once
	actionArgsErr  error
)

// ActionArguments returns the parsed argument layout for action.
func ActionArguments(action Action) (abi.Arguments, error) {
	actionArgsOnce.Do(func() {
		actionArgs = make(map[Action]abi.Arguments, len(actionParams))
		for a, specs := range actionParams {
			args := make(abi.Arguments, 0, len(specs))
			for _, arg := range specs {
				typ, err := abi.NewType(arg.typ, "", arg.components)
				if err != nil {
					actionArgsErr = fmt.Errorf("%s %s: %w", a, arg.name, err)
					return
				}
				args = append(args, abi.Argument{Name: arg.name, Type: typ})
			}
			actionArgs[a] = args
		}
	})
	if actionArgsErr != nil {
		return nil, actionArgsErr
	}
	args, ok := actionArgs[action]
	if !ok {
		return nil, fmt.Errorf("action %s not supported", action)
	}
	return args, nil
}
