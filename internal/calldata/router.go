package calldata

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
)

// CommandV4Swap is the universal router command that runs a V4 action plan.
const CommandV4Swap byte = 0x10

// DefaultDeadlineWindow is how long a prepared call stays executable.
const DefaultDeadlineWindow = 20 * time.Minute

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

const universalRouterABIJSON = `[
  {
    "inputs": [
      {"internalType": "bytes", "name": "commands", "type": "bytes"},
      {"internalType": "bytes[]", "name": "inputs", "type": "bytes[]"},
      {"internalType": "uint256", "name": "deadline", "type": "uint256"}
    ],
    "name": "execute",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	routerABI     abi.ABI
	routerABIOnce sync.Once
	routerABIErr  error
)

// UniversalRouterABI returns the parsed execute(bytes,bytes[],uint256) ABI.
func UniversalRouterABI() (abi.ABI, error) {
	routerABIOnce.Do(func() {
		routerABI, routerABIErr = abi.JSON(strings.NewReader(universalRouterABIJSON))
	})
	return routerABI, routerABIErr
}

// Deadline returns now+window as unix seconds. A non-positive window uses DefaultDeadlineWindow.
func Deadline(now time.Time, window time.Duration) *big.Int {
	if window <= 0 {
		window = DefaultDeadlineWindow
	}
	return big.NewInt(now.Add(window).Unix())
}

// SwapParams describes an exact-input single-pool swap.
type SwapParams struct {
	Key              poolid.PoolKey
	ZeroForOne       bool
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	HookData         []byte
	Deadline         *big.Int
}

func (p SwapParams) currencies() (common.Address, common.Address) {
	if p.ZeroForOne {
		return p.Key.Currency0, p.Key.Currency1
	}
	return p.Key.Currency1, p.Key.Currency0
}

func (p SwapParams) validate() error {
	if err := p.Key.Validate(); err != nil {
		return fmt.Errorf("pool key: %w", err)
	}
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 {
		return fmt.Errorf("amount in must be positive")
	}
	if p.AmountOutMinimum == nil || p.AmountOutMinimum.Sign() <= 0 {
		return fmt.Errorf("minimum amount out must be positive")
	}
	if p.AmountIn.Cmp(maxUint128) > 0 || p.AmountOutMinimum.Cmp(maxUint128) > 0 {
		return fmt.Errorf("amount exceeds uint128")
	}
	if p.Deadline == nil || p.Deadline.Sign() <= 0 {
		return fmt.Errorf("deadline must be set")
	}
	return nil
}

// SwapCalldata returns execute(commands=[V4_SWAP], inputs=[plan], deadline).
// The plan is SWAP_EXACT_IN_SINGLE, SETTLE_ALL(input, amountIn), TAKE_ALL(output, minOut).
func SwapCalldata(params SwapParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInsufficientData, err)
	}
	currencyIn, currencyOut := params.currencies()

	planner := NewV4Planner()
	if err := planner.AddSwapExactInSingle(params.Key, params.ZeroForOne, params.AmountIn, params.AmountOutMinimum, params.HookData); err != nil {
		return nil, err
	}
	if err := planner.AddSettleAll(currencyIn, params.AmountIn); err != nil {
		return nil, err
	}
	if err := planner.AddTakeAll(currencyOut, params.AmountOutMinimum); err != nil {
		return nil, err
	}
	plan, err := planner.Finalize()
	if err != nil {
		return nil, err
	}

	router, err := UniversalRouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	data, err := router.Pack("execute", []byte{CommandV4Swap}, [][]byte{plan}, params.Deadline)
	if err != nil {
		return nil, fmt.Errorf("pack execute: %w", err)
	}
	return data, nil
}

// BuildSwap wraps SwapCalldata in a call to router. A native input is sent as value.
func BuildSwap(router common.Address, params SwapParams, label string) (model.PreparedCall, error) {
	data, err := SwapCalldata(params)
	if err != nil {
		return model.PreparedCall{}, err
	}
	call := model.NewPreparedCall(label, router, data)
	if currencyIn, _ := params.currencies(); currencyIn == (common.Address{}) {
		call = call.WithValue(params.AmountIn)
	}
	return call, nil
}
