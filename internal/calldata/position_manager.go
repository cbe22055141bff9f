package calldata

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/position"
)

const positionManagerABIJSON = `[
  {
    "inputs": [
      {"internalType": "bytes", "name": "unlockData", "type": "bytes"},
      {"internalType": "uint256", "name": "deadline", "type": "uint256"}
    ],
    "name": "modifyLiquidities",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes[]", "name": "data", "type": "bytes[]"}],
    "name": "multicall",
    "outputs": [{"internalType": "bytes[]", "name": "results", "type": "bytes[]"}],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	posmABI     abi.ABI
	posmABIOnce sync.Once
	posmABIErr  error
)

// PositionManagerABI returns the parsed modifyLiquidities/multicall ABI.
func PositionManagerABI() (abi.ABI, error) {
	posmABIOnce.Do(func() {
		posmABI, posmABIErr = abi.JSON(strings.NewReader(positionManagerABIJSON))
	})
	return posmABI, posmABIErr
}

// MintOptions controls a position mint.
type MintOptions struct {
	SlippageBps uint32
	Deadline    *big.Int
	Recipient   common.Address
	HookData    []byte
}

// MintCall is the encoded mint plus the native value it must carry.
type MintCall struct {
	Data       []byte
	Value      *big.Int
	Amount0Max *big.Int
	Amount1Max *big.Int
}

// MintCalldata returns modifyLiquidities(plan, deadline) for pos. The plan is MINT_POSITION then
// SETTLE_PAIR, plus SWEEP of the native currency back to the sender when currency0 is native.
func MintCalldata(pos position.Position, opts MintOptions) (MintCall, error) {
	key := pos.Pool.Key
	if err := key.Validate(); err != nil {
		return MintCall{}, fmt.Errorf("%w: pool key: %v", model.ErrInsufficientData, err)
	}
	if !pos.Range.AlignedTo(key.TickSpacing) {
		return MintCall{}, fmt.Errorf("%w: ticks [%d, %d] not aligned to spacing %d",
			model.ErrInsufficientData, pos.Range.Lower, pos.Range.Upper, key.TickSpacing)
	}
	if pos.Liquidity == nil || pos.Liquidity.Sign() <= 0 {
		return MintCall{}, fmt.Errorf("%w: zero liquidity", model.ErrInsufficientData)
	}
	if opts.Recipient == (common.Address{}) {
		return MintCall{}, fmt.Errorf("%w: recipient must be set", model.ErrInsufficientData)
	}
	if opts.Deadline == nil || opts.Deadline.Sign() <= 0 {
		return MintCall{}, fmt.Errorf("%w: deadline must be set", model.ErrInsufficientData)
	}

	amount0Max, amount1Max, err := pos.MintAmountsWithSlippage(opts.SlippageBps)
	if err != nil {
		return MintCall{}, err
	}
	if amount0Max.Cmp(maxUint128) > 0 || amount1Max.Cmp(maxUint128) > 0 {
		return MintCall{}, fmt.Errorf("%w: mint amounts exceed uint128", model.ErrArithmetic)
	}

	planner := NewV4Planner()
	if err := planner.AddMint(key, pos.Range.Lower, pos.Range.Upper, pos.Liquidity, amount0Max, amount1Max, opts.Recipient, opts.HookData); err != nil {
		return MintCall{}, err
	}
	if err := planner.AddSettlePair(key.Currency0, key.Currency1); err != nil {
		return MintCall{}, err
	}
	value := new(big.Int)
	if key.Currency0 == (common.Address{}) {
		if err := planner.AddSweep(key.Currency0, MsgSender); err != nil {
			return MintCall{}, err
		}
		value.Set(amount0Max)
	}
	plan, err := planner.Finalize()
	if err != nil {
		return MintCall{}, err
	}

	posm, err := PositionManagerABI()
	if err != nil {
		return MintCall{}, fmt.Errorf("parse position manager abi: %w", err)
	}
	data, err := posm.Pack("modifyLiquidities", plan, opts.Deadline)
	if err != nil {
		return MintCall{}, fmt.Errorf("pack modifyLiquidities: %w", err)
	}
	return MintCall{Data: data, Value: value, Amount0Max: amount0Max, Amount1Max: amount1Max}, nil
}

// BuildMint wraps MintCalldata in a call to the position manager.
func BuildMint(positionManager common.Address, pos position.Position, opts MintOptions, label string) (model.PreparedCall, error) {
	mint, err := MintCalldata(pos, opts)
	if err != nil {
		return model.PreparedCall{}, err
	}
	return model.NewPreparedCall(label, positionManager, mint.Data).WithValue(mint.Value), nil
}
