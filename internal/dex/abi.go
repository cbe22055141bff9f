package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const stateViewABIJSON = `[
  {
    "inputs": [{"internalType": "PoolId", "name": "poolId", "type": "bytes32"}],
    "name": "getSlot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint24", "name": "protocolFee", "type": "uint24"},
      {"internalType": "uint24", "name": "lpFee", "type": "uint24"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "PoolId", "name": "poolId", "type": "bytes32"}],
    "name": "getLiquidity",
    "outputs": [{"internalType": "uint128", "name": "liquidity", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const permit2ABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "user", "type": "address"},
      {"internalType": "address", "name": "token", "type": "address"},
      {"internalType": "address", "name": "spender", "type": "address"}
    ],
    "name": "allowance",
    "outputs": [
      {"internalType": "uint160", "name": "amount", "type": "uint160"},
      {"internalType": "uint48", "name": "expiration", "type": "uint48"},
      {"internalType": "uint48", "name": "nonce", "type": "uint48"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "token", "type": "address"},
      {"internalType": "address", "name": "spender", "type": "address"},
      {"internalType": "uint160", "name": "amount", "type": "uint160"},
      {"internalType": "uint48", "name": "expiration", "type": "uint48"}
    ],
    "name": "approve",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const faucetABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "canDrip", "outputs": [{"type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "timeUntilNextDrip", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "dripAmount0", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "dripAmount1", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getBalances", "outputs": [{"name": "balance0", "type": "uint256"}, {"name": "balance1", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "drip", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

var (
	stateViewABI     abi.ABI
	stateViewABIOnce sync.Once
	stateViewABIErr  error

	permit2ABI     abi.ABI
	permit2ABIOnce sync.Once
	permit2ABIErr  error

	faucetABI     abi.ABI
	faucetABIOnce sync.Once
	faucetABIErr  error
)

// StateViewABI returns the parsed V4 StateView ABI.
func StateViewABI() (abi.ABI, error) {
	stateViewABIOnce.Do(func() {
		stateViewABI, stateViewABIErr = abi.JSON(strings.NewReader(stateViewABIJSON))
	})
	return stateViewABI, stateViewABIErr
}

// Permit2ABI returns the parsed allowance-transfer subset of Permit2.
func Permit2ABI() (abi.ABI, error) {
	permit2ABIOnce.Do(func() {
		permit2ABI, permit2ABIErr = abi.JSON(strings.NewReader(permit2ABIJSON))
	})
	return permit2ABI, permit2ABIErr
}

// FaucetABI returns the parsed test-token faucet ABI.
func FaucetABI() (abi.ABI, error) {
	faucetABIOnce.Do(func() {
		faucetABI, faucetABIErr = abi.JSON(strings.NewReader(faucetABIJSON))
	})
	return faucetABI, faucetABIErr
}
