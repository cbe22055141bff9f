// Package poolid derives the deterministic identity of a concentrated-liquidity pool.
package poolid

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// DynamicFeeFlag in the fee field marks a pool whose LP fee is set by its hooks.
	DynamicFeeFlag uint32 = 0x800000
	// MaxLPFee is 100% in hundredths of a basis point.
	MaxLPFee uint32 = 1_000_000
)

// PoolKey is the tuple that identifies a pool. Currency0 must sort below Currency1.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int32          `json:"tick_spacing"`
	Hooks       common.Address `json:"hooks"`
}

// NewPoolKey sorts the token pair and builds the key.
func NewPoolKey(tokenA, tokenB common.Address, fee uint32, tickSpacing int32, hooks common.Address) PoolKey {
	c0, c1 := SortTokens(tokenA, tokenB)
	return PoolKey{
		Currency0:   c0,
		Currency1:   c1,
		Fee:         fee,
		TickSpacing: tickSpacing,
		Hooks:       hooks,
	}
}

// SortTokens orders two addresses by their raw bytes.
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) <= 0 {
		return a, b
	}
	return b, a
}

// ID returns the pool id for the key.
func (k PoolKey) ID() common.Hash {
	return ComputePoolID(k)
}

// IsDynamicFee reports whether the key carries the dynamic fee flag.
func (k PoolKey) IsDynamicFee() bool {
	return k.Fee == DynamicFeeFlag
}

// Has reports whether token is one of the key's currencies.
func (k PoolKey) Has(token common.Address) bool {
	return token == k.Currency0 || token == k.Currency1
}

// Validate checks the key against the pool manager's initialization rules.
func (k PoolKey) Validate() error {
	cmp := bytes.Compare(k.Currency0.Bytes(), k.Currency1.Bytes())
	if cmp == 0 {
		return fmt.Errorf("currencies are identical: %s", k.Currency0.Hex())
	}
	if cmp > 0 {
		return fmt.Errorf("currencies out of order: %s > %s", k.Currency0.Hex(), k.Currency1.Hex())
	}
	if k.TickSpacing <= 0 || k.TickSpacing > 1<<15-1 {
		return fmt.Errorf("tick spacing out of range: %d", k.TickSpacing)
	}
	if !k.IsDynamicFee() && k.Fee > MaxLPFee {
		return fmt.Errorf("fee too large: %d", k.Fee)
	}
	return nil
}

// String renders the key for logs.
func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s fee=%d spacing=%d hooks=%s", k.Currency0.Hex(), k.Currency1.Hex(), k.Fee, k.TickSpacing, k.Hooks.Hex())
}

// ComputePoolID hashes the ABI encoding of (address, address, uint24, int24, address).
// Every field is a static type so the encoding is five left-padded 32-byte words.
func ComputePoolID(key PoolKey) common.Hash {
	buf := make([]byte, 0, 5*32)
	buf = append(buf, common.LeftPadBytes(key.Currency0.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(key.Currency1.Bytes(), 32)...)
	buf = append(buf, math.U256Bytes(new(big.Int).SetUint64(uint64(key.Fee)))...)
	buf = append(buf, math.U256Bytes(big.NewInt(int64(key.TickSpacing)))...)
	buf = append(buf, common.LeftPadBytes(key.Hooks.Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}
