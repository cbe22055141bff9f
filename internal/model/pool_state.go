package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolState is a snapshot of the pool's live fields read from the state view.
type PoolState struct {
	PoolID       common.Hash
	SqrtPriceX96 *big.Int
	Tick         int32
	ProtocolFee  uint32
	LPFee        uint32
	Liquidity    *big.Int
}

// Initialized reports whether the pool has a price.
func (s PoolState) Initialized() bool {
	return s.SqrtPriceX96 != nil && s.SqrtPriceX96.Sign() > 0
}

// Record returns the JSON view of the snapshot.
func (s PoolState) Record() PoolStateRecord {
	rec := PoolStateRecord{
		PoolID:       s.PoolID.Hex(),
		SqrtPriceX96: "0",
		Tick:         s.Tick,
		ProtocolFee:  s.ProtocolFee,
		LPFee:        s.LPFee,
		Liquidity:    "0",
	}
	if s.SqrtPriceX96 != nil {
		rec.SqrtPriceX96 = s.SqrtPriceX96.String()
	}
	if s.Liquidity != nil {
		rec.Liquidity = s.Liquidity.String()
	}
	return rec
}

// PoolStateRecord is the printable form of PoolState with decimal string amounts.
type PoolStateRecord struct {
	PoolID       string  `json:"pool_id"`
	SqrtPriceX96 string  `json:"sqrt_price_x96"`
	Tick         int32   `json:"tick"`
	ProtocolFee  uint32  `json:"protocol_fee"`
	LPFee        uint32  `json:"lp_fee"`
	Liquidity    string  `json:"liquidity"`
	Price        float64 `json:"price,omitempty"`
}
