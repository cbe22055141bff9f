package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PreparedCall is a fully serialized contract call ready for an external signer.
type PreparedCall struct {
	Label string         `json:"label"`
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *hexutil.Big   `json:"value"`
}

// NewPreparedCall builds a call with a zero value.
func NewPreparedCall(label string, to common.Address, data []byte) PreparedCall {
	return PreparedCall{Label: label, To: to, Data: data, Value: (*hexutil.Big)(new(big.Int))}
}

// WithValue returns a copy that carries the given native value.
func (c PreparedCall) WithValue(value *big.Int) PreparedCall {
	if value == nil {
		value = new(big.Int)
	}
	c.Value = (*hexutil.Big)(new(big.Int).Set(value))
	return c
}

// ValueInt returns the native value as a big.Int.
func (c PreparedCall) ValueInt() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.Value.ToInt())
}
