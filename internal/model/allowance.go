package model

import "math/big"

// Permit2Allowance is the intermediary allowance slot for (owner, token, spender).
type Permit2Allowance struct {
	Amount     *big.Int `json:"amount"`
	Expiration uint64   `json:"expiration"`
	Nonce      uint64   `json:"nonce"`
}

// Effective returns the usable amount at unix time now. Expired slots are worth zero on chain.
func (a Permit2Allowance) Effective(now uint64) *big.Int {
	if a.Amount == nil || (a.Expiration != 0 && a.Expiration < now) {
		return new(big.Int)
	}
	return new(big.Int).Set(a.Amount)
}
