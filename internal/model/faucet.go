package model

import "math/big"

// FaucetState is the faucet's view of one account plus its reserves.
type FaucetState struct {
	CanDrip          bool     `json:"can_drip"`
	SecondsUntilDrip uint64   `json:"seconds_until_drip"`
	DripAmount0      *big.Int `json:"drip_amount0"`
	DripAmount1      *big.Int `json:"drip_amount1"`
	Balance0         *big.Int `json:"balance0"`
	Balance1         *big.Int `json:"balance1"`
}

// Funded reports whether the faucet holds at least one drip of each token.
func (s FaucetState) Funded() bool {
	if s.DripAmount0 == nil || s.DripAmount1 == nil || s.Balance0 == nil || s.Balance1 == nil {
		return false
	}
	return s.Balance0.Cmp(s.DripAmount0) >= 0 && s.Balance1.Cmp(s.DripAmount1) >= 0
}

// Ready reports whether a drip would succeed for the account.
func (s FaucetState) Ready() bool {
	return s.CanDrip && s.Funded()
}
