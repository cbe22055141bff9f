package model

import "github.com/ethereum/go-ethereum/common"

// Token captures ERC20 metadata. The zero address stands for the chain's native currency.
type Token struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name,omitempty"`
}

// IsNative reports whether the token is the native currency.
func (t Token) IsNative() bool {
	return t.Address == (common.Address{})
}

// Label returns the symbol, or a shortened address when the symbol is unknown.
func (t Token) Label() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	hex := t.Address.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
