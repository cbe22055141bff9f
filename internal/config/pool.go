package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/tickmath"
)

// DefaultHooks is the hook contract of the default pool.
const DefaultHooks = "0x9A411c87d79059d99ebB1F229289593713Ace080"

// PoolConfig selects a pool on top of the shared settings.
type PoolConfig struct {
	Config
	TokenA      string
	TokenB      string
	Fee         uint32
	TickSpacing int32
	Hooks       string
}

// Key builds the sorted pool key.
func (c PoolConfig) Key() (poolid.PoolKey, error) {
	for name, value := range map[string]string{"token-a": c.TokenA, "token-b": c.TokenB, "hooks": c.Hooks} {
		if value != "" && !isHexAddress(value) {
			return poolid.PoolKey{}, fmt.Errorf("invalid %s address %q", name, value)
		}
	}
	if c.TokenA == "" || c.TokenB == "" {
		return poolid.PoolKey{}, fmt.Errorf("token-a and token-b are required")
	}
	key := poolid.NewPoolKey(common.HexToAddress(c.TokenA), common.HexToAddress(c.TokenB), c.Fee, c.TickSpacing, common.HexToAddress(c.Hooks))
	if err := key.Validate(); err != nil {
		return poolid.PoolKey{}, err
	}
	return key, nil
}

// LoadPool merges config file, environment variables, and flags into PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PoolConfig{}, err
	}
	return poolConfig(v)
}

func poolConfig(v *viper.Viper) (PoolConfig, error) {
	base, err := shared(v)
	if err != nil {
		return PoolConfig{}, err
	}
	fee, err := ParseFee(v.GetString("fee"))
	if err != nil {
		return PoolConfig{}, err
	}
	return PoolConfig{
		Config:      base,
		TokenA:      strings.TrimSpace(v.GetString("token-a")),
		TokenB:      strings.TrimSpace(v.GetString("token-b")),
		Fee:         fee,
		TickSpacing: v.GetInt32("tick-spacing"),
		Hooks:       strings.TrimSpace(v.GetString("hooks")),
	}, nil
}

// PositionConfig sizes a position. Exactly one of Amount0 and Amount1 is set.
type PositionConfig struct {
	PoolConfig
	Amount0   string
	Amount1   string
	TickLower int32
	TickUpper int32
	FullRange bool
}

// Range returns the requested range, or the widest usable range when none was given.
func (c PositionConfig) Range() (tickmath.TickRange, error) {
	if c.FullRange || (c.TickLower == 0 && c.TickUpper == 0) {
		return tickmath.FullRangeFor(c.TickSpacing)
	}
	return tickmath.SnapRange(tickmath.TickRange{Lower: c.TickLower, Upper: c.TickUpper}, c.TickSpacing)
}

// LoadPosition merges config file, environment variables, and flags into PositionConfig.
func LoadPosition(cfgFile string, flags *pflag.FlagSet) (PositionConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PositionConfig{}, err
	}
	pool, err := poolConfig(v)
	if err != nil {
		return PositionConfig{}, err
	}
	cfg := PositionConfig{
		PoolConfig: pool,
		Amount0:    strings.TrimSpace(v.GetString("amount0")),
		Amount1:    strings.TrimSpace(v.GetString("amount1")),
		TickLower:  v.GetInt32("tick-lower"),
		TickUpper:  v.GetInt32("tick-upper"),
		FullRange:  v.GetBool("full-range"),
	}
	if (cfg.Amount0 == "") == (cfg.Amount1 == "") {
		return PositionConfig{}, fmt.Errorf("exactly one of amount0 and amount1 is required")
	}
	return cfg, nil
}

// QuoteConfig prices an exact-input swap.
type QuoteConfig struct {
	PoolConfig
	TokenIn string
	Amount  string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return QuoteConfig{}, err
	}
	pool, err := poolConfig(v)
	if err != nil {
		return QuoteConfig{}, err
	}
	cfg := QuoteConfig{
		PoolConfig: pool,
		TokenIn:    strings.TrimSpace(v.GetString("token-in")),
		Amount:     strings.TrimSpace(v.GetString("amount")),
	}
	if cfg.Amount == "" {
		return QuoteConfig{}, fmt.Errorf("amount is required")
	}
	if cfg.TokenIn != "" && !isHexAddress(cfg.TokenIn) {
		return QuoteConfig{}, fmt.Errorf("invalid token-in address %q", cfg.TokenIn)
	}
	return cfg, nil
}

// ParseFee accepts a decimal fee, a 0x-prefixed hex fee, or "dynamic".
func ParseFee(input string) (uint32, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "dynamic" {
		return poolid.DynamicFeeFlag, nil
	}
	n, ok := new(big.Int).SetString(input, 0)
	if !ok || n.Sign() < 0 || !n.IsUint64() || n.Uint64() > 0xffffff {
		return 0, fmt.Errorf("invalid fee %q", input)
	}
	return uint32(n.Uint64()), nil
}

func isHexAddress(s string) bool {
	return common.IsHexAddress(s)
}
