package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings every subcommand shares, loaded from flags, env, or config file.
type Config struct {
	RPCURL       string
	ChainID      uint64
	Account      string
	Deployments  string
	SlippageBps  uint32
	Deadline     time.Duration
	LogLevel     string
	Journal      string
	PGDSN        string
	NFTAPIKey    string
	MaxRetries   int
	RetryBackoff time.Duration
	Send         bool
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return shared(v)
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("slippage-bps", 50)
	v.SetDefault("deadline", 20*time.Minute)
	v.SetDefault("log-level", "info")
	v.SetDefault("journal", "./data/activity.jsonl")
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 250*time.Millisecond)
	v.SetDefault("fee", "dynamic")
	v.SetDefault("tick-spacing", 120)
	v.SetDefault("hooks", DefaultHooks)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func shared(v *viper.Viper) (Config, error) {
	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		ChainID:      v.GetUint64("chain-id"),
		Account:      strings.TrimSpace(v.GetString("account")),
		Deployments:  v.GetString("deployments"),
		SlippageBps:  v.GetUint32("slippage-bps"),
		Deadline:     v.GetDuration("deadline"),
		LogLevel:     v.GetString("log-level"),
		Journal:      v.GetString("journal"),
		PGDSN:        v.GetString("pg-dsn"),
		NFTAPIKey:    v.GetString("nft-api-key"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Send:         v.GetBool("send"),
	}
	if cfg.SlippageBps > 10_000 {
		return Config{}, fmt.Errorf("slippage-bps must be at most 10000, got %d", cfg.SlippageBps)
	}
	if cfg.Account != "" && !isHexAddress(cfg.Account) {
		return Config{}, fmt.Errorf("invalid account address %q", cfg.Account)
	}
	if cfg.Send && cfg.Account == "" {
		return Config{}, fmt.Errorf("--send requires --account")
	}
	return cfg, nil
}
