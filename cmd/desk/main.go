package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "desk",
		Short:        "Uniswap V4 pool desk: pool reads, position sizing, quotes and approvals",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newPoolCmd())
	root.AddCommand(newPositionCmd())
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newApproveCmd())
	root.AddCommand(newFaucetCmd())
	root.AddCommand(newPositionsCmd())
	root.AddCommand(newActivityCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSharedFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().Uint64("chain-id", 0, "chain id, 0 asks the node")
	cmd.Flags().String("account", "", "wallet address")
	cmd.Flags().String("deployments", "", "YAML file with extra or overridden deployments")
	cmd.Flags().Uint32("slippage-bps", 50, "slippage tolerance in basis points")
	cmd.Flags().Duration("deadline", 20*time.Minute, "transaction deadline window")
	cmd.Flags().String("journal", "./data/activity.jsonl", "activity journal JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the activity journal (overrides --journal)")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts for reads")
	cmd.Flags().Duration("retry-backoff", 250*time.Millisecond, "initial retry backoff")
	cmd.Flags().Bool("send", false, "send transactions through the node's eth_sendTransaction")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("token-a", "", "first pool token (zero address for native)")
	cmd.Flags().String("token-b", "", "second pool token")
	cmd.Flags().String("fee", "dynamic", "pool fee in hundredths of a bip, or \"dynamic\"")
	cmd.Flags().Int32("tick-spacing", 120, "pool tick spacing")
	cmd.Flags().String("hooks", "0x9A411c87d79059d99ebB1F229289593713Ace080", "hooks contract")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
