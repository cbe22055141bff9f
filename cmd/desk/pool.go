package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"liquidityDesk/internal/config"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/tickmath"
	"liquidityDesk/internal/units"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show pool identity and live state",
		RunE:  runPool,
	}
	addSharedFlags(cmd)
	addPoolFlags(cmd)
	return cmd
}

type poolOutput struct {
	Key        poolid.PoolKey        `json:"key"`
	DynamicFee bool                  `json:"dynamic_fee"`
	Token0     model.Token           `json:"token0"`
	Token1     model.Token           `json:"token1"`
	State      model.PoolStateRecord `json:"state"`
	PriceLabel string                `json:"price_label"`
}

func runPool(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	key, err := cfg.Key()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	token0, token1, err := a.tokens(ctx, key)
	if err != nil {
		return err
	}
	state, err := a.reader.PoolState(ctx, key)
	if err != nil {
		return err
	}

	out := poolOutput{
		Key:        key,
		DynamicFee: key.IsDynamicFee(),
		Token0:     token0,
		Token1:     token1,
		State:      state.Record(),
	}
	if state.Initialized() {
		price := tickmath.SqrtPriceToPrice(state.SqrtPriceX96, token0.Decimals, token1.Decimals)
		out.State.Price = price
		out.PriceLabel = "1 " + token0.Label() + " = " + units.FormatPrice(price, units.DisplayDecimals) + " " + token1.Label()
	}
	return printJSON(cmd.OutOrStdout(), out)
}
