package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityDesk/internal/config"
	"liquidityDesk/internal/model"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll pool state and print every change",
		RunE:  runWatch,
	}
	addSharedFlags(cmd)
	addPoolFlags(cmd)
	cmd.Flags().Duration("interval", 12*time.Second, "poll interval")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	key, err := cfg.Key()
	if err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = 12 * time.Second
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

	var last model.PoolStateRecord
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		a.reader.InvalidatePool(key)
		state, err := a.reader.PoolState(ctx, key)
		if err != nil {
			logger.Warn("pool read failed", zap.String("pool_id", key.ID().Hex()), zap.Error(err))
		} else if rec := state.Record(); rec != last {
			last = rec
			if err := printJSON(cmd.OutOrStdout(), rec); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}
