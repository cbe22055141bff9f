package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"liquidityDesk/internal/config"
	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/flow"
	"liquidityDesk/internal/model"
)

func newFaucetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faucet",
		Short: "Show the test-token faucet state and prepare a drip",
		RunE:  runFaucet,
	}
	addSharedFlags(cmd)
	return cmd
}

type faucetOutput struct {
	State    model.FaucetState     `json:"state"`
	Funded   bool                  `json:"funded"`
	Ready    bool                  `json:"ready"`
	Next     *model.PreparedCall   `json:"next,omitempty"`
	Executed *model.ActivityRecord `json:"executed,omitempty"`
}

func runFaucet(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
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

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.account()
	if err != nil {
		return err
	}
	state, err := a.reader.FaucetState(ctx, account)
	if err != nil {
		return err
	}

	out := faucetOutput{State: state, Funded: state.Funded(), Ready: state.Ready()}
	if !out.Ready {
		return printJSON(cmd.OutOrStdout(), out)
	}

	call, err := dex.BuildDrip(a.deployment)
	if err != nil {
		return err
	}
	out.Next = &call

	if exec := a.executor(); exec != nil {
		record, err := exec.Execute(ctx, model.ActivityDrip, call, flowHooks(func() {
			a.reader.InvalidateFaucet(account)
		}))
		if record.TxHash != "" {
			out.Executed = &record
		}
		if err != nil {
			_ = printJSON(cmd.OutOrStdout(), out)
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func flowHooks(onConfirmed func()) flow.Hooks {
	return flow.Hooks{OnConfirmed: onConfirmed}
}
