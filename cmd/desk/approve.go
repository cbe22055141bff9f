package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/approval"
	"liquidityDesk/internal/config"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/units"
)

func newApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Show the Permit2 approval state for a spender and prepare the next approval",
		RunE:  runApprove,
	}
	addSharedFlags(cmd)
	addPoolFlags(cmd)
	cmd.Flags().String("spender", "position", "spender role: position or router")
	cmd.Flags().String("max0", "", "token0 amount the spender will pull, in token units")
	cmd.Flags().String("max1", "", "token1 amount the spender will pull, in token units")
	return cmd
}

type approveOutput struct {
	Spender  string                `json:"spender"`
	Status   approval.Status       `json:"status"`
	Step     approval.Step         `json:"step"`
	Label    string                `json:"label"`
	Next     *model.PreparedCall   `json:"next,omitempty"`
	Executed *model.ActivityRecord `json:"executed,omitempty"`
}

func runApprove(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	key, err := cfg.Key()
	if err != nil {
		return err
	}
	role, _ := cmd.Flags().GetString("spender")
	rawMax0, _ := cmd.Flags().GetString("max0")
	rawMax1, _ := cmd.Flags().GetString("max1")

	var spenderRole addresses.Contract
	switch role {
	case "position":
		spenderRole = addresses.PositionManager
	case "router":
		spenderRole = addresses.UniversalRouter
	default:
		return fmt.Errorf("unknown spender %q", role)
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

	owner, err := a.account()
	if err != nil {
		return err
	}
	spender, err := a.deployment.Address(spenderRole)
	if err != nil {
		return err
	}
	permit2, err := a.deployment.Address(addresses.Permit2Contract)
	if err != nil {
		return err
	}
	token0, token1, err := a.tokens(ctx, key)
	if err != nil {
		return err
	}

	max0, err := optionalAmount(rawMax0, token0.Decimals)
	if err != nil {
		return err
	}
	max1, err := optionalAmount(rawMax1, token1.Decimals)
	if err != nil {
		return err
	}

	orchestrator := approval.NewOrchestrator(a.reader, approval.Config{
		Owner:   owner,
		Permit2: permit2,
		Spender: spender,
		Token0:  token0,
		Token1:  token1,
	}, logger)

	snap, err := orchestrator.Step(ctx, max0, max1)
	if err != nil {
		return err
	}
	out := approveOutput{
		Spender: spender.Hex(),
		Status:  snap.Status,
		Step:    snap.Step,
		Label:   snap.Step.Label(token0.Label(), token1.Label(), units.ShortenAddress(spender.Hex())),
	}
	if snap.Step == approval.StepReady {
		return printJSON(cmd.OutOrStdout(), out)
	}

	call, err := orchestrator.Build(snap.Step)
	if err != nil {
		return err
	}
	out.Next = &call

	if exec := a.executor(); exec != nil {
		record, err := exec.Execute(ctx, model.ActivityApprove, call, flowHooks(orchestrator.Refresh))
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

// optionalAmount parses a human amount. Blank input means no requirement.
func optionalAmount(raw string, decimals uint8) (*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	return units.Parse(raw, decimals)
}
