package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityDesk/internal/approval"
	"liquidityDesk/internal/config"
	"liquidityDesk/internal/flow"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/tickmath"
	"liquidityDesk/internal/units"
)

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Size a position from one token amount and prepare the approvals and mint",
		RunE:  runPosition,
	}
	addSharedFlags(cmd)
	addPoolFlags(cmd)
	cmd.Flags().String("amount0", "", "token0 amount in token units (exclusive with --amount1)")
	cmd.Flags().String("amount1", "", "token1 amount in token units (exclusive with --amount0)")
	cmd.Flags().Int32("tick-lower", 0, "lower tick, snapped to spacing")
	cmd.Flags().Int32("tick-upper", 0, "upper tick, snapped to spacing")
	cmd.Flags().Bool("full-range", false, "use the widest usable range")
	return cmd
}

type positionOutput struct {
	Range      tickmath.TickRange     `json:"range"`
	PriceLower string                 `json:"price_lower"`
	PriceUpper string                 `json:"price_upper"`
	Liquidity  string                 `json:"liquidity"`
	Amount0    string                 `json:"amount0"`
	Amount1    string                 `json:"amount1"`
	Amount0Max string                 `json:"amount0_max"`
	Amount1Max string                 `json:"amount1_max"`
	Approvals  approval.Status        `json:"approvals"`
	Step       approval.Step          `json:"step"`
	Next       flow.Prepared          `json:"next"`
	Executed   []model.ActivityRecord `json:"executed,omitempty"`
}

func runPosition(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPosition(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	key, err := cfg.Key()
	if err != nil {
		return err
	}
	rng, err := cfg.Range()
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

	owner, err := a.account()
	if err != nil {
		return err
	}
	token0, token1, err := a.tokens(ctx, key)
	if err != nil {
		return err
	}

	session, err := flow.NewMintSession(flow.MintConfig{
		Key:            key,
		Token0:         token0,
		Token1:         token1,
		Owner:          owner,
		Deployment:     a.deployment,
		Range:          rng,
		SlippageBps:    cfg.SlippageBps,
		DeadlineWindow: cfg.Deadline,
	}, a.reader, a.reader, a.executor(), logger)
	if err != nil {
		return err
	}

	if cfg.Amount0 != "" {
		amount, err := units.Parse(cfg.Amount0, token0.Decimals)
		if err != nil {
			return err
		}
		session.SetAmount0(amount)
	} else {
		amount, err := units.Parse(cfg.Amount1, token1.Decimals)
		if err != nil {
			return err
		}
		session.SetAmount1(amount)
	}

	snap, pos, err := session.Approval(ctx)
	if err != nil {
		return err
	}
	max0, max1, err := pos.MintAmountsWithSlippage(cfg.SlippageBps)
	if err != nil {
		return err
	}
	next, err := session.Next(ctx)
	if err != nil {
		return err
	}

	rng = session.Range()
	out := positionOutput{
		Range:      rng,
		PriceLower: units.FormatPrice(tickmath.TickToPrice(rng.Lower, token0.Decimals, token1.Decimals), units.DisplayDecimals),
		PriceUpper: units.FormatPrice(tickmath.TickToPrice(rng.Upper, token0.Decimals, token1.Decimals), units.DisplayDecimals),
		Liquidity:  pos.Liquidity.String(),
		Amount0:    units.Format(pos.Amount0, token0.Decimals, units.DisplayDecimals),
		Amount1:    units.Format(pos.Amount1, token1.Decimals, units.DisplayDecimals),
		Amount0Max: units.FormatExact(max0, token0.Decimals),
		Amount1Max: units.FormatExact(max1, token1.Decimals),
		Approvals:  snap.Status,
		Step:       snap.Step,
		Next:       next,
	}

	if cfg.Send {
		records, err := drive(ctx, session, logger)
		out.Executed = records
		if err != nil {
			logger.Error("execution stopped", zap.Error(err))
			_ = printJSON(cmd.OutOrStdout(), out)
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), out)
}
