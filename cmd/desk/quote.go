package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityDesk/internal/approval"
	"liquidityDesk/internal/config"
	"liquidityDesk/internal/flow"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/quote"
	"liquidityDesk/internal/units"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote an exact-input swap and prepare the approvals and swap",
		RunE:  runQuote,
	}
	addSharedFlags(cmd)
	addPoolFlags(cmd)
	cmd.Flags().String("token-in", "", "token being sold, defaults to currency0")
	cmd.Flags().String("amount", "", "input amount in token units")
	return cmd
}

type quoteOutput struct {
	TokenIn   model.Token            `json:"token_in"`
	TokenOut  model.Token            `json:"token_out"`
	Quote     quote.Record           `json:"quote"`
	AmountOut string                 `json:"amount_out_display"`
	MinOut    string                 `json:"minimum_out_display"`
	Approvals approval.Status        `json:"approvals"`
	Step      approval.Step          `json:"step"`
	Next      flow.Prepared          `json:"next"`
	Executed  []model.ActivityRecord `json:"executed,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
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

	owner, err := a.account()
	if err != nil {
		return err
	}
	token0, token1, err := a.tokens(ctx, key)
	if err != nil {
		return err
	}

	session, err := flow.NewSwapSession(flow.SwapConfig{
		Key:            key,
		Token0:         token0,
		Token1:         token1,
		Owner:          owner,
		Deployment:     a.deployment,
		SlippageBps:    cfg.SlippageBps,
		DeadlineWindow: cfg.Deadline,
	}, a.reader, a.reader, a.executor(), logger)
	if err != nil {
		return err
	}

	if cfg.TokenIn != "" {
		if err := session.SetTokenIn(common.HexToAddress(cfg.TokenIn)); err != nil {
			return err
		}
	}
	tokenIn, tokenOut := session.Tokens()
	amount, err := units.Parse(cfg.Amount, tokenIn.Decimals)
	if err != nil {
		return err
	}
	session.SetAmountIn(amount)

	snap, q, err := session.Approval(ctx)
	if err != nil {
		return err
	}
	next, err := session.Next(ctx)
	if err != nil {
		return err
	}

	out := quoteOutput{
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		Quote:     q.Record(),
		AmountOut: units.Format(q.AmountOut, tokenOut.Decimals, units.DisplayDecimals),
		MinOut:    units.Format(q.MinimumAmountOut, tokenOut.Decimals, units.DisplayDecimals),
		Approvals: snap.Status,
		Step:      snap.Step,
		Next:      next,
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
