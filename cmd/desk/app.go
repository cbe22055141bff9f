package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/chain"
	"liquidityDesk/internal/config"
	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/flow"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/storage"
	"liquidityDesk/internal/storage/postgres"
)

// app holds the connections a subcommand needs.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	client     *chain.Client
	deployment addresses.Deployment
	reader     *dex.Reader
	journal    storage.Journal
	closers    []func()
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	book := addresses.NewBook()
	if cfg.Deployments != "" {
		if err := book.LoadFile(cfg.Deployments); err != nil {
			return nil, fmt.Errorf("load deployments: %w", err)
		}
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, client: client, closers: []func(){client.Close}}

	chainID := cfg.ChainID
	if chainID == 0 {
		if chainID, err = client.ChainID(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("chain id: %w", err)
		}
	}
	if a.deployment, err = book.Lookup(chainID); err != nil {
		a.Close()
		return nil, err
	}

	a.reader = dex.NewReader(client, a.deployment, dex.ReaderConfig{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.journal = store
	} else {
		a.journal = storage.NewJsonlStorage(cfg.Journal)
	}

	logger.Info("desk start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainID),
		zap.String("deployment", a.deployment.Name),
		zap.Bool("send", cfg.Send),
	)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) account() (common.Address, error) {
	if a.cfg.Account == "" {
		return common.Address{}, fmt.Errorf("account is required")
	}
	return common.HexToAddress(a.cfg.Account), nil
}

// executor returns nil unless transactions should be sent.
func (a *app) executor() *flow.Executor {
	if !a.cfg.Send {
		return nil
	}
	submitter := chain.NodeSubmitter{Client: a.client, From: common.HexToAddress(a.cfg.Account)}
	return flow.NewExecutor(submitter, a.client, a.journal, a.deployment, a.logger)
}

func (a *app) tokens(ctx context.Context, key poolid.PoolKey) (model.Token, model.Token, error) {
	token0, err := a.reader.Token(ctx, key.Currency0)
	if err != nil {
		return model.Token{}, model.Token{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := a.reader.Token(ctx, key.Currency1)
	if err != nil {
		return model.Token{}, model.Token{}, fmt.Errorf("token1: %w", err)
	}
	return token0, token1, nil
}

// driver is the part of a session that --send walks through.
type driver interface {
	Next(ctx context.Context) (flow.Prepared, error)
	Execute(ctx context.Context, prepared flow.Prepared) (model.ActivityRecord, error)
}

// maxSteps bounds four approvals plus the final call.
const maxSteps = 5

// drive executes approvals in order and then the final call. Each confirmed step
// invalidates the reads so the next step is derived from fresh state.
func drive(ctx context.Context, d driver, logger *zap.Logger) ([]model.ActivityRecord, error) {
	var records []model.ActivityRecord
	for i := 0; i < maxSteps; i++ {
		prepared, err := d.Next(ctx)
		if err != nil {
			return records, err
		}
		logger.Info("executing", zap.String("kind", string(prepared.Kind)), zap.String("label", prepared.Call.Label))
		record, err := d.Execute(ctx, prepared)
		if record.TxHash != "" {
			records = append(records, record)
		}
		if err != nil {
			return records, err
		}
		if prepared.Kind != model.ActivityApprove {
			return records, nil
		}
	}
	return records, fmt.Errorf("approvals did not settle after %d transactions", maxSteps)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
