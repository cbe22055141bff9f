package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/storage"
)

// Submitter hands a prepared call to a wallet and returns the transaction hash.
type Submitter interface {
	Submit(ctx context.Context, call model.PreparedCall) (common.Hash, error)
}

// ReceiptWaiter blocks until a transaction is mined. A reverted transaction returns its receipt
// together with an error.
type ReceiptWaiter interface {
	WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Executor submits calls, journals them, and waits for the outcome.
type Executor struct {
	submitter  Submitter
	waiter     ReceiptWaiter
	journal    storage.Journal
	deployment addresses.Deployment
	logger     *zap.Logger
	now        func() time.Time
}

// NewExecutor wires an executor. A nil journal keeps nothing.
func NewExecutor(submitter Submitter, waiter ReceiptWaiter, journal storage.Journal, deployment addresses.Deployment, logger *zap.Logger) *Executor {
	if journal == nil {
		journal = storage.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		submitter:  submitter,
		waiter:     waiter,
		journal:    journal,
		deployment: deployment,
		logger:     logger,
		now:        time.Now,
	}
}

// Hooks observe an execution. Either field may be nil.
type Hooks struct {
	OnSubmitted func(model.ActivityRecord)
	OnConfirmed func()
}

// Execute submits call and waits for its receipt. OnConfirmed runs only after a successful receipt.
// The returned record reflects the last known status even when an error is returned.
func (e *Executor) Execute(ctx context.Context, kind model.ActivityKind, call model.PreparedCall, hooks Hooks) (model.ActivityRecord, error) {
	hash, err := e.submitter.Submit(ctx, call)
	if err != nil {
		return model.ActivityRecord{}, fmt.Errorf("%w: submit %s: %v", model.ErrTransaction, kind, err)
	}

	ts := e.timestamp()
	record := model.ActivityRecord{
		ChainID:     e.deployment.ChainID,
		TxHash:      hash.Hex(),
		Kind:        kind,
		Label:       call.Label,
		To:          call.To.Hex(),
		Status:      model.StatusPending,
		ExplorerURL: e.deployment.ExplorerTxURL(hash),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	e.record(ctx, record)
	e.logger.Info("transaction submitted",
		zap.String("kind", string(kind)),
		zap.String("tx_hash", record.TxHash),
		zap.String("to", record.To),
	)
	if hooks.OnSubmitted != nil {
		hooks.OnSubmitted(record)
	}

	receipt, waitErr := e.waiter.WaitReceipt(ctx, hash)
	if receipt == nil {
		if waitErr == nil {
			waitErr = fmt.Errorf("%w: no receipt for %s", model.ErrTransaction, record.TxHash)
		}
		return record, waitErr
	}

	if receipt.BlockNumber != nil {
		record.BlockNumber = receipt.BlockNumber.Uint64()
	}
	record.GasUsed = receipt.GasUsed
	record.UpdatedAt = e.timestamp()
	if waitErr != nil || receipt.Status != types.ReceiptStatusSuccessful {
		record.Status = model.StatusFailed
		e.record(ctx, record)
		e.logger.Warn("transaction failed", zap.String("tx_hash", record.TxHash), zap.Uint64("block", record.BlockNumber))
		if waitErr == nil {
			waitErr = fmt.Errorf("%w: %s reverted", model.ErrTransaction, record.TxHash)
		}
		return record, waitErr
	}

	record.Status = model.StatusConfirmed
	e.record(ctx, record)
	e.logger.Info("transaction confirmed",
		zap.String("tx_hash", record.TxHash),
		zap.Uint64("block", record.BlockNumber),
		zap.Uint64("gas_used", record.GasUsed),
	)
	if hooks.OnConfirmed != nil {
		hooks.OnConfirmed()
	}
	return record, nil
}

// record journals without failing the transaction flow.
func (e *Executor) record(ctx context.Context, record model.ActivityRecord) {
	if err := e.journal.PutActivity(ctx, []model.ActivityRecord{record}); err != nil {
		e.logger.Warn("journal write failed", zap.String("tx_hash", record.TxHash), zap.Error(err))
	}
}

func (e *Executor) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}
