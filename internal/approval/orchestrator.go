package approval

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityDesk/internal/model"
)

// AllowanceSource reads allowances through a cache that can be invalidated.
type AllowanceSource interface {
	ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Permit2Allowance(ctx context.Context, owner, token, spender common.Address) (model.Permit2Allowance, error)
	InvalidateERC20Allowance(token, owner, spender common.Address)
	InvalidatePermit2Allowance(owner, token, spender common.Address)
}

// Config identifies the four allowance slots of one flow.
type Config struct {
	Owner   common.Address
	Permit2 common.Address
	// Spender is the position manager for mints and the universal router for swaps.
	Spender common.Address
	Token0  model.Token
	Token1  model.Token
}

// Snapshot is the outcome of one allowance read.
type Snapshot struct {
	Allowances Allowances
	Status     Status
	Step       Step
}

// Orchestrator derives the approval step from live allowance reads. It holds no step state of
// its own, so a refresh after any approval lands always yields the correct next step.
type Orchestrator struct {
	source AllowanceSource
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// NewOrchestrator builds an orchestrator over source.
func NewOrchestrator(source AllowanceSource, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{source: source, cfg: cfg, now: time.Now, logger: logger}
}

// Config returns the slots the orchestrator reads.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Step reads all four allowances and returns the next step for the required maxima.
// Native currency needs no approval and its slots are not read.
func (o *Orchestrator) Step(ctx context.Context, max0, max1 *big.Int) (Snapshot, error) {
	var allowances Allowances
	now := uint64(o.now().Unix())

	g, gctx := errgroup.WithContext(ctx)
	for i, token := range []model.Token{o.cfg.Token0, o.cfg.Token1} {
		i, token := i, token
		if token.IsNative() {
			setAllowance(&allowances, i, MaxUint256, MaxUint256)
			continue
		}
		g.Go(func() error {
			direct, err := o.source.ERC20Allowance(gctx, token.Address, o.cfg.Owner, o.cfg.Permit2)
			if err != nil {
				return fmt.Errorf("erc20 allowance %s: %w", token.Address.Hex(), err)
			}
			forwarded, err := o.source.Permit2Allowance(gctx, o.cfg.Owner, token.Address, o.cfg.Spender)
			if err != nil {
				return fmt.Errorf("permit2 allowance %s: %w", token.Address.Hex(), err)
			}
			setAllowance(&allowances, i, direct, forwarded.Effective(now))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Allowances: allowances,
		Status:     StatusOf(allowances, max0, max1),
		Step:       NextStep(allowances, max0, max1),
	}
	o.logger.Debug("approval step",
		zap.String("owner", o.cfg.Owner.Hex()),
		zap.String("step", string(snap.Step)),
	)
	return snap, nil
}

// setAllowance writes one token's pair of slots. Each goroutine owns distinct fields.
func setAllowance(a *Allowances, index int, direct, forwarded *big.Int) {
	if index == 0 {
		a.ERC20Token0, a.Permit2Token0 = direct, forwarded
		return
	}
	a.ERC20Token1, a.Permit2Token1 = direct, forwarded
}

// Refresh drops all four cached reads so the next Step observes chain state.
func (o *Orchestrator) Refresh() {
	for _, token := range []model.Token{o.cfg.Token0, o.cfg.Token1} {
		if token.IsNative() {
			continue
		}
		o.source.InvalidateERC20Allowance(token.Address, o.cfg.Owner, o.cfg.Permit2)
		o.source.InvalidatePermit2Allowance(o.cfg.Owner, token.Address, o.cfg.Spender)
	}
}

// Build returns the transaction for step.
func (o *Orchestrator) Build(step Step) (model.PreparedCall, error) {
	return BuildApproval(step, Targets{
		Token0:  o.cfg.Token0,
		Token1:  o.cfg.Token1,
		Permit2: o.cfg.Permit2,
		Spender: o.cfg.Spender,
	}, o.now())
}
