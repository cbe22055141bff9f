package flow

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/approval"
	"liquidityDesk/internal/calldata"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
	"liquidityDesk/internal/position"
	"liquidityDesk/internal/tickmath"
)

// MintConfig describes one add-liquidity session.
type MintConfig struct {
	Key            poolid.PoolKey
	Token0         model.Token
	Token1         model.Token
	Owner          common.Address
	Deployment     addresses.Deployment
	Range          tickmath.TickRange
	SlippageBps    uint32
	DeadlineWindow time.Duration
}

// MintSession owns the single active amount of an add-liquidity form.
type MintSession struct {
	session
	cfg             MintConfig
	positionManager common.Address
	engine          *position.Engine
	logger          *zap.Logger
	now             func() time.Time

	rng   tickmath.TickRange
	input *position.Input
}

// NewMintSession builds a session. The initial range is snapped to the pool's spacing and
// defaults to the widest usable range.
func NewMintSession(cfg MintConfig, pools PoolReader, source approval.AllowanceSource, executor *Executor, logger *zap.Logger) (*MintSession, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Key.Validate(); err != nil {
		return nil, fmt.Errorf("pool key: %w", err)
	}
	if cfg.Token0.Address != cfg.Key.Currency0 || cfg.Token1.Address != cfg.Key.Currency1 {
		return nil, fmt.Errorf("%w: token metadata does not match pool currencies", model.ErrInsufficientData)
	}
	positionManager, err := cfg.Deployment.Address(addresses.PositionManager)
	if err != nil {
		return nil, err
	}
	permit2, err := cfg.Deployment.Address(addresses.Permit2Contract)
	if err != nil {
		return nil, err
	}

	rng := cfg.Range
	if rng == (tickmath.TickRange{}) {
		if rng, err = tickmath.FullRangeFor(cfg.Key.TickSpacing); err != nil {
			return nil, err
		}
	} else if rng, err = tickmath.SnapRange(rng, cfg.Key.TickSpacing); err != nil {
		return nil, err
	}

	orchestrator := approval.NewOrchestrator(source, approval.Config{
		Owner:   cfg.Owner,
		Permit2: permit2,
		Spender: positionManager,
		Token0:  cfg.Token0,
		Token1:  cfg.Token1,
	}, logger)

	return &MintSession{
		session: session{
			key:       cfg.Key,
			pools:     pools,
			approvals: orchestrator,
			executor:  executor,
		},
		cfg:             cfg,
		positionManager: positionManager,
		engine:          position.NewEngine(logger),
		logger:          logger,
		now:             time.Now,
		rng:             rng,
	}, nil
}

// SetAmount0 makes amount0 the active input.
func (m *MintSession) SetAmount0(amount *big.Int) {
	in := position.FromAmount0(amount)
	m.setInput(&in)
}

// SetAmount1 makes amount1 the active input.
func (m *MintSession) SetAmount1(amount *big.Int) {
	in := position.FromAmount1(amount)
	m.setInput(&in)
}

// ClearAmount drops the active input.
func (m *MintSession) ClearAmount() {
	m.setInput(nil)
}

func (m *MintSession) setInput(in *position.Input) {
	m.mu.Lock()
	m.input = in
	m.mu.Unlock()
	m.reset()
}

// SetRange snaps r to the pool's tick spacing and makes it the position range.
func (m *MintSession) SetRange(r tickmath.TickRange) (tickmath.TickRange, error) {
	snapped, err := tickmath.SnapRange(r, m.key.TickSpacing)
	if err != nil {
		return tickmath.TickRange{}, err
	}
	m.mu.Lock()
	m.rng = snapped
	m.mu.Unlock()
	m.reset()
	return snapped, nil
}

// Range returns the current position range.
func (m *MintSession) Range() tickmath.TickRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng
}

func (m *MintSession) snapshot() (tickmath.TickRange, *position.Input) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.input == nil {
		return m.rng, nil
	}
	in := *m.input
	return m.rng, &in
}

// Preview sizes the position against fresh pool state.
func (m *MintSession) Preview(ctx context.Context) (position.Position, error) {
	rng, in := m.snapshot()
	if in == nil {
		return position.Position{}, position.ErrNoPosition
	}
	state, err := m.poolState(ctx)
	if err != nil {
		return position.Position{}, err
	}
	return m.engine.Calculate(position.NewPool(m.key, state), rng, *in)
}

// Approval reports the approval state for the slippage-bounded mint amounts.
func (m *MintSession) Approval(ctx context.Context) (approval.Snapshot, position.Position, error) {
	pos, err := m.Preview(ctx)
	if err != nil {
		return approval.Snapshot{}, position.Position{}, err
	}
	max0, max1, err := pos.MintAmountsWithSlippage(m.cfg.SlippageBps)
	if err != nil {
		return approval.Snapshot{}, position.Position{}, err
	}
	snap, err := m.approvals.Step(ctx, max0, max1)
	if err != nil {
		return approval.Snapshot{}, position.Position{}, err
	}
	return snap, pos, nil
}

// Next returns the approval transaction that must come first, or the mint itself once
// every approval is in place.
func (m *MintSession) Next(ctx context.Context) (Prepared, error) {
	snap, pos, err := m.Approval(ctx)
	if err != nil {
		return Prepared{}, err
	}
	if snap.Step != approval.StepReady {
		call, err := m.approvals.Build(snap.Step)
		if err != nil {
			return Prepared{}, err
		}
		return Prepared{Kind: model.ActivityApprove, Step: snap.Step, Call: call}, nil
	}
	return m.mint(pos)
}

// PrepareMint builds the mint call. It fails with ErrApprovalPending while any approval is missing.
func (m *MintSession) PrepareMint(ctx context.Context) (Prepared, error) {
	snap, pos, err := m.Approval(ctx)
	if err != nil {
		return Prepared{}, err
	}
	if snap.Step != approval.StepReady {
		return Prepared{}, fmt.Errorf("%w: %s", ErrApprovalPending, snap.Step)
	}
	return m.mint(pos)
}

func (m *MintSession) mint(pos position.Position) (Prepared, error) {
	label := fmt.Sprintf("Add %s/%s liquidity", m.cfg.Token0.Label(), m.cfg.Token1.Label())
	call, err := calldata.BuildMint(m.positionManager, pos, calldata.MintOptions{
		SlippageBps: m.cfg.SlippageBps,
		Deadline:    calldata.Deadline(m.now(), m.cfg.DeadlineWindow),
		Recipient:   m.cfg.Owner,
	}, label)
	if err != nil {
		return Prepared{}, err
	}
	m.logger.Debug("mint prepared",
		zap.String("liquidity", pos.Liquidity.String()),
		zap.Int32("tick_lower", pos.Range.Lower),
		zap.Int32("tick_upper", pos.Range.Upper),
	)
	return Prepared{Kind: model.ActivityMint, Step: approval.StepReady, Call: call}, nil
}

// Execute submits prepared and waits for it. A confirmed transaction invalidates the
// allowance and pool reads.
func (m *MintSession) Execute(ctx context.Context, prepared Prepared) (model.ActivityRecord, error) {
	return m.execute(ctx, prepared)
}
