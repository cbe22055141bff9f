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
	"liquidityDesk/internal/quote"
)

// SwapConfig describes one swap session.
type SwapConfig struct {
	Key            poolid.PoolKey
	Token0         model.Token
	Token1         model.Token
	Owner          common.Address
	Deployment     addresses.Deployment
	SlippageBps    uint32
	DeadlineWindow time.Duration
}

// SwapSession owns the input token and amount of a swap form.
type SwapSession struct {
	session
	cfg    SwapConfig
	router common.Address
	engine *quote.Engine
	logger *zap.Logger
	now    func() time.Time

	zeroForOne bool
	amountIn   *big.Int
}

// NewSwapSession builds a session that sells token0 until told otherwise.
func NewSwapSession(cfg SwapConfig, pools PoolReader, source approval.AllowanceSource, executor *Executor, logger *zap.Logger) (*SwapSession, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Key.Validate(); err != nil {
		return nil, fmt.Errorf("pool key: %w", err)
	}
	if cfg.Token0.Address != cfg.Key.Currency0 || cfg.Token1.Address != cfg.Key.Currency1 {
		return nil, fmt.Errorf("%w: token metadata does not match pool currencies", model.ErrInsufficientData)
	}
	router, err := cfg.Deployment.Address(addresses.UniversalRouter)
	if err != nil {
		return nil, err
	}
	permit2, err := cfg.Deployment.Address(addresses.Permit2Contract)
	if err != nil {
		return nil, err
	}

	orchestrator := approval.NewOrchestrator(source, approval.Config{
		Owner:   cfg.Owner,
		Permit2: permit2,
		Spender: router,
		Token0:  cfg.Token0,
		Token1:  cfg.Token1,
	}, logger)

	return &SwapSession{
		session: session{
			key:       cfg.Key,
			pools:     pools,
			approvals: orchestrator,
			executor:  executor,
		},
		cfg:        cfg,
		router:     router,
		engine:     quote.NewEngine(logger),
		logger:     logger,
		now:        time.Now,
		zeroForOne: true,
	}, nil
}

// SetAmountIn sets the exact input amount.
func (s *SwapSession) SetAmountIn(amount *big.Int) {
	s.mu.Lock()
	if amount == nil {
		s.amountIn = nil
	} else {
		s.amountIn = new(big.Int).Set(amount)
	}
	s.mu.Unlock()
	s.reset()
}

// SetTokenIn selects the token being sold.
func (s *SwapSession) SetTokenIn(token common.Address) error {
	var zeroForOne bool
	switch token {
	case s.key.Currency0:
		zeroForOne = true
	case s.key.Currency1:
		zeroForOne = false
	default:
		return quote.ErrUnknownToken
	}
	s.mu.Lock()
	s.zeroForOne = zeroForOne
	s.mu.Unlock()
	s.reset()
	return nil
}

// Flip reverses the direction. The amount stays and is now denominated in the other token.
func (s *SwapSession) Flip() {
	s.mu.Lock()
	s.zeroForOne = !s.zeroForOne
	s.mu.Unlock()
	s.reset()
}

// Tokens returns the input and output tokens for the current direction.
func (s *SwapSession) Tokens() (model.Token, model.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens(s.zeroForOne)
}

func (s *SwapSession) tokens(zeroForOne bool) (model.Token, model.Token) {
	if zeroForOne {
		return s.cfg.Token0, s.cfg.Token1
	}
	return s.cfg.Token1, s.cfg.Token0
}

func (s *SwapSession) request() quote.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, out := s.tokens(s.zeroForOne)
	var amount *big.Int
	if s.amountIn != nil {
		amount = new(big.Int).Set(s.amountIn)
	}
	return quote.Request{TokenIn: in, TokenOut: out, AmountIn: amount, SlippageBps: s.cfg.SlippageBps}
}

// Preview quotes the current input against fresh pool state.
func (s *SwapSession) Preview(ctx context.Context) (quote.Quote, error) {
	req := s.request()
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return quote.Quote{}, quote.ErrNoInput
	}
	state, err := s.poolState(ctx)
	if err != nil {
		return quote.Quote{}, err
	}
	return s.engine.Calculate(s.key, state, req)
}

// Approval reports the approval state for selling the current amount.
func (s *SwapSession) Approval(ctx context.Context) (approval.Snapshot, quote.Quote, error) {
	q, err := s.Preview(ctx)
	if err != nil {
		return approval.Snapshot{}, quote.Quote{}, err
	}
	var max0, max1 *big.Int
	if q.ZeroForOne {
		max0 = q.AmountIn
	} else {
		max1 = q.AmountIn
	}
	snap, err := s.approvals.Step(ctx, max0, max1)
	if err != nil {
		return approval.Snapshot{}, quote.Quote{}, err
	}
	return snap, q, nil
}

// Next returns the approval transaction that must come first, or the swap once the input
// token is fully approved.
func (s *SwapSession) Next(ctx context.Context) (Prepared, error) {
	snap, q, err := s.Approval(ctx)
	if err != nil {
		return Prepared{}, err
	}
	if snap.Step != approval.StepReady {
		call, err := s.approvals.Build(snap.Step)
		if err != nil {
			return Prepared{}, err
		}
		return Prepared{Kind: model.ActivityApprove, Step: snap.Step, Call: call}, nil
	}
	return s.swap(q)
}

// PrepareSwap builds the swap call. It fails with ErrApprovalPending while an approval is missing.
func (s *SwapSession) PrepareSwap(ctx context.Context) (Prepared, error) {
	snap, q, err := s.Approval(ctx)
	if err != nil {
		return Prepared{}, err
	}
	if snap.Step != approval.StepReady {
		return Prepared{}, fmt.Errorf("%w: %s", ErrApprovalPending, snap.Step)
	}
	return s.swap(q)
}

func (s *SwapSession) swap(q quote.Quote) (Prepared, error) {
	in, out := s.tokens(q.ZeroForOne)
	label := fmt.Sprintf("Swap %s for %s", in.Label(), out.Label())
	call, err := calldata.BuildSwap(s.router, calldata.SwapParams{
		Key:              s.key,
		ZeroForOne:       q.ZeroForOne,
		AmountIn:         q.AmountIn,
		AmountOutMinimum: q.MinimumAmountOut,
		Deadline:         calldata.Deadline(s.now(), s.cfg.DeadlineWindow),
	}, label)
	if err != nil {
		return Prepared{}, err
	}
	s.logger.Debug("swap prepared",
		zap.Bool("zero_for_one", q.ZeroForOne),
		zap.String("amount_in", q.AmountIn.String()),
		zap.String("min_out", q.MinimumAmountOut.String()),
	)
	return Prepared{Kind: model.ActivitySwap, Step: approval.StepReady, Call: call}, nil
}

// Execute submits prepared and waits for it. A confirmed transaction invalidates the
// allowance and pool reads.
func (s *SwapSession) Execute(ctx context.Context, prepared Prepared) (model.ActivityRecord, error) {
	return s.execute(ctx, prepared)
}
