package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/chain"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
)

// DefaultStaleAfter is how long a cached read is served before it is fetched again.
const DefaultStaleAfter = 10 * time.Second

var maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))

// BalanceReader reads native balances. The chain client implements it.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ReaderConfig tunes caching and retries.
type ReaderConfig struct {
	StaleAfter   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

type cacheEntry struct {
	value     interface{}
	fetchedAt time.Time
}

// Reader serves contract reads through a time-based cache. Concurrent requests for the same
// key share one RPC call, and invalidated keys are never repopulated by a call already in flight.
type Reader struct {
	caller     ContractCaller
	deployment addresses.Deployment
	tokens     *TokenCache
	cfg        ReaderConfig
	logger     *zap.Logger
	now        func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry
	gen   map[string]uint64
}

// NewReader builds a reader for one deployment.
func NewReader(caller ContractCaller, deployment addresses.Deployment, cfg ReaderConfig, logger *zap.Logger) *Reader {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		caller:     caller,
		deployment: deployment,
		tokens:     NewTokenCache(),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
		gen:        make(map[string]uint64),
	}
}

// Deployment returns the contracts the reader targets.
func (r *Reader) Deployment() addresses.Deployment {
	return r.deployment
}

func (r *Reader) read(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	r.mu.Lock()
	entry, ok := r.cache[key]
	r.mu.Unlock()
	if ok && r.now().Sub(entry.fetchedAt) < r.cfg.StaleAfter {
		return entry.value, nil
	}

	value, err, _ := r.group.Do(key, func() (interface{}, error) {
		r.mu.Lock()
		gen := r.gen[key]
		entry, ok := r.cache[key]
		r.mu.Unlock()
		if ok && r.now().Sub(entry.fetchedAt) < r.cfg.StaleAfter {
			return entry.value, nil
		}

		var out interface{}
		err := chain.WithRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.gen[key] == gen {
			r.cache[key] = cacheEntry{value: out, fetchedAt: r.now()}
		}
		r.mu.Unlock()
		return out, nil
	})
	return value, err
}

func (r *Reader) invalidate(key string) {
	r.mu.Lock()
	delete(r.cache, key)
	r.gen[key]++
	r.mu.Unlock()
	r.group.Forget(key)
}

func joinKey(kind string, parts ...common.Address) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p.Hex())
	}
	return b.String()
}

func poolKeyString(key poolid.PoolKey) string {
	return "pool:" + key.ID().Hex()
}

// PoolState reads slot0 and liquidity for the pool. A failed liquidity read leaves liquidity at
// zero. A failed slot0 read fails the whole read.
func (r *Reader) PoolState(ctx context.Context, key poolid.PoolKey) (model.PoolState, error) {
	value, err := r.read(ctx, poolKeyString(key), func(ctx context.Context) (interface{}, error) {
		return r.fetchPoolState(ctx, key.ID())
	})
	if err != nil {
		return model.PoolState{}, err
	}
	state := value.(model.PoolState)
	state.SqrtPriceX96 = new(big.Int).Set(state.SqrtPriceX96)
	state.Liquidity = new(big.Int).Set(state.Liquidity)
	return state, nil
}

// InvalidatePool drops the cached pool state.
func (r *Reader) InvalidatePool(key poolid.PoolKey) {
	r.invalidate(poolKeyString(key))
}

func (r *Reader) fetchPoolState(ctx context.Context, id common.Hash) (model.PoolState, error) {
	stateView, err := r.deployment.Address(addresses.StateView)
	if err != nil {
		return model.PoolState{}, err
	}
	parsed, err := StateViewABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse state view abi: %w", err)
	}

	values, err := callMethod(ctx, r.caller, stateView, parsed, "getSlot0", id)
	if err != nil {
		return model.PoolState{}, err
	}
	if len(values) < 4 {
		return model.PoolState{}, fmt.Errorf("getSlot0: expected 4 values, got %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	if sqrtPrice.Sign() < 0 || sqrtPrice.Cmp(maxUint160) > 0 {
		return model.PoolState{}, fmt.Errorf("sqrt price out of range: %s", sqrtPrice)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	protocolFee, err := asUint64(values[2])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("protocol fee: %w", err)
	}
	lpFee, err := asUint64(values[3])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("lp fee: %w", err)
	}

	state := model.PoolState{
		PoolID:       id,
		SqrtPriceX96: sqrtPrice,
		Tick:         tick,
		ProtocolFee:  uint32(protocolFee),
		LPFee:        uint32(lpFee),
		Liquidity:    new(big.Int),
	}

	if values, err := callMethod(ctx, r.caller, stateView, parsed, "getLiquidity", id); err == nil {
		if liq, err := asBigInt(values[0]); err == nil {
			state.Liquidity = liq
		}
	} else {
		r.logger.Warn("liquidity call failed", zap.String("pool_id", id.Hex()), zap.Error(err))
	}
	return state, nil
}

// Token returns token metadata, fetching it once per address.
func (r *Reader) Token(ctx context.Context, token common.Address) (model.Token, error) {
	if meta, ok := r.tokens.Get(token); ok {
		return meta, nil
	}
	value, err, _ := r.group.Do(joinKey("token", token), func() (interface{}, error) {
		var meta model.Token
		err := chain.WithRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			m, err := FetchToken(ctx, r.caller, token, r.logger)
			if err != nil {
				return err
			}
			meta = m
			return nil
		})
		if err != nil {
			return nil, err
		}
		r.tokens.Set(token, meta)
		return meta, nil
	})
	if err != nil {
		return model.Token{}, err
	}
	return value.(model.Token), nil
}

// ERC20Allowance reads token.allowance(owner, spender).
func (r *Reader) ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	value, err := r.read(ctx, joinKey("erc20", token, owner, spender), func(ctx context.Context) (interface{}, error) {
		parsed, err := ERC20ABI()
		if err != nil {
			return nil, err
		}
		values, err := callMethod(ctx, r.caller, token, parsed, "allowance", owner, spender)
		if err != nil {
			return nil, err
		}
		return asBigInt(values[0])
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(value.(*big.Int)), nil
}

// InvalidateERC20Allowance drops the cached ERC20 allowance.
func (r *Reader) InvalidateERC20Allowance(token, owner, spender common.Address) {
	r.invalidate(joinKey("erc20", token, owner, spender))
}

// Permit2Allowance reads permit2.allowance(owner, token, spender).
func (r *Reader) Permit2Allowance(ctx context.Context, owner, token, spender common.Address) (model.Permit2Allowance, error) {
	value, err := r.read(ctx, joinKey("permit2", owner, token, spender), func(ctx context.Context) (interface{}, error) {
		permit2, err := r.deployment.Address(addresses.Permit2Contract)
		if err != nil {
			return nil, err
		}
		parsed, err := Permit2ABI()
		if err != nil {
			return nil, err
		}
		values, err := callMethod(ctx, r.caller, permit2, parsed, "allowance", owner, token, spender)
		if err != nil {
			return nil, err
		}
		if len(values) < 3 {
			return nil, fmt.Errorf("allowance: expected 3 values, got %d", len(values))
		}
		amount, err := asBigInt(values[0])
		if err != nil {
			return nil, err
		}
		expiration, err := asUint64(values[1])
		if err != nil {
			return nil, err
		}
		nonce, err := asUint64(values[2])
		if err != nil {
			return nil, err
		}
		return model.Permit2Allowance{Amount: amount, Expiration: expiration, Nonce: nonce}, nil
	})
	if err != nil {
		return model.Permit2Allowance{}, err
	}
	allowance := value.(model.Permit2Allowance)
	allowance.Amount = new(big.Int).Set(allowance.Amount)
	return allowance, nil
}

// InvalidatePermit2Allowance drops the cached Permit2 allowance.
func (r *Reader) InvalidatePermit2Allowance(owner, token, spender common.Address) {
	r.invalidate(joinKey("permit2", owner, token, spender))
}

// Balance reads the account's balance of token. The zero address reads the native balance.
func (r *Reader) Balance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	value, err := r.read(ctx, joinKey("balance", token, account), func(ctx context.Context) (interface{}, error) {
		if token == (common.Address{}) {
			native, ok := r.caller.(BalanceReader)
			if !ok {
				return nil, fmt.Errorf("native balance not supported by caller")
			}
			return native.BalanceAt(ctx, account, nil)
		}
		parsed, err := ERC20ABI()
		if err != nil {
			return nil, err
		}
		values, err := callMethod(ctx, r.caller, token, parsed, "balanceOf", account)
		if err != nil {
			return nil, err
		}
		return asBigInt(values[0])
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(value.(*big.Int)), nil
}

// InvalidateBalance drops the cached balance.
func (r *Reader) InvalidateBalance(token, account common.Address) {
	r.invalidate(joinKey("balance", token, account))
}
