package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/poolid"
)

var (
	stateViewAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	faucetAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	tokenA        = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	tokenB        = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	ownerAddr     = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	spenderAddr   = common.HexToAddress("0x00000000000000000000000000000000000000c2")
)

type handler func(args []interface{}) ([]interface{}, error)

// fakeCaller answers eth_call by decoding the selector against the known ABIs and packing
// whatever the registered handler returns.
type fakeCaller struct {
	mu       sync.Mutex
	handlers map[string]handler
	calls    map[string]int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{handlers: make(map[string]handler), calls: make(map[string]int)}
}

func (f *fakeCaller) on(to common.Address, method string, h handler) {
	f.handlers[to.Hex()+"."+method] = h
}

func (f *fakeCaller) count(to common.Address, method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[to.Hex()+"."+method]
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := lookupMethod(msg.Data)
	if err != nil {
		return nil, err
	}
	key := msg.To.Hex() + "." + method.Name
	f.mu.Lock()
	f.calls[key]++
	h, ok := f.handlers[key]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	out, err := h(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func lookupMethod(data []byte) (*abi.Method, error) {
	for _, load := range []func() (abi.ABI, error){StateViewABI, Permit2ABI, FaucetABI, ERC20ABI} {
		parsed, err := load()
		if err != nil {
			return nil, err
		}
		if m, err := parsed.MethodById(data[:4]); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown selector %x", data[:4])
}

func returns(values ...interface{}) handler {
	return func([]interface{}) ([]interface{}, error) { return values, nil }
}

func testDeployment() addresses.Deployment {
	return addresses.Deployment{
		ChainID:   11155111,
		StateView: stateViewAddr,
		Permit2:   addresses.Permit2,
		Faucet:    faucetAddr,
	}
}

func testPoolKey() poolid.PoolKey {
	return poolid.NewPoolKey(tokenA, tokenB, poolid.DynamicFeeFlag, 120, common.Address{})
}

func slot0(sqrtPrice *big.Int, tick int64) handler {
	return returns(sqrtPrice, big.NewInt(tick), big.NewInt(0), big.NewInt(3000))
}

func TestReaderPoolState(t *testing.T) {
	caller := newFakeCaller()
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	caller.on(stateViewAddr, "getSlot0", slot0(q96, -5))
	caller.on(stateViewAddr, "getLiquidity", returns(big.NewInt(1_000_000)))

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	key := testPoolKey()

	state, err := reader.PoolState(context.Background(), key)
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	if state.PoolID != key.ID() {
		t.Fatalf("pool id mismatch: %s", state.PoolID.Hex())
	}
	if state.SqrtPriceX96.Cmp(q96) != 0 || state.Tick != -5 || state.LPFee != 3000 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.Liquidity.Int64() != 1_000_000 {
		t.Fatalf("unexpected liquidity: %s", state.Liquidity)
	}

	// mutating the returned value must not leak into the cache
	state.SqrtPriceX96.SetInt64(1)
	if _, err := reader.PoolState(context.Background(), key); err != nil {
		t.Fatalf("pool state: %v", err)
	}
	again, _ := reader.PoolState(context.Background(), key)
	if again.SqrtPriceX96.Cmp(q96) != 0 {
		t.Fatalf("cached value was mutated")
	}
	if got := caller.count(stateViewAddr, "getSlot0"); got != 1 {
		t.Fatalf("expected one slot0 call, got %d", got)
	}

	reader.InvalidatePool(key)
	if _, err := reader.PoolState(context.Background(), key); err != nil {
		t.Fatalf("pool state: %v", err)
	}
	if got := caller.count(stateViewAddr, "getSlot0"); got != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", got)
	}
}

func TestReaderPoolStateLiquidityFailure(t *testing.T) {
	caller := newFakeCaller()
	caller.on(stateViewAddr, "getSlot0", slot0(new(big.Int).Lsh(big.NewInt(1), 96), 0))

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	state, err := reader.PoolState(context.Background(), testPoolKey())
	if err != nil {
		t.Fatalf("pool state: %v", err)
	}
	if state.Liquidity.Sign() != 0 {
		t.Fatalf("expected zero liquidity, got %s", state.Liquidity)
	}
}

func TestReaderPoolStateSlot0Failure(t *testing.T) {
	caller := newFakeCaller()
	caller.on(stateViewAddr, "getSlot0", func([]interface{}) ([]interface{}, error) {
		return nil, errors.New("boom")
	})

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	if _, err := reader.PoolState(context.Background(), testPoolKey()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReaderPoolStateUnsupportedChain(t *testing.T) {
	reader := NewReader(newFakeCaller(), addresses.Deployment{ChainID: 5}, ReaderConfig{}, nil)
	if _, err := reader.PoolState(context.Background(), testPoolKey()); err == nil {
		t.Fatalf("expected unsupported chain error")
	}
}

func TestReaderCoalescesConcurrentReads(t *testing.T) {
	caller := newFakeCaller()
	release := make(chan struct{})
	caller.on(stateViewAddr, "getSlot0", func([]interface{}) ([]interface{}, error) {
		<-release
		return []interface{}{new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(0), big.NewInt(0), big.NewInt(0)}, nil
	})
	caller.on(stateViewAddr, "getLiquidity", returns(big.NewInt(1)))

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	key := testPoolKey()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reader.PoolState(context.Background(), key)
			errs <- err
		}()
	}
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("pool state: %v", err)
		}
	}
	if got := caller.count(stateViewAddr, "getSlot0"); got != 1 {
		t.Fatalf("expected one shared call, got %d", got)
	}
}

func TestReaderInvalidateDuringFlight(t *testing.T) {
	caller := newFakeCaller()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	first := true
	caller.on(stateViewAddr, "getSlot0", func([]interface{}) ([]interface{}, error) {
		if first {
			first = false
			entered <- struct{}{}
			<-release
		}
		return []interface{}{new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(0), big.NewInt(0), big.NewInt(0)}, nil
	})
	caller.on(stateViewAddr, "getLiquidity", returns(big.NewInt(1)))

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	key := testPoolKey()

	done := make(chan error, 1)
	go func() {
		_, err := reader.PoolState(context.Background(), key)
		done <- err
	}()
	<-entered
	reader.InvalidatePool(key)
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("pool state: %v", err)
	}

	if _, err := reader.PoolState(context.Background(), key); err != nil {
		t.Fatalf("pool state: %v", err)
	}
	if got := caller.count(stateViewAddr, "getSlot0"); got != 2 {
		t.Fatalf("stale in-flight read was cached: %d calls", got)
	}
}

func TestReaderAllowances(t *testing.T) {
	caller := newFakeCaller()
	caller.on(tokenA, "allowance", func(args []interface{}) ([]interface{}, error) {
		if args[0].(common.Address) != ownerAddr || args[1].(common.Address) != addresses.Permit2 {
			return nil, errors.New("unexpected args")
		}
		return []interface{}{big.NewInt(500)}, nil
	})
	caller.on(addresses.Permit2, "allowance", returns(big.NewInt(700), big.NewInt(1_900_000_000), big.NewInt(3)))

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	ctx := context.Background()

	erc20, err := reader.ERC20Allowance(ctx, tokenA, ownerAddr, addresses.Permit2)
	if err != nil {
		t.Fatalf("erc20 allowance: %v", err)
	}
	if erc20.Int64() != 500 {
		t.Fatalf("unexpected erc20 allowance: %s", erc20)
	}

	p2, err := reader.Permit2Allowance(ctx, ownerAddr, tokenA, spenderAddr)
	if err != nil {
		t.Fatalf("permit2 allowance: %v", err)
	}
	if p2.Amount.Int64() != 700 || p2.Expiration != 1_900_000_000 || p2.Nonce != 3 {
		t.Fatalf("unexpected permit2 allowance: %+v", p2)
	}

	reader.InvalidateERC20Allowance(tokenA, ownerAddr, addresses.Permit2)
	if _, err := reader.ERC20Allowance(ctx, tokenA, ownerAddr, addresses.Permit2); err != nil {
		t.Fatalf("erc20 allowance: %v", err)
	}
	if got := caller.count(tokenA, "allowance"); got != 2 {
		t.Fatalf("expected refetch, got %d calls", got)
	}
	if _, err := reader.Permit2Allowance(ctx, ownerAddr, tokenA, spenderAddr); err != nil {
		t.Fatalf("permit2 allowance: %v", err)
	}
	if got := caller.count(addresses.Permit2, "allowance"); got != 1 {
		t.Fatalf("expected cached permit2 read, got %d calls", got)
	}
}

func TestReaderTokenAndBalance(t *testing.T) {
	caller := newFakeCaller()
	caller.on(tokenA, "decimals", returns(uint8(6)))
	caller.on(tokenA, "symbol", returns("USDC"))
	caller.on(tokenA, "name", returns("USD Coin"))
	caller.on(tokenA, "balanceOf", returns(big.NewInt(42)))

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	ctx := context.Background()

	meta, err := reader.Token(ctx, tokenA)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if meta.Decimals != 6 || meta.Symbol != "USDC" || meta.Address != tokenA {
		t.Fatalf("unexpected token: %+v", meta)
	}
	if _, err := reader.Token(ctx, tokenA); err != nil {
		t.Fatalf("token: %v", err)
	}
	if got := caller.count(tokenA, "decimals"); got != 1 {
		t.Fatalf("expected cached metadata, got %d calls", got)
	}

	native, err := reader.Token(ctx, common.Address{})
	if err != nil || native.Symbol != "ETH" {
		t.Fatalf("unexpected native token: %+v %v", native, err)
	}

	balance, err := reader.Balance(ctx, tokenA, ownerAddr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 42 {
		t.Fatalf("unexpected balance: %s", balance)
	}
	if _, err := reader.Balance(ctx, common.Address{}, ownerAddr); err == nil {
		t.Fatalf("expected native balance error without BalanceReader")
	}
}

func TestReaderFaucetState(t *testing.T) {
	caller := newFakeCaller()
	caller.on(faucetAddr, "canDrip", returns(true))
	caller.on(faucetAddr, "timeUntilNextDrip", returns(big.NewInt(0)))
	caller.on(faucetAddr, "dripAmount0", returns(big.NewInt(100)))
	caller.on(faucetAddr, "dripAmount1", returns(big.NewInt(200)))
	caller.on(faucetAddr, "getBalances", returns(big.NewInt(1000), big.NewInt(150)))

	reader := NewReader(caller, testDeployment(), ReaderConfig{}, nil)
	state, err := reader.FaucetState(context.Background(), ownerAddr)
	if err != nil {
		t.Fatalf("faucet state: %v", err)
	}
	if !state.CanDrip || state.DripAmount1.Int64() != 200 || state.Balance0.Int64() != 1000 {
		t.Fatalf("unexpected faucet state: %+v", state)
	}
	if state.Funded() {
		t.Fatalf("faucet should not be funded for token1")
	}

	call, err := BuildDrip(testDeployment())
	if err != nil {
		t.Fatalf("build drip: %v", err)
	}
	parsed, _ := FaucetABI()
	if call.To != faucetAddr || string(call.Data) != string(parsed.Methods["drip"].ID) {
		t.Fatalf("unexpected drip call: %+v", call)
	}

	if _, err := BuildDrip(addresses.Deployment{ChainID: 1}); err == nil {
		t.Fatalf("expected error without faucet")
	}
}
