package poolid

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	tokenLow  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenHigh = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	hooks     = common.HexToAddress("0x9A411c87d79059d99ebB1F229289593713Ace080")
)

func abiEncodeKey(t *testing.T, key PoolKey) []byte {
	t.Helper()
	mustType := func(name string) abi.Type {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			t.Fatalf("new type %s: %v", name, err)
		}
		return typ
	}
	args := abi.Arguments{
		{Type: mustType("address")},
		{Type: mustType("address")},
		{Type: mustType("uint24")},
		{Type: mustType("int24")},
		{Type: mustType("address")},
	}
	packed, err := args.Pack(key.Currency0, key.Currency1, new(big.Int).SetUint64(uint64(key.Fee)), big.NewInt(int64(key.TickSpacing)), key.Hooks)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return packed
}

func TestComputePoolIDMatchesABIEncoding(t *testing.T) {
	tests := []PoolKey{
		{Currency0: tokenLow, Currency1: tokenHigh, Fee: DynamicFeeFlag, TickSpacing: 120, Hooks: hooks},
		{Currency0: common.Address{}, Currency1: tokenHigh, Fee: 3000, TickSpacing: 60},
		{Currency0: tokenLow, Currency1: tokenHigh, Fee: 100, TickSpacing: 1},
	}
	for _, key := range tests {
		want := crypto.Keccak256Hash(abiEncodeKey(t, key))
		if got := ComputePoolID(key); got != want {
			t.Fatalf("pool id mismatch for %s: got %s want %s", key, got.Hex(), want.Hex())
		}
	}
}

func TestComputePoolIDNegativeSpacingEncoding(t *testing.T) {
	// Not a valid pool, but the int24 word must still be sign extended.
	key := PoolKey{Currency0: tokenLow, Currency1: tokenHigh, Fee: 500, TickSpacing: -10}
	want := crypto.Keccak256Hash(abiEncodeKey(t, key))
	if got := ComputePoolID(key); got != want {
		t.Fatalf("pool id mismatch: got %s want %s", got.Hex(), want.Hex())
	}
}

func TestComputePoolIDIsDeterministic(t *testing.T) {
	key := NewPoolKey(tokenHigh, tokenLow, DynamicFeeFlag, 120, hooks)
	if ComputePoolID(key) != ComputePoolID(key) {
		t.Fatalf("pool id not deterministic")
	}
	if key.ID() != ComputePoolID(key) {
		t.Fatalf("ID() differs from ComputePoolID")
	}
}

func TestComputePoolIDOrderMatters(t *testing.T) {
	sorted := PoolKey{Currency0: tokenLow, Currency1: tokenHigh, Fee: 3000, TickSpacing: 60}
	swapped := PoolKey{Currency0: tokenHigh, Currency1: tokenLow, Fee: 3000, TickSpacing: 60}
	if ComputePoolID(sorted) == ComputePoolID(swapped) {
		t.Fatalf("expected different ids for swapped currencies")
	}
	if err := swapped.Validate(); err == nil {
		t.Fatalf("expected swapped key to fail validation")
	}
}

func TestNewPoolKeySorts(t *testing.T) {
	key := NewPoolKey(tokenHigh, tokenLow, 3000, 60, common.Address{})
	if key.Currency0 != tokenLow || key.Currency1 != tokenHigh {
		t.Fatalf("unexpected order: %s", key)
	}
	if err := key.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     PoolKey
		wantErr bool
	}{
		{"ok", PoolKey{Currency0: tokenLow, Currency1: tokenHigh, Fee: 3000, TickSpacing: 60}, false},
		{"dynamic", PoolKey{Currency0: tokenLow, Currency1: tokenHigh, Fee: DynamicFeeFlag, TickSpacing: 120}, false},
		{"same currency", PoolKey{Currency0: tokenLow, Currency1: tokenLow, Fee: 3000, TickSpacing: 60}, true},
		{"zero spacing", PoolKey{Currency0: tokenLow, Currency1: tokenHigh, Fee: 3000, TickSpacing: 0}, true},
		{"fee too large", PoolKey{Currency0: tokenLow, Currency1: tokenHigh, Fee: 1_000_001, TickSpacing: 60}, true},
	}
	for _, tt := range tests {
		err := tt.key.Validate()
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: err=%v wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}
