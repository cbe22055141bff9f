package approval

import (
	"math/big"
	"testing"
)

func TestNextStepPrecedence(t *testing.T) {
	enough := big.NewInt(1000)
	short := big.NewInt(999)
	max := big.NewInt(1000)

	tests := []struct {
		name       string
		allowances Allowances
		max0, max1 *big.Int
		want       Step
	}{
		{"nothing approved", Allowances{}, max, max, StepToken0ToPermit2},
		{"token0 direct short by one", Allowances{ERC20Token0: short, ERC20Token1: enough, Permit2Token0: enough, Permit2Token1: enough}, max, max, StepToken0ToPermit2},
		{"token1 direct missing", Allowances{ERC20Token0: enough}, max, max, StepToken1ToPermit2},
		{"direct layers done", Allowances{ERC20Token0: enough, ERC20Token1: enough}, max, max, StepPermit2Token0},
		{"token1 forward missing", Allowances{ERC20Token0: enough, ERC20Token1: enough, Permit2Token0: enough}, max, max, StepPermit2Token1},
		{"all approved", Allowances{ERC20Token0: enough, ERC20Token1: enough, Permit2Token0: enough, Permit2Token1: enough}, max, max, StepReady},
		{"direct before forward across tokens", Allowances{ERC20Token0: enough, Permit2Token0: short}, max, max, StepToken1ToPermit2},
		{"zero max skips token1", Allowances{ERC20Token0: enough}, max, big.NewInt(0), StepPermit2Token0},
		{"nil max skips token0", Allowances{ERC20Token1: enough, Permit2Token1: enough}, nil, max, StepReady},
		{"no maxima", Allowances{}, nil, nil, StepReady},
	}
	for _, tt := range tests {
		if got := NextStep(tt.allowances, tt.max0, tt.max1); got != tt.want {
			t.Fatalf("%s: got %s want %s", tt.name, got, tt.want)
		}
	}
}

func TestStatusOf(t *testing.T) {
	status := StatusOf(Allowances{ERC20Token0: big.NewInt(5), Permit2Token1: big.NewInt(10)}, big.NewInt(5), big.NewInt(11))
	want := Status{Token0ToPermit2: true, Token1ToPermit2: false, Permit2Token0ToSpender: false, Permit2Token1ToSpender: false}
	if status != want {
		t.Fatalf("status = %+v, want %+v", status, want)
	}
}

func TestStepClassification(t *testing.T) {
	if !StepToken1ToPermit2.Direct() || StepToken1ToPermit2.Forwarded() {
		t.Fatalf("token1_to_permit2 should be direct")
	}
	if !StepPermit2Token0.Forwarded() || StepPermit2Token0.Direct() {
		t.Fatalf("permit2_token0 should be forwarded")
	}
	if StepReady.TokenIndex() != -1 || StepPermit2Token1.TokenIndex() != 1 || StepToken0ToPermit2.TokenIndex() != 0 {
		t.Fatalf("unexpected token index")
	}
	if got := StepPermit2Token1.Label("A", "B", "router"); got != "Permit2: allow router to spend B" {
		t.Fatalf("label = %q", got)
	}
}
