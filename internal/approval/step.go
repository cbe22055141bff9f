// Package approval decides which of the two approval layers still needs a transaction
// before a mint or swap can go through the Permit2 intermediary.
package approval

import (
	"fmt"
	"math/big"
)

// Step is the next approval action the user has to take.
type Step string

const (
	StepToken0ToPermit2 Step = "token0_to_permit2"
	StepToken1ToPermit2 Step = "token1_to_permit2"
	StepPermit2Token0   Step = "permit2_token0"
	StepPermit2Token1   Step = "permit2_token1"
	StepReady           Step = "ready"
)

// Direct reports whether the step is an ERC20 approval of the intermediary.
func (s Step) Direct() bool {
	return s == StepToken0ToPermit2 || s == StepToken1ToPermit2
}

// Forwarded reports whether the step is a Permit2 approval of the final spender.
func (s Step) Forwarded() bool {
	return s == StepPermit2Token0 || s == StepPermit2Token1
}

// TokenIndex returns 0 or 1 for the token the step concerns, or -1 for StepReady.
func (s Step) TokenIndex() int {
	switch s {
	case StepToken0ToPermit2, StepPermit2Token0:
		return 0
	case StepToken1ToPermit2, StepPermit2Token1:
		return 1
	default:
		return -1
	}
}

// Label describes the step for display.
func (s Step) Label(symbol0, symbol1, spender string) string {
	switch s {
	case StepToken0ToPermit2:
		return fmt.Sprintf("Approve %s for Permit2", symbol0)
	case StepToken1ToPermit2:
		return fmt.Sprintf("Approve %s for Permit2", symbol1)
	case StepPermit2Token0:
		return fmt.Sprintf("Permit2: allow %s to spend %s", spender, symbol0)
	case StepPermit2Token1:
		return fmt.Sprintf("Permit2: allow %s to spend %s", spender, symbol1)
	default:
		return "Ready"
	}
}

// Allowances holds the four allowance reads. A nil entry is an unresolved read and counts as zero.
type Allowances struct {
	ERC20Token0   *big.Int
	ERC20Token1   *big.Int
	Permit2Token0 *big.Int
	Permit2Token1 *big.Int
}

// Status flags each layer as sufficient when its allowance covers the required maximum.
type Status struct {
	Token0ToPermit2        bool `json:"token0_to_permit2"`
	Token1ToPermit2        bool `json:"token1_to_permit2"`
	Permit2Token0ToSpender bool `json:"permit2_token0_to_spender"`
	Permit2Token1ToSpender bool `json:"permit2_token1_to_spender"`
}

// StatusOf compares each allowance with its required maximum.
func StatusOf(a Allowances, max0, max1 *big.Int) Status {
	return Status{
		Token0ToPermit2:        covers(a.ERC20Token0, max0),
		Token1ToPermit2:        covers(a.ERC20Token1, max1),
		Permit2Token0ToSpender: covers(a.Permit2Token0, max0),
		Permit2Token1ToSpender: covers(a.Permit2Token1, max1),
	}
}

// NextStep projects the allowances onto the first unmet requirement. Direct approvals come
// before forwarded ones and token0 before token1. A zero maximum needs no approval.
func NextStep(a Allowances, max0, max1 *big.Int) Step {
	status := StatusOf(a, max0, max1)
	switch {
	case required(max0) && !status.Token0ToPermit2:
		return StepToken0ToPermit2
	case required(max1) && !status.Token1ToPermit2:
		return StepToken1ToPermit2
	case required(max0) && !status.Permit2Token0ToSpender:
		return StepPermit2Token0
	case required(max1) && !status.Permit2Token1ToSpender:
		return StepPermit2Token1
	default:
		return StepReady
	}
}

func required(max *big.Int) bool {
	return max != nil && max.Sign() > 0
}

func covers(allowance, max *big.Int) bool {
	if max == nil || max.Sign() <= 0 {
		return true
	}
	if allowance == nil {
		return false
	}
	return allowance.Cmp(max) >= 0
}
