package approval

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/model"
)

// PermitExpiry is how long a forwarded allowance stays valid.
const PermitExpiry = 30 * 24 * time.Hour

var (
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	MaxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
)

// Targets names the contracts an approval touches.
type Targets struct {
	Token0  model.Token
	Token1  model.Token
	Permit2 common.Address
	Spender common.Address
}

// BuildApproval serializes the transaction for step. Direct steps approve the intermediary for
// the maximum uint256 on the token. Forwarded steps approve the spender on Permit2 for the
// maximum uint160 until now+PermitExpiry.
func BuildApproval(step Step, targets Targets, now time.Time) (model.PreparedCall, error) {
	if step == StepReady {
		return model.PreparedCall{}, fmt.Errorf("no approval needed")
	}
	token := targets.Token0
	if step.TokenIndex() == 1 {
		token = targets.Token1
	}
	if token.IsNative() {
		return model.PreparedCall{}, fmt.Errorf("native currency needs no approval")
	}
	label := step.Label(targets.Token0.Label(), targets.Token1.Label(), targets.Spender.Hex())

	if step.Direct() {
		erc20, err := dex.ERC20ABI()
		if err != nil {
			return model.PreparedCall{}, fmt.Errorf("parse erc20 abi: %w", err)
		}
		data, err := erc20.Pack("approve", targets.Permit2, MaxUint256)
		if err != nil {
			return model.PreparedCall{}, fmt.Errorf("pack approve: %w", err)
		}
		return model.NewPreparedCall(label, token.Address, data), nil
	}

	permit2, err := dex.Permit2ABI()
	if err != nil {
		return model.PreparedCall{}, fmt.Errorf("parse permit2 abi: %w", err)
	}
	expiration := big.NewInt(now.Add(PermitExpiry).Unix())
	data, err := permit2.Pack("approve", token.Address, targets.Spender, MaxUint160, expiration)
	if err != nil {
		return model.PreparedCall{}, fmt.Errorf("pack permit2 approve: %w", err)
	}
	return model.NewPreparedCall(label, targets.Permit2, data), nil
}
