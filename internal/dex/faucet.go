package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/model"
)

// FaucetState reads the faucet's view of account together with its reserves.
func (r *Reader) FaucetState(ctx context.Context, account common.Address) (model.FaucetState, error) {
	faucet, err := r.deployment.Address(addresses.Faucet)
	if err != nil {
		return model.FaucetState{}, err
	}
	value, err := r.read(ctx, joinKey("faucet", faucet, account), func(ctx context.Context) (interface{}, error) {
		return fetchFaucetState(ctx, r.caller, faucet, account)
	})
	if err != nil {
		return model.FaucetState{}, err
	}
	return value.(model.FaucetState), nil
}

// InvalidateFaucet drops the cached faucet state for account.
func (r *Reader) InvalidateFaucet(account common.Address) {
	if faucet, err := r.deployment.Address(addresses.Faucet); err == nil {
		r.invalidate(joinKey("faucet", faucet, account))
	}
}

func fetchFaucetState(ctx context.Context, caller ContractCaller, faucet, account common.Address) (model.FaucetState, error) {
	parsed, err := FaucetABI()
	if err != nil {
		return model.FaucetState{}, fmt.Errorf("parse faucet abi: %w", err)
	}

	var state model.FaucetState
	values, err := callMethod(ctx, caller, faucet, parsed, "canDrip", account)
	if err != nil {
		return state, err
	}
	canDrip, ok := values[0].(bool)
	if !ok {
		return state, fmt.Errorf("canDrip: unexpected type %T", values[0])
	}
	state.CanDrip = canDrip

	values, err = callMethod(ctx, caller, faucet, parsed, "timeUntilNextDrip", account)
	if err != nil {
		return state, err
	}
	if state.SecondsUntilDrip, err = asUint64(values[0]); err != nil {
		return state, fmt.Errorf("timeUntilNextDrip: %w", err)
	}

	amounts := []struct {
		method string
		dst    **big.Int
	}{
		{"dripAmount0", &state.DripAmount0},
		{"dripAmount1", &state.DripAmount1},
	}
	for _, a := range amounts {
		values, err := callMethod(ctx, caller, faucet, parsed, a.method)
		if err != nil {
			return state, err
		}
		if *a.dst, err = asBigInt(values[0]); err != nil {
			return state, fmt.Errorf("%s: %w", a.method, err)
		}
	}

	values, err = callMethod(ctx, caller, faucet, parsed, "getBalances")
	if err != nil {
		return state, err
	}
	if len(values) < 2 {
		return state, fmt.Errorf("getBalances: expected 2 values, got %d", len(values))
	}
	if state.Balance0, err = asBigInt(values[0]); err != nil {
		return state, fmt.Errorf("balance0: %w", err)
	}
	if state.Balance1, err = asBigInt(values[1]); err != nil {
		return state, fmt.Errorf("balance1: %w", err)
	}
	return state, nil
}

// BuildDrip serializes the faucet's drip() call.
func BuildDrip(deployment addresses.Deployment) (model.PreparedCall, error) {
	faucet, err := deployment.Address(addresses.Faucet)
	if err != nil {
		return model.PreparedCall{}, err
	}
	parsed, err := FaucetABI()
	if err != nil {
		return model.PreparedCall{}, fmt.Errorf("parse faucet abi: %w", err)
	}
	data, err := parsed.Pack("drip")
	if err != nil {
		return model.PreparedCall{}, fmt.Errorf("pack drip: %w", err)
	}
	return model.NewPreparedCall("Claim test tokens", faucet, data), nil
}
