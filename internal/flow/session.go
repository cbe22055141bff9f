// Package flow drives the engines the way an interactive client does: one active input,
// approvals before the mutating call, and a full refetch after every confirmed transaction.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"liquidityDesk/internal/approval"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/poolid"
)

// ErrApprovalPending is returned when a mutating call is requested before approvals are complete.
var ErrApprovalPending = errors.New("approval pending")

// PoolReader reads pool state through a cache that can be invalidated.
type PoolReader interface {
	PoolState(ctx context.Context, key poolid.PoolKey) (model.PoolState, error)
	InvalidatePool(key poolid.PoolKey)
}

// Prepared is the next transaction a session wants signed.
type Prepared struct {
	Kind model.ActivityKind `json:"kind"`
	Step approval.Step      `json:"step"`
	Call model.PreparedCall `json:"call"`
}

// session holds the state shared by mint and swap: pending transaction state and the refetch hook.
type session struct {
	key       poolid.PoolKey
	pools     PoolReader
	approvals *approval.Orchestrator
	executor  *Executor

	mu         sync.Mutex
	generation uint64
	pending    *model.ActivityRecord
	last       *model.ActivityRecord
}

// reset clears pending and last transaction state. Results of executions started before the
// reset are dropped.
func (s *session) reset() {
	s.mu.Lock()
	s.generation++
	s.pending = nil
	s.last = nil
	s.mu.Unlock()
}

// refresh invalidates all four allowance reads and the pool read.
func (s *session) refresh() {
	s.approvals.Refresh()
	s.pools.InvalidatePool(s.key)
}

func (s *session) poolState(ctx context.Context) (model.PoolState, error) {
	state, err := s.pools.PoolState(ctx, s.key)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("%w: pool state: %v", model.ErrInsufficientData, err)
	}
	return state, nil
}

func (s *session) execute(ctx context.Context, prepared Prepared) (model.ActivityRecord, error) {
	if s.executor == nil {
		return model.ActivityRecord{}, fmt.Errorf("%w: no executor configured", model.ErrTransaction)
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	record, err := s.executor.Execute(ctx, prepared.Kind, prepared.Call, Hooks{
		OnSubmitted: func(r model.ActivityRecord) { s.track(gen, r) },
		OnConfirmed: s.refresh,
	})
	if record.TxHash != "" {
		s.track(gen, record)
	}
	return record, err
}

// track stores r as pending or last unless the input changed since gen.
func (s *session) track(gen uint64, r model.ActivityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	if r.Done() {
		s.pending = nil
		s.last = &r
		return
	}
	s.pending = &r
}

// Pending returns the transaction awaiting confirmation, if any.
func (s *session) Pending() (model.ActivityRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return model.ActivityRecord{}, false
	}
	return *s.pending, true
}

// Last returns the most recent finished transaction since the last input change.
func (s *session) Last() (model.ActivityRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return model.ActivityRecord{}, false
	}
	return *s.last, true
}

// Approvals exposes the session's approval orchestrator.
func (s *session) Approvals() *approval.Orchestrator {
	return s.approvals
}
