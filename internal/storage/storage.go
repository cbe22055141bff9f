package storage

import (
	"context"

	"liquidityDesk/internal/model"
)

// Journal records submitted transactions and their outcome.
type Journal interface {
	PutActivity(ctx context.Context, records []model.ActivityRecord) error
	LoadActivity(ctx context.Context, chainID uint64, limit int) ([]model.ActivityRecord, error)
}

// Discard is a journal that keeps nothing.
type Discard struct{}

func (Discard) PutActivity(context.Context, []model.ActivityRecord) error { return nil }

func (Discard) LoadActivity(context.Context, uint64, int) ([]model.ActivityRecord, error) {
	return nil, nil
}
