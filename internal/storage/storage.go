package storage

import (
	"context"

	"v3kit/internal/model"
)

// Storage is a sink for pool snapshots and replay results.
type Storage interface {
	PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error
	PutReplayResults(ctx context.Context, results []model.ReplayResult) error
}
