package storage

import (
	"context"
	"time"

	"rustdocs/internal/model"
)

// Store persists generation runs and the raw model answers they produced.
type Store interface {
	// BeginRun records a new run and makes it the owner of later Puts.
	BeginRun(ctx context.Context, targets []string) (string, error)

	// Get returns the cached answer for key.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put upserts the answer generated for item.
	Put(ctx context.Context, key string, item *model.Item, answer string) error

	Close() error
}

// Run is one recorded generation run.
type Run struct {
	ID        string
	StartedAt time.Time
	Targets   []string
	Answers   int
}
