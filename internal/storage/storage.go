package storage

import (
	"context"
	"time"

	"github.com/arbitrage-pro/dashboard/pkg/types"
)

// Storage records every opportunity list applied by the poller.
type Storage interface {
	// StoreOpportunities records one applied list, observed at observedAt.
	StoreOpportunities(ctx context.Context, opps []types.Opportunity, observedAt time.Time) error

	// Ping reports whether the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the storage connection.
	Close() error
}

// NoopStorage discards everything.
type NoopStorage struct{}

// StoreOpportunities does nothing.
func (NoopStorage) StoreOpportunities(ctx context.Context, opps []types.Opportunity, observedAt time.Time) error {
	return nil
}

// Ping always succeeds.
func (NoopStorage) Ping(ctx context.Context) error { return nil }

// Close does nothing.
func (NoopStorage) Close() error { return nil }
