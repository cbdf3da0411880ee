// Package repo declares the storage ports used by the monitor. The only
// adapter is in-memory; nothing survives a restart.
package repo

import (
	"context"

	"github.com/hamed0406/climatewatch/internal/domain"
)

// EventStore keeps the recent alert history.
type EventStore interface {
	Append(ctx context.Context, e domain.AlertEvent) error
	// Recent returns up to n events, newest first. n <= 0 means all.
	Recent(ctx context.Context, n int) ([]domain.AlertEvent, error)
}
