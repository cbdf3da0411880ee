package weather

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/climatewatch/internal/domain"
	"github.com/hamed0406/climatewatch/internal/metrics"
)

// Cache holds the most recent outdoor snapshot. A failed refresh keeps the
// previous snapshot untouched. Cache is not safe for concurrent use; the
// scheduler loop is its only caller.
type Cache struct {
	logger   *zap.Logger
	fetcher  Fetcher
	location domain.Location
	metrics  *metrics.Metrics

	current domain.OutdoorSnapshot
	hasData bool
}

func NewCache(logger *zap.Logger, f Fetcher, loc domain.Location, m *metrics.Metrics) *Cache {
	return &Cache{logger: logger, fetcher: f, location: loc, metrics: m}
}

// Refresh fetches a new snapshot and replaces the cached one on success.
func (c *Cache) Refresh(ctx context.Context) (domain.OutdoorSnapshot, error) {
	snap, err := c.fetcher.Fetch(ctx, c.location)
	c.metrics.ObserveOutdoorFetch(err == nil)
	if err != nil {
		c.logger.Warn("outdoor_refresh_failed",
			zap.Bool("has_stale_data", c.hasData),
			zap.Error(err),
		)
		return c.current, err
	}

	c.current = snap
	c.hasData = true
	c.logger.Debug("outdoor_refreshed",
		zap.Float64("temperature", snap.Temperature),
		zap.Float64("humidity", snap.Humidity),
		zap.String("condition", snap.Condition),
	)
	return snap, nil
}

func (c *Cache) Current() domain.OutdoorSnapshot {
	return c.current
}

// HasData reports whether any fetch has succeeded yet.
func (c *Cache) HasData() bool {
	return c.hasData
}
