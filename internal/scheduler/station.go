package scheduler

import (
	"time"

	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/domain"
	"github.com/hamed0406/climatewatch/internal/weather"
)

// Station is the mutable state of the daemon. It is owned by the scheduler
// loop; everything else reaches it through Scheduler.Do.
type Station struct {
	Reading  domain.SensorReading
	Outdoor  *weather.Cache
	Alerts   *Alerter
	Location domain.Location

	clock    clock.Clock
	bootedAt clock.Millis
}

func NewStation(c clock.Clock, outdoor *weather.Cache, alerts *Alerter, loc domain.Location) *Station {
	return &Station{
		Outdoor:  outdoor,
		Alerts:   alerts,
		Location: loc,
		clock:    c,
		bootedAt: c.Now(),
	}
}

func (st *Station) Now() clock.Millis {
	return st.clock.Now()
}

// Uptime wraps together with the millisecond counter.
func (st *Station) Uptime() time.Duration {
	return time.Duration(st.clock.Now().Since(st.bootedAt)) * time.Millisecond
}
