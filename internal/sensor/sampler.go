// Package sensor samples the indoor temperature/humidity sensor.
package sensor

import (
	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/domain"
)

// Driver reads raw values from the hardware. A failed read is reported as NaN.
type Driver interface {
	ReadTemperature() float64
	ReadHumidity() float64
}

type Sampler struct {
	driver Driver
	clock  clock.Clock
}

func NewSampler(d Driver, c clock.Clock) *Sampler {
	return &Sampler{driver: d, clock: c}
}

// Sample reads the driver once. On a NaN value it returns prev marked invalid,
// so the last good numbers stay on display.
func (s *Sampler) Sample(prev domain.SensorReading) domain.SensorReading {
	t := s.driver.ReadTemperature()
	h := s.driver.ReadHumidity()
	if !domain.Usable(t, h) {
		prev.Valid = false
		return prev
	}
	return domain.SensorReading{
		Temperature: t,
		Humidity:    h,
		Valid:       true,
		CapturedAt:  s.clock.Now(),
	}
}
