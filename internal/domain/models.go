package domain

import (
	"math"

	"github.com/hamed0406/climatewatch/internal/clock"
)

// SensorReading is the latest indoor sample. When Valid is false the numeric
// fields hold the last good values and must not drive decisions.
type SensorReading struct {
	Temperature float64      `json:"temperature"`
	Humidity    float64      `json:"humidity"`
	Valid       bool         `json:"valid"`
	CapturedAt  clock.Millis `json:"captured_at"`
}

// Usable reports whether both values are well-defined numbers.
func Usable(temperature, humidity float64) bool {
	return !math.IsNaN(temperature) && !math.IsNaN(humidity)
}

// OutdoorSnapshot is one complete outdoor observation.
type OutdoorSnapshot struct {
	Temperature float64      `json:"temperature"`
	Humidity    float64      `json:"humidity"`
	FeelsLike   float64      `json:"feels_like"`
	WindSpeed   float64      `json:"wind_speed"`
	UVIndex     float64      `json:"uv_index"`
	WeatherCode int          `json:"weather_code"`
	Condition   string       `json:"condition"`
	FetchedAt   clock.Millis `json:"-"`
}

type AlertThresholds struct {
	HumidityHigh float64
	TempHigh     float64
	TempLow      float64
}

// Classify returns the first breached condition in priority order:
// humidity, then high temperature, then low temperature.
func (t AlertThresholds) Classify(r SensorReading) AlertKind {
	switch {
	case r.Humidity >= t.HumidityHigh:
		return AlertHighHumidity
	case r.Temperature >= t.TempHigh:
		return AlertHighTemperature
	case r.Temperature <= t.TempLow:
		return AlertLowTemperature
	default:
		return AlertNone
	}
}

// AlertState carries the alert memory between ticks. Triggered is false until
// the first alert fires; LastTriggeredAt is meaningless before that.
type AlertState struct {
	Kind            AlertKind
	Active          bool
	LastTriggeredAt clock.Millis
	Triggered       bool
}

// NotificationPayload is a message ready for the sink. Text is already
// escaped for the transport and is embedded verbatim.
type NotificationPayload struct {
	Target    string
	Text      string
	ParseMode string
}

// Location selects the coordinates used for historical weather lookups.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}
