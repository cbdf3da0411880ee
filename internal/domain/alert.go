package domain

import "time"

// AlertKind names the breached condition of an episode.
type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertHighHumidity
	AlertHighTemperature
	AlertLowTemperature
)

func (k AlertKind) String() string {
	switch k {
	case AlertNone:
		return "none"
	case AlertHighHumidity:
		return "high_humidity"
	case AlertHighTemperature:
		return "high_temperature"
	case AlertLowTemperature:
		return "low_temperature"
	default:
		return "unknown"
	}
}

// Label is the human-readable headline used in notifications.
func (k AlertKind) Label() string {
	switch k {
	case AlertHighHumidity:
		return "High humidity"
	case AlertHighTemperature:
		return "High temperature"
	case AlertLowTemperature:
		return "Low temperature"
	default:
		return "Manual test"
	}
}

// MarshalText renders the snake_case name in JSON.
func (k AlertKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event types recorded in the alert history.
const (
	EventAlert    = "alert"
	EventRecovery = "recovery"
	EventTest     = "test"
)

// AlertEvent is one notification the state machine produced.
type AlertEvent struct {
	Type        string    `json:"type"`
	Kind        AlertKind `json:"kind"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Delivered   bool      `json:"delivered"`
	At          time.Time `json:"at"`
}
