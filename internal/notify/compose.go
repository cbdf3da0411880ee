package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/hamed0406/climatewatch/internal/domain"
)

// AdvisoryPlaceholder replaces the advisory when the model cannot be reached.
const AdvisoryPlaceholder = "Advisory unavailable right now. Ventilate or adjust heating and cooling as needed."

const promptTemplate = "Indoor climate: %.1f°C and %.0f%% relative humidity. " +
	"Outside it is %.1f°C with %.0f%% relative humidity and the sky is: %s. " +
	"In at most three short sentences, advise the occupant what to do to keep the room comfortable and healthy."

// AdvisoryPrompt fills the fixed prompt with the live indoor and outdoor values.
func AdvisoryPrompt(r domain.SensorReading, o domain.OutdoorSnapshot) string {
	return fmt.Sprintf(promptTemplate, r.Temperature, r.Humidity, o.Temperature, o.Humidity, o.Condition)
}

// AdvisoryOrPlaceholder returns text, or the placeholder when the call failed
// or produced nothing.
func AdvisoryOrPlaceholder(text string, err error) string {
	if err != nil || strings.TrimSpace(text) == "" {
		return AdvisoryPlaceholder
	}
	return text
}

// ComposeAlert renders the alert message, escaped for the transport.
func ComposeAlert(kind domain.AlertKind, r domain.SensorReading, o domain.OutdoorSnapshot, advisory string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>%s</b>\n", kind.Label())
	fmt.Fprintf(&b, "Indoor: %.1f°C, %.1f%% RH\n\n", r.Temperature, r.Humidity)
	fmt.Fprintf(&b, "<b>Outdoor</b>: %s\n", html.EscapeString(o.Condition))
	fmt.Fprintf(&b, "Temp %.1f°C (feels %.1f°C), RH %.0f%%\n", o.Temperature, o.FeelsLike, o.Humidity)
	fmt.Fprintf(&b, "Wind %.1f km/h, UV %.1f\n\n", o.WindSpeed, o.UVIndex)
	b.WriteString("<b>Advisory</b>\n")
	b.WriteString(html.EscapeString(AdvisoryOrPlaceholder(advisory, nil)))
	return Escape(b.String())
}

// ComposeRecovery renders the back-to-normal message. It carries indoor
// values only.
func ComposeRecovery(r domain.SensorReading) string {
	text := fmt.Sprintf("✅ <b>Back to normal</b>\nIndoor: %.1f°C, %.1f%% RH", r.Temperature, r.Humidity)
	return Escape(text)
}

// Escape makes s safe to embed inside a double-quoted JSON string literal.
// Line breaks become the two characters `\n`.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, c := range s {
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, c)
				continue
			}
			b.WriteRune(c)
		}
	}
	return b.String()
}

