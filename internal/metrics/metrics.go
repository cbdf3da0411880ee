// Package metrics exposes daemon counters and gauges for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "climatewatch"

type Metrics struct {
	registry *prometheus.Registry

	samples       *prometheus.CounterVec
	outdoorFetch  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	advisoryFails prometheus.Counter
	indoorTemp    prometheus.Gauge
	indoorHum     prometheus.Gauge
	alertActive   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_samples_total",
			Help:      "Sensor samples taken, by validity.",
		}, []string{"result"}),
		outdoorFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outdoor_fetches_total",
			Help:      "Outdoor weather fetches, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications dispatched, by message type and result.",
		}, []string{"type", "result"}),
		advisoryFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisory_failures_total",
			Help:      "Advisory requests replaced by the placeholder text.",
		}),
		indoorTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indoor_temperature_celsius",
			Help:      "Last valid indoor temperature.",
		}),
		indoorHum: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indoor_humidity_percent",
			Help:      "Last valid indoor relative humidity.",
		}),
		alertActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_active",
			Help:      "1 while an alert episode is open.",
		}),
	}

	m.registry.MustRegister(
		m.samples,
		m.outdoorFetch,
		m.notifications,
		m.advisoryFails,
		m.indoorTemp,
		m.indoorHum,
		m.alertActive,
	)

	return m
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *Metrics) ObserveSample(valid bool, temperature, humidity float64) {
	if m == nil {
		return
	}
	if !valid {
		m.samples.WithLabelValues("invalid").Inc()
		return
	}
	m.samples.WithLabelValues("valid").Inc()
	m.indoorTemp.Set(temperature)
	m.indoorHum.Set(humidity)
}

func (m *Metrics) ObserveOutdoorFetch(ok bool) {
	if m == nil {
		return
	}
	m.outdoorFetch.WithLabelValues(result(ok)).Inc()
}

// ObserveNotification records one dispatch; typ is "alert", "recovery" or "test".
func (m *Metrics) ObserveNotification(typ string, ok bool) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(typ, result(ok)).Inc()
}

func (m *Metrics) ObserveAdvisoryFailure() {
	if m == nil {
		return
	}
	m.advisoryFails.Inc()
}

func (m *Metrics) SetAlertActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.alertActive.Set(1)
		return
	}
	m.alertActive.Set(0)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
