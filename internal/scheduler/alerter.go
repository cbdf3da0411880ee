package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/domain"
	"github.com/hamed0406/climatewatch/internal/metrics"
	"github.com/hamed0406/climatewatch/internal/notify"
	"github.com/hamed0406/climatewatch/internal/repo"
)

// OutdoorSource is the outdoor weather cache as seen by the alerter.
type OutdoorSource interface {
	Refresh(ctx context.Context) (domain.OutdoorSnapshot, error)
	Current() domain.OutdoorSnapshot
}

// Advisor turns a prompt into advisory text.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// AlerterConfig holds the thresholds and timings of the state machine.
type AlerterConfig struct {
	Thresholds domain.AlertThresholds
	// Cooldown is the minimum time between two alert triggers. It never
	// delays a recovery message.
	Cooldown time.Duration
	// CallTimeout bounds each outbound call made while firing.
	CallTimeout time.Duration
}

// Transition is the outcome of one evaluation.
type Transition int

const (
	NoTransition   Transition = iota // state unchanged
	AlertFired                       // Normal to Alerting, alert sent
	AlertRecovered                   // Alerting to Normal, recovery sent
)

// Alerter is the threshold state machine. It is Normal while
// state.Active is false and Alerting(state.Kind) otherwise.
type Alerter struct {
	logger   *zap.Logger
	outdoor  OutdoorSource
	advisor  Advisor
	notifier notify.Notifier
	metrics  *metrics.Metrics
	history  repo.EventStore
	cfg      AlerterConfig

	state domain.AlertState
}

func NewAlerter(
	logger *zap.Logger,
	outdoor OutdoorSource,
	advisor Advisor,
	notifier notify.Notifier,
	m *metrics.Metrics,
	cfg AlerterConfig,
) *Alerter {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &Alerter{
		logger:   logger,
		outdoor:  outdoor,
		advisor:  advisor,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
	}
}

// WithHistory records every alert, recovery and test message in store.
func (a *Alerter) WithHistory(store repo.EventStore) *Alerter {
	a.history = store
	return a
}

func (a *Alerter) State() domain.AlertState {
	return a.state
}

// Evaluate runs one step of the state machine against r. Invalid readings
// leave the state untouched.
func (a *Alerter) Evaluate(ctx context.Context, now clock.Millis, r domain.SensorReading) Transition {
	if !r.Valid {
		return NoTransition
	}

	kind := a.cfg.Thresholds.Classify(r)

	if a.state.Active {
		// Any breach keeps the episode open, even a different kind.
		if kind != domain.AlertNone {
			return NoTransition
		}
		a.state.Active = false
		a.metrics.SetAlertActive(false)
		a.logger.Info("alert_recovered",
			zap.String("kind", a.state.Kind.String()),
			zap.Float64("temperature", r.Temperature),
			zap.Float64("humidity", r.Humidity),
		)
		a.dispatch(ctx, domain.EventRecovery, a.state.Kind, r, notify.ComposeRecovery(r))
		return AlertRecovered
	}

	if kind == domain.AlertNone {
		return NoTransition
	}

	if a.state.Triggered && now.Since(a.state.LastTriggeredAt) <= clock.DurationMillis(a.cfg.Cooldown) {
		a.logger.Debug("alert_suppressed_cooldown",
			zap.String("kind", kind.String()),
			zap.Uint32("since_last_ms", now.Since(a.state.LastTriggeredAt)),
		)
		return NoTransition
	}

	a.fire(ctx, domain.EventAlert, now, kind, r)
	return AlertFired
}

// Force opens an episode immediately, bypassing the cooldown. The kind is
// whatever condition r currently matches, or AlertNone for a manual test.
// A forced episode does not restart the cooldown, so a real breach right
// after it still alerts.
func (a *Alerter) Force(ctx context.Context, now clock.Millis, r domain.SensorReading) domain.AlertKind {
	kind := domain.AlertNone
	if r.Valid {
		kind = a.cfg.Thresholds.Classify(r)
	}
	a.fire(ctx, domain.EventTest, now, kind, r)
	return kind
}

func (a *Alerter) fire(ctx context.Context, typ string, now clock.Millis, kind domain.AlertKind, r domain.SensorReading) {
	a.state.Kind = kind
	a.state.Active = true
	if typ != domain.EventTest {
		a.state.LastTriggeredAt = now
		a.state.Triggered = true
	}
	a.metrics.SetAlertActive(true)
	a.logger.Info("alert_fired",
		zap.String("kind", kind.String()),
		zap.Float64("temperature", r.Temperature),
		zap.Float64("humidity", r.Humidity),
	)

	snap := a.refreshOutdoor(ctx)
	advice := a.advise(ctx, r, snap)
	a.dispatch(ctx, typ, kind, r, notify.ComposeAlert(kind, r, snap, advice))
}

// refreshOutdoor forces a fetch for the freshest context. On failure the
// cache still serves the previous snapshot.
func (a *Alerter) refreshOutdoor(ctx context.Context) domain.OutdoorSnapshot {
	cctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	snap, err := a.outdoor.Refresh(cctx)
	if err != nil {
		return a.outdoor.Current()
	}
	return snap
}

func (a *Alerter) advise(ctx context.Context, r domain.SensorReading, snap domain.OutdoorSnapshot) string {
	if a.advisor == nil {
		return notify.AdvisoryPlaceholder
	}

	cctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	text, err := a.advisor.Advise(cctx, notify.AdvisoryPrompt(r, snap))
	if err != nil {
		a.metrics.ObserveAdvisoryFailure()
		a.logger.Warn("advisory_failed", zap.Error(err))
	}
	return notify.AdvisoryOrPlaceholder(text, err)
}

// dispatch is fire-and-forget: a failed send is logged and the alert state
// is not rolled back.
func (a *Alerter) dispatch(ctx context.Context, typ string, kind domain.AlertKind, r domain.SensorReading, text string) {
	cctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	err := a.notifier.Send(cctx, text)
	a.metrics.ObserveNotification(typ, err == nil)
	a.record(ctx, domain.AlertEvent{
		Type:        typ,
		Kind:        kind,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Delivered:   err == nil,
	})
	if err != nil {
		a.logger.Warn("notification_dispatch_failed", zap.String("type", typ), zap.Error(err))
		return
	}
	a.logger.Debug("notification_sent", zap.String("type", typ))
}

func (a *Alerter) record(ctx context.Context, e domain.AlertEvent) {
	if a.history == nil {
		return
	}
	if err := a.history.Append(ctx, e); err != nil {
		a.logger.Warn("alert_history_append_failed", zap.Error(err))
	}
}
