// Package scheduler runs the cooperative loop that samples the sensor,
// refreshes outdoor data, evaluates alerts and serves inbound requests.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/domain"
	"github.com/hamed0406/climatewatch/internal/metrics"
	"github.com/hamed0406/climatewatch/internal/sensor"
)

// ReadingPublisher receives every valid reading.
type ReadingPublisher interface {
	PublishReading(r domain.SensorReading) error
}

// Task runs on the scheduler loop with exclusive access to the station.
// ctx is the loop's context, not the caller's: work started for a request
// is finished even if the caller goes away.
type Task func(ctx context.Context, st *Station)

// Config holds the loop timings. Zero values fall back to defaults.

type Config struct {
	SampleInterval  time.Duration
	OutdoorInterval time.Duration
	// PollInterval is how long the loop idles when no request arrives.
	PollInterval time.Duration
	// CallTimeout bounds scheduled outbound calls.
	CallTimeout time.Duration
}

type request struct {
	ctx  context.Context
	task Task
	done chan struct{}
	// skipped is written before done is closed.
	skipped bool
}

// Scheduler is the single owner of a Station.
type Scheduler struct {
	logger    *zap.Logger
	clock     clock.Clock
	cfg       Config
	sampler   *sensor.Sampler
	station   *Station
	publisher ReadingPublisher
	metrics   *metrics.Metrics

	requests    chan *request
	lastSample  clock.Millis
	lastOutdoor clock.Millis
}

func New(
	logger *zap.Logger,
	c clock.Clock,
	cfg Config,
	sampler *sensor.Sampler,
	station *Station,
	publisher ReadingPublisher,
	m *metrics.Metrics,
) *Scheduler {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 5 * time.Second
	}
	if cfg.OutdoorInterval <= 0 {
		cfg.OutdoorInterval = 10 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &Scheduler{
		logger:    logger,
		clock:     c,
		cfg:       cfg,
		sampler:   sampler,
		station:   station,
		publisher: publisher,
		metrics:   m,
		requests:  make(chan *request),
	}
}

// Run does an immediate sample and outdoor refresh, then loops until ctx
// is cancelled. Each iteration serves pending requests, then fires due
// timers.
func (s *Scheduler) Run(ctx context.Context) error {
	s.start(ctx)

	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler_stopped")
			return ctx.Err()
		case req := <-s.requests:
			s.serve(ctx, req)
		case <-t.C:
		}
		s.servePending(ctx)
		s.tick(ctx)
	}
}

// Do hands task to the loop and waits until it has run. ctx bounds only
// the wait for the loop to pick the task up; once accepted, Do waits for
// the task to finish. An accepted task whose ctx has already expired is
// skipped, and Do then returns ctx.Err().
func (s *Scheduler) Do(ctx context.Context, task Task) error {
	req := &request{ctx: ctx, task: task, done: make(chan struct{})}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	if req.skipped {
		return ctx.Err()
	}
	return nil
}

func (s *Scheduler) start(ctx context.Context) {
	now := s.clock.Now()
	s.lastSample = now
	s.lastOutdoor = now
	s.logger.Info("scheduler_started",
		zap.Duration("sample_interval", s.cfg.SampleInterval),
		zap.Duration("outdoor_interval", s.cfg.OutdoorInterval),
	)
	s.refreshOutdoor(ctx)
	s.sample(ctx, now)
}

func (s *Scheduler) servePending(ctx context.Context) {
	for {
		select {
		case req := <-s.requests:
			s.serve(ctx, req)
		default:
			return
		}
	}
}

func (s *Scheduler) serve(ctx context.Context, req *request) {
	defer close(req.done)
	if req.ctx.Err() != nil {
		req.skipped = true
		s.logger.Debug("request_expired_before_service")
		return
	}
	req.task(ctx, s.station)
}

// tick fires each timer at most once. A late loop fires overdue timers now
// and restarts their period from now.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()
	if clock.Due(now, s.lastSample, s.cfg.SampleInterval) {
		s.lastSample = now
		s.sample(ctx, now)
	}
	if clock.Due(now, s.lastOutdoor, s.cfg.OutdoorInterval) {
		s.lastOutdoor = now
		s.refreshOutdoor(ctx)
	}
}

func (s *Scheduler) sample(ctx context.Context, now clock.Millis) {
	st := s.station
	st.Reading = s.sampler.Sample(st.Reading)
	s.metrics.ObserveSample(st.Reading.Valid, st.Reading.Temperature, st.Reading.Humidity)

	if !st.Reading.Valid {
		s.logger.Warn("sensor_invalid")
		return
	}

	s.logger.Debug("sensor_sampled",
		zap.Float64("temperature", st.Reading.Temperature),
		zap.Float64("humidity", st.Reading.Humidity),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishReading(st.Reading); err != nil {
			s.logger.Warn("reading_publish_failed", zap.Error(err))
		}
	}

	st.Alerts.Evaluate(ctx, now, st.Reading)
}

func (s *Scheduler) refreshOutdoor(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	// Failures are logged by the cache, which keeps the stale snapshot.
	_, _ = s.station.Outdoor.Refresh(cctx)
}
