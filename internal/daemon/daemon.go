// Package daemon assembles the monitor from configuration and runs it until
// the context is cancelled.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/climatewatch/internal/advisory"
	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/config"
	"github.com/hamed0406/climatewatch/internal/domain"
	"github.com/hamed0406/climatewatch/internal/httpapi"
	"github.com/hamed0406/climatewatch/internal/logging"
	"github.com/hamed0406/climatewatch/internal/metrics"
	"github.com/hamed0406/climatewatch/internal/mqttpub"
	"github.com/hamed0406/climatewatch/internal/notify"
	"github.com/hamed0406/climatewatch/internal/repo/memory"
	"github.com/hamed0406/climatewatch/internal/scheduler"
	"github.com/hamed0406/climatewatch/internal/sensor"
	"github.com/hamed0406/climatewatch/internal/weather"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	ConfigPath string
	// Addr overrides the configured listen address when set.
	Addr string
}

// Run loads settings, builds every component and blocks until ctx ends.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()
	c := clock.NewMonotonic()
	loc := domain.Location{Latitude: cfg.Latitude, Longitude: cfg.Longitude}

	outdoor := weather.NewCache(logger, weather.NewOpenMeteo(cfg.ForecastURL, cfg.HTTPTimeout, c), loc, m)
	alerter := scheduler.NewAlerter(logger, outdoor, newAdvisor(logger, cfg), newNotifier(logger, cfg), m,
		scheduler.AlerterConfig{
			Thresholds: domain.AlertThresholds{
				HumidityHigh: cfg.HumidityHigh,
				TempHigh:     cfg.TempHigh,
				TempLow:      cfg.TempLow,
			},
			Cooldown:    cfg.Cooldown,
			CallTimeout: cfg.HTTPTimeout,
		})
	history := memory.New(memory.DefaultCapacity)
	alerter.WithHistory(history)
	station := scheduler.NewStation(c, outdoor, alerter, loc)

	var publisher scheduler.ReadingPublisher
	if cfg.MQTTBroker != "" {
		p, err := mqttpub.Dial(cfg.MQTTBroker, mqttClientID(), cfg.MQTTTopic, cfg.HTTPTimeout)
		if err != nil {
			// The broker may come up later; readings are still served over HTTP.
			logger.Warn("mqtt_connect_failed", zap.String("broker", cfg.MQTTBroker), zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
	}

	sched := scheduler.New(logger, c, scheduler.Config{
		SampleInterval:  cfg.SampleInterval,
		OutdoorInterval: cfg.OutdoorInterval,
		CallTimeout:     cfg.HTTPTimeout,
	}, sensor.NewSampler(sensor.NewIIODriver(cfg.SensorDir), c), station, publisher, m)

	api := httpapi.NewServer(logger, sched, weather.NewArchive(cfg.ArchiveURL, cfg.HTTPTimeout), history, m, cfg.RequestTimeout)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.OutboundRPM, cfg.OutboundBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		_ = sched.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("api_listen_failed", zap.Error(err))
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_failed", zap.Error(err))
	}
	<-schedDone
	logger.Info("shutdown_complete")
	return nil
}

// newAdvisor returns nil without an API key so the alerter falls back to
// the placeholder without a wasted call.
func newAdvisor(logger *zap.Logger, cfg *config.Config) scheduler.Advisor {
	if cfg.GeminiKey == "" {
		logger.Warn("advisory_disabled", zap.String("reason", "no gemini key"))
		return nil
	}
	return advisory.NewGemini(cfg.GeminiURL, cfg.GeminiModel, cfg.GeminiKey, cfg.HTTPTimeout)
}

// newNotifier fans out to one Telegram sink per chat. With no sink every
// message is reported as undelivered.
func newNotifier(logger *zap.Logger, cfg *config.Config) notify.Notifier {
	var sinks notify.Multi
	for _, id := range cfg.TelegramChatIDs {
		if t := notify.NewTelegram(cfg.TelegramURL, cfg.TelegramToken, id, cfg.HTTPTimeout); t != nil {
			sinks = append(sinks, t)
		}
	}
	if len(sinks) == 0 {
		logger.Warn("notifications_disabled", zap.String("reason", "no telegram token or chat ids"))
	}
	return sinks
}

func mqttClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "climatewatch"
	}
	return "climatewatch-" + host
}
