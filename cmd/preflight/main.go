// cmd/preflight/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hamed0406/climatewatch/internal/advisory"
	"github.com/hamed0406/climatewatch/internal/config"
	"github.com/hamed0406/climatewatch/internal/notify"
	"github.com/hamed0406/climatewatch/internal/probe"
	"github.com/hamed0406/climatewatch/internal/weather"
)

func main() {
	path := flag.String("config", config.DefaultConfigFilename, "path to configuration file")
	network := flag.Bool("network", false, "also check that upstream services resolve and answer")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*path)
	if err != nil {
		fail("config: " + err.Error())
	}
	ok("config valid, API on " + cfg.Addr)

	if _, err := os.Stat(cfg.SensorDir); err != nil {
		warn("SENSOR_DIR " + cfg.SensorDir + " not readable; every sample will be invalid.")
	} else {
		ok("sensor directory " + cfg.SensorDir)
	}

	if cfg.TelegramToken == "" || len(cfg.TelegramChatIDs) == 0 {
		warn("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_IDS empty; alerts will only be logged.")
	} else {
		ok(fmt.Sprintf("telegram: %d chat(s)", len(cfg.TelegramChatIDs)))
	}

	if cfg.GeminiKey == "" {
		warn("GEMINI_API_KEY empty; alerts will carry the placeholder advisory.")
	} else {
		model := cfg.GeminiModel
		if model == "" {
			model = advisory.DefaultModel
		}
		ok("gemini model " + model)
	}

	if cfg.MQTTBroker == "" {
		warn("MQTT_BROKER empty; readings will not be published.")
	} else {
		ok("mqtt " + cfg.MQTTBroker + " topic " + cfg.MQTTTopic)
	}

	ok(fmt.Sprintf("thresholds: humidity >= %.0f%%, temp >= %.1f°C or <= %.1f°C, cooldown %s",
		cfg.HumidityHigh, cfg.TempHigh, cfg.TempLow, cfg.Cooldown))

	if *network {
		for _, res := range checkUpstreams(cfg) {
			line := fmt.Sprintf("%s %s: %s", res.Name, res.Target, res.Message)
			if !res.Success {
				fail(line)
			}
			ok(line)
		}
	}

	ok("preflight passed")
}

// checkUpstreams runs DNS and HTTP checks against every upstream and
// releases its deadline before returning.
func checkUpstreams(cfg *config.Config) []probe.CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	checks := probe.NewMultiChecker(probe.NewDNSChecker(3*time.Second), probe.NewHTTPChecker(cfg.HTTPTimeout))
	return checks.Run(ctx, upstreams(cfg)...)
}

func upstreams(cfg *config.Config) []string {
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	return []string{
		pick(cfg.ForecastURL, weather.DefaultForecastURL),
		pick(cfg.ArchiveURL, weather.DefaultArchiveURL),
		pick(cfg.GeminiURL, advisory.DefaultBaseURL),
		pick(cfg.TelegramURL, notify.DefaultTelegramURL),
	}
}
