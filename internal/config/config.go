package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr     string `yaml:"addr"`      // API bind address, e.g. ":8080"
	LogDir   string `yaml:"log_dir"`   // rotating log directory
	LogLevel string `yaml:"log_level"` // debug|info|warn|error

	SensorDir string `yaml:"sensor_dir"` // IIO device directory of the DHT sensor

	SampleInterval  time.Duration `yaml:"sample_interval"`
	OutdoorInterval time.Duration `yaml:"outdoor_interval"`
	Cooldown        time.Duration `yaml:"cooldown"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`    // every outbound call
	RequestTimeout  time.Duration `yaml:"request_timeout"` // inbound request budget

	HumidityHigh float64 `yaml:"humidity_high"`
	TempHigh     float64 `yaml:"temp_high"`
	TempLow      float64 `yaml:"temp_low"`

	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`

	ForecastURL string `yaml:"forecast_url"`
	ArchiveURL  string `yaml:"archive_url"`

	GeminiURL   string `yaml:"gemini_url"`
	GeminiModel string `yaml:"gemini_model"`
	GeminiKey   string `yaml:"gemini_key"`

	TelegramURL     string   `yaml:"telegram_url"`
	TelegramToken   string   `yaml:"telegram_token"`
	TelegramChatIDs []string `yaml:"telegram_chat_ids"`

	MQTTBroker string `yaml:"mqtt_broker"` // empty disables publishing
	MQTTTopic  string `yaml:"mqtt_topic"`

	// Rate limit for /testAlert and /api, which trigger outbound calls.
	OutboundRPM   int `yaml:"outbound_rpm"`
	OutboundBurst int `yaml:"outbound_burst"`
}

const (
	DefaultConfigFilename = "climatewatch.yaml"
	DefaultSensorDir      = "/sys/bus/iio/devices/iio:device0"
)

var (
	errNoSensorDir       = errors.New("sensor_dir must be set")
	errBadInterval       = errors.New("intervals and timeouts must be positive")
	errThresholdOrder    = errors.New("temp_low must be below temp_high")
	errHumidityRange     = errors.New("humidity_high must be within (0, 100]")
	errLocationRange     = errors.New("latitude/longitude out of range")
	errNoMQTTTopic       = errors.New("mqtt_topic must be set when mqtt_broker is set")
	errUnknownLogLevel   = errors.New("unknown log level")
	errNegativeRateLimit = errors.New("outbound rate limit must not be negative")
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:            ":8080",
		LogDir:          "logs",
		LogLevel:        "info",
		SensorDir:       DefaultSensorDir,
		SampleInterval:  5 * time.Second,
		OutdoorInterval: 10 * time.Minute,
		Cooldown:        5 * time.Minute,
		HTTPTimeout:     15 * time.Second,
		RequestTimeout:  20 * time.Second,
		HumidityHigh:    80,
		TempHigh:        35,
		TempLow:         15,
		Latitude:        52.52,
		Longitude:       13.41,
		MQTTTopic:       "climatewatch/indoor",
		OutboundRPM:     6,
		OutboundBurst:   2,
	}
}

// Load layers defaults, the YAML file at path (skipped when path is empty or
// missing), and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		contents, err := os.ReadFile(filepath.Clean(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(contents, &cfg); err != nil {
				return nil, fmt.Errorf("unmarshal settings: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// Environment and defaults only.
		default:
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a configuration from defaults and environment variables only.
func FromEnv() (*Config, error) {
	return Load("")
}

func applyEnv(cfg *Config) {
	str(&cfg.Addr, "API_ADDR")
	str(&cfg.LogDir, "LOG_DIR")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.SensorDir, "SENSOR_DIR")

	millis(&cfg.SampleInterval, "SAMPLE_INTERVAL_MS")
	millis(&cfg.OutdoorInterval, "OUTDOOR_INTERVAL_MS")
	millis(&cfg.Cooldown, "ALERT_COOLDOWN_MS")
	millis(&cfg.HTTPTimeout, "HTTP_TIMEOUT_MS")
	millis(&cfg.RequestTimeout, "REQUEST_TIMEOUT_MS")

	float(&cfg.HumidityHigh, "HUMIDITY_HIGH")
	float(&cfg.TempHigh, "TEMP_HIGH")
	float(&cfg.TempLow, "TEMP_LOW")
	float(&cfg.Latitude, "LATITUDE")
	float(&cfg.Longitude, "LONGITUDE")

	str(&cfg.ForecastURL, "FORECAST_URL")
	str(&cfg.ArchiveURL, "ARCHIVE_URL")
	str(&cfg.GeminiURL, "GEMINI_URL")
	str(&cfg.GeminiModel, "GEMINI_MODEL")
	str(&cfg.GeminiKey, "GEMINI_API_KEY")
	str(&cfg.TelegramURL, "TELEGRAM_URL")
	str(&cfg.TelegramToken, "TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_IDS"); v != "" {
		cfg.TelegramChatIDs = splitList(v)
	}
	str(&cfg.MQTTBroker, "MQTT_BROKER")
	str(&cfg.MQTTTopic, "MQTT_TOPIC")

	integer(&cfg.OutboundRPM, "OUTBOUND_RPM")
	integer(&cfg.OutboundBurst, "OUTBOUND_BURST")
}

// Validate checks ranges and orderings.
func Validate(cfg *Config) error {
	if cfg.SensorDir == "" {
		return errNoSensorDir
	}
	for _, d := range []time.Duration{
		cfg.SampleInterval, cfg.OutdoorInterval, cfg.HTTPTimeout, cfg.RequestTimeout,
	} {
		if d <= 0 {
			return errBadInterval
		}
	}
	if cfg.Cooldown < 0 {
		return errBadInterval
	}
	if cfg.TempLow >= cfg.TempHigh {
		return errThresholdOrder
	}
	if cfg.HumidityHigh <= 0 || cfg.HumidityHigh > 100 {
		return errHumidityRange
	}
	if cfg.Latitude < -90 || cfg.Latitude > 90 || cfg.Longitude < -180 || cfg.Longitude > 180 {
		return errLocationRange
	}
	if cfg.MQTTBroker != "" && cfg.MQTTTopic == "" {
		return errNoMQTTTopic
	}
	if cfg.OutboundRPM < 0 || cfg.OutboundBurst < 0 {
		return errNegativeRateLimit
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}
	return nil
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func millis(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
}

func float(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func integer(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
