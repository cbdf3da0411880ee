package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/domain"
	"github.com/hamed0406/climatewatch/internal/metrics"
	"github.com/hamed0406/climatewatch/internal/repo/memory"
	"github.com/hamed0406/climatewatch/internal/scheduler"
	"github.com/hamed0406/climatewatch/internal/sensor"
	"github.com/hamed0406/climatewatch/internal/weather"
)

// ---- test helpers ----

type steadyDriver struct{ temp, hum float64 }

func (d steadyDriver) ReadTemperature() float64 { return d.temp }
func (d steadyDriver) ReadHumidity() float64    { return d.hum }

type fixedFetcher struct {
	snap domain.OutdoorSnapshot

	mu    sync.Mutex
	delay time.Duration
}

func (f *fixedFetcher) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *fixedFetcher) Fetch(ctx context.Context, _ domain.Location) (domain.OutdoorSnapshot, error) {
	f.mu.Lock()
	d := f.delay
	f.mu.Unlock()

	select {
	case <-time.After(d):
		return f.snap, nil
	case <-ctx.Done():
		return domain.OutdoorSnapshot{}, ctx.Err()
	}
}

type countingNotifier struct {
	mu      sync.Mutex
	n       int
	ctxErrs []error
}

func (c *countingNotifier) Send(ctx context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		c.ctxErrs = append(c.ctxErrs, err)
		return err
	}
	c.n++
	return nil
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type fakeArchive struct {
	mu   sync.Mutex
	last domain.Location
	body []byte
	err  error
}

func (f *fakeArchive) Fetch(_ context.Context, loc domain.Location) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = loc
	return f.body, f.err
}

type apiFixture struct {
	ts       *httptest.Server
	fetcher  *fixedFetcher
	notifier *countingNotifier
	archive  *fakeArchive
	history  *memory.Store
}

func setup(t *testing.T) *apiFixture {
	t.Helper()
	return setupWithTimeout(t, 2*time.Second)
}

func setupWithTimeout(t *testing.T, requestTimeout time.Duration) *apiFixture {
	t.Helper()

	log := zap.NewNop()
	c := clock.NewManual(0)
	m := metrics.New()
	loc := domain.Location{Latitude: 52.52, Longitude: 13.41}

	fetcher := &fixedFetcher{snap: domain.OutdoorSnapshot{
		Temperature: 14.5, Humidity: 60, FeelsLike: 13, WindSpeed: 11, UVIndex: 2,
		WeatherCode: 3, Condition: "Overcast",
	}}
	cache := weather.NewCache(log, fetcher, loc, m)
	f := &apiFixture{
		fetcher:  fetcher,
		notifier: &countingNotifier{},
		archive:  &fakeArchive{body: []byte(`{"hourly":{}}`)},
		history:  memory.New(10),
	}
	alerter := scheduler.NewAlerter(log, cache, nil, f.notifier, m, scheduler.AlerterConfig{
		Thresholds: domain.AlertThresholds{HumidityHigh: 80, TempHigh: 35, TempLow: 15},
		Cooldown:   5 * time.Minute,
	})
	alerter.WithHistory(f.history)
	station := scheduler.NewStation(c, cache, alerter, loc)
	sched := scheduler.New(log, c, scheduler.Config{PollInterval: time.Millisecond},
		sensor.NewSampler(steadyDriver{temp: 22.25, hum: 48}, c), station, nil, m)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sched.Run(ctx) }()
	t.Cleanup(cancel)

	srv := NewServer(log, sched, f.archive, f.history, m, requestTimeout)
	f.ts = httptest.NewServer(srv.Router(10_000, 10_000))
	t.Cleanup(f.ts.Close)
	return f
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// ---- tests ----

func TestReadings(t *testing.T) {
	f := setup(t)

	resp, body := get(t, f.ts.URL+"/readings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 22.25, got["temperature"])
	require.Equal(t, 48.0, got["humidity"])
	require.Equal(t, true, got["valid"])
	require.Equal(t, false, got["alertActive"])
	require.Contains(t, got, "uptime")
}

func TestOutdoor(t *testing.T) {
	f := setup(t)

	resp, body := get(t, f.ts.URL+"/outdoor")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"temperature":14.5,"humidity":60,"feels_like":13,"wind_speed":11,
		"uv_index":2,"weather_code":3,"condition":"Overcast"}`, string(body))
}

func TestTestAlert_StartsEpisode(t *testing.T) {
	f := setup(t)

	resp, body := get(t, f.ts.URL+"/testAlert")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Test alert sent (Manual test)")
	require.Equal(t, 1, f.notifier.count())

	_, body = get(t, f.ts.URL+"/readings")
	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, true, got["alertActive"])
}

func TestSetLocation_ThenArchiveUsesIt(t *testing.T) {
	f := setup(t)

	resp, err := http.PostForm(f.ts.URL+"/setLocation", url.Values{"lat": {"40.4168"}, "lon": {"-3.7038"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, f.ts.URL+"/api")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"hourly":{}}`, string(body))

	f.archive.mu.Lock()
	defer f.archive.mu.Unlock()
	require.Equal(t, domain.Location{Latitude: 40.4168, Longitude: -3.7038}, f.archive.last)
}

func TestSetLocation_Invalid(t *testing.T) {
	f := setup(t)

	for _, form := range []url.Values{
		{"lat": {"abc"}, "lon": {"1"}},
		{"lat": {"91"}, "lon": {"1"}},
		{"lon": {"1"}},
	} {
		resp, err := http.PostForm(f.ts.URL+"/setLocation", form)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, form.Encode())
	}
}

func TestArchive_UpstreamFailureIs502(t *testing.T) {
	f := setup(t)
	f.archive.mu.Lock()
	f.archive.err = weather.ErrFetchFailed
	f.archive.mu.Unlock()

	resp, _ := get(t, f.ts.URL+"/api")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHealthzAndMetrics(t *testing.T) {
	f := setup(t)

	resp, body := get(t, f.ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))

	resp, body = get(t, f.ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), "climatewatch_sensor_samples_total"))
}

type busyRunner struct{}

func (busyRunner) Do(context.Context, scheduler.Task) error {
	return context.DeadlineExceeded
}

func TestBusyLoopIs503(t *testing.T) {
	t.Parallel()

	srv := NewServer(zap.NewNop(), busyRunner{}, &fakeArchive{}, nil, nil, time.Second)
	rec := httptest.NewRecorder()
	srv.Router(0, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readings", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAlerts_ListsForcedAlert(t *testing.T) {
	f := setup(t)

	_, body := get(t, f.ts.URL+"/alerts")
	require.JSONEq(t, `[]`, string(body))

	resp, _ := get(t, f.ts.URL+"/testAlert")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, f.ts.URL+"/alerts?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []map[string]any
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	require.Equal(t, "test", events[0]["type"])
	require.Equal(t, "none", events[0]["kind"])
	require.Equal(t, true, events[0]["delivered"])
}

func TestAlerts_BadLimit(t *testing.T) {
	f := setup(t)

	resp, _ := get(t, f.ts.URL+"/alerts?limit=-1")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTestAlert_OutlivesRequestDeadline(t *testing.T) {
	f := setupWithTimeout(t, 300*time.Millisecond)

	// Make sure the startup refresh is done before slowing the fetcher.
	resp, _ := get(t, f.ts.URL+"/readings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f.fetcher.setDelay(400 * time.Millisecond)

	resp, body := get(t, f.ts.URL+"/testAlert")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Test alert sent")

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	require.Empty(t, f.notifier.ctxErrs)
	require.Equal(t, 1, f.notifier.n)
}
