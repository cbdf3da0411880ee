package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/climatewatch/internal/config"
	"github.com/hamed0406/climatewatch/internal/weather"
)

func TestUpstreams_DefaultsFillUnsetURLs(t *testing.T) {
	cfg := config.Default()
	cfg.ArchiveURL = "http://archive.local/v1"

	got := upstreams(&cfg)
	require.Len(t, got, 4)
	require.Equal(t, weather.DefaultForecastURL, got[0])
	require.Equal(t, "http://archive.local/v1", got[1])
}

func TestCheckUpstreams_ReportsEveryCheck(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	cfg := config.Default()
	cfg.HTTPTimeout = time.Second
	cfg.ForecastURL = up.URL
	cfg.ArchiveURL = up.URL
	cfg.GeminiURL = up.URL
	cfg.TelegramURL = down.URL

	res := checkUpstreams(&cfg)
	require.Len(t, res, 8)
	for i, r := range res[:6] {
		require.True(t, r.Success, "check %d: %+v", i, r)
	}
	require.True(t, res[6].Success, "DNS of a loopback address resolves")
	require.False(t, res[7].Success)
	require.Equal(t, http.StatusBadGateway, res[7].StatusCode)
}
