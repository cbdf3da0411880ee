// Package weather fetches outdoor conditions and keeps the latest snapshot.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/domain"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"

	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m,uv_index"
)

// ErrFetchFailed wraps every transport, status, or decode failure of a
// weather service call.
var ErrFetchFailed = errors.New("weather fetch failed")

// Fetcher returns a fresh outdoor snapshot for a location.
type Fetcher interface {
	Fetch(ctx context.Context, loc domain.Location) (domain.OutdoorSnapshot, error)
}

type OpenMeteo struct {
	BaseURL string
	Client  *http.Client
	clock   clock.Clock
}

func NewOpenMeteo(baseURL string, timeout time.Duration, c clock.Clock) *OpenMeteo {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	return &OpenMeteo{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		clock:   c,
	}
}

// currentPayload mirrors the "current" block; absent fields stay zero.
type currentPayload struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		FeelsLike   float64 `json:"apparent_temperature"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		UVIndex     float64 `json:"uv_index"`
	} `json:"current"`
}

func (o *OpenMeteo) Fetch(ctx context.Context, loc domain.Location) (domain.OutdoorSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(loc.Latitude))
	q.Set("longitude", formatCoord(loc.Longitude))
	q.Set("current", currentFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.OutdoorSnapshot{}, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return domain.OutdoorSnapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.OutdoorSnapshot{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var p currentPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return domain.OutdoorSnapshot{}, fmt.Errorf("%w: decode: %v", ErrFetchFailed, err)
	}

	return domain.OutdoorSnapshot{
		Temperature: p.Current.Temperature,
		Humidity:    p.Current.Humidity,
		FeelsLike:   p.Current.FeelsLike,
		WindSpeed:   p.Current.WindSpeed,
		UVIndex:     p.Current.UVIndex,
		WeatherCode: p.Current.WeatherCode,
		Condition:   domain.ConditionLabel(p.Current.WeatherCode),
		FetchedAt:   o.clock.Now(),
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
