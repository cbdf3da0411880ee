package sensor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/climatewatch/internal/clock"
	"github.com/hamed0406/climatewatch/internal/domain"
)

type fakeDriver struct {
	temp, hum float64
}

func (f *fakeDriver) ReadTemperature() float64 { return f.temp }
func (f *fakeDriver) ReadHumidity() float64    { return f.hum }

func TestSampler_ValidReading(t *testing.T) {
	t.Parallel()

	c := clock.NewManual(1234)
	s := NewSampler(&fakeDriver{temp: 22.5, hum: 41}, c)

	got := s.Sample(domain.SensorReading{})
	require.True(t, got.Valid)
	require.InDelta(t, 22.5, got.Temperature, 1e-9)
	require.InDelta(t, 41.0, got.Humidity, 1e-9)
	require.Equal(t, clock.Millis(1234), got.CapturedAt)
}

func TestSampler_NaNKeepsPreviousValues(t *testing.T) {
	t.Parallel()

	prev := domain.SensorReading{Temperature: 21, Humidity: 55, Valid: true, CapturedAt: 10}
	for _, d := range []*fakeDriver{
		{temp: math.NaN(), hum: 40},
		{temp: 20, hum: math.NaN()},
	} {
		s := NewSampler(d, clock.NewManual(5000))
		got := s.Sample(prev)
		require.False(t, got.Valid)
		require.Equal(t, 21.0, got.Temperature)
		require.Equal(t, 55.0, got.Humidity)
		require.Equal(t, clock.Millis(10), got.CapturedAt)
	}
}

func TestIIODriver_ReadsMilliUnits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in_temp_input"), []byte("23400\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in_humidityrelative_input"), []byte("51000\n"), 0o600))

	d := NewIIODriver(dir)
	require.InDelta(t, 23.4, d.ReadTemperature(), 1e-9)
	require.InDelta(t, 51.0, d.ReadHumidity(), 1e-9)
}

func TestIIODriver_MissingOrGarbageIsNaN(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in_temp_input"), []byte("oops"), 0o600))

	d := NewIIODriver(dir)
	require.True(t, math.IsNaN(d.ReadTemperature()))
	require.True(t, math.IsNaN(d.ReadHumidity()))
}
