package sensor

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIODriver reads a DHT-style sensor exposed through the Linux industrial I/O
// subsystem, e.g. /sys/bus/iio/devices/iio:device0. Values are milli-units.
type IIODriver struct {
	Dir string
}

func NewIIODriver(dir string) *IIODriver {
	return &IIODriver{Dir: filepath.Clean(dir)}
}

func (d *IIODriver) ReadTemperature() float64 {
	return d.readMilli("in_temp_input")
}

func (d *IIODriver) ReadHumidity() float64 {
	return d.readMilli("in_humidityrelative_input")
}

// readMilli returns NaN on any read or parse error; the dht11 kernel driver
// fails individual reads regularly (EIO on checksum errors).
func (d *IIODriver) readMilli(name string) float64 {
	raw, err := os.ReadFile(filepath.Join(d.Dir, name))
	if err != nil {
		return math.NaN()
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return math.NaN()
	}
	return float64(v) / 1000
}
