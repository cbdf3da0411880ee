// Package clock provides a 32-bit millisecond monotonic counter.
//
// Millis wraps around roughly every 49.7 days. All elapsed-time math goes
// through Since, which relies on unsigned subtraction and stays correct
// across a single wrap.
package clock

import (
	"sync"
	"time"
)

// Millis is a wrapping millisecond timestamp.
type Millis uint32

// Since returns the milliseconds elapsed from earlier to m.
func (m Millis) Since(earlier Millis) uint32 {
	return uint32(m - earlier)
}

// Due reports whether interval has elapsed between last and now.
func Due(now, last Millis, interval time.Duration) bool {
	return now.Since(last) >= DurationMillis(interval)
}

// DurationMillis converts d to whole milliseconds, saturating at the
// counter's range.
func DurationMillis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	switch {
	case ms <= 0:
		return 0
	case ms > int64(^uint32(0)):
		return ^uint32(0)
	default:
		return uint32(ms)
	}
}

// Clock supplies the current monotonic time.
type Clock interface {
	Now() Millis
}

// Monotonic counts milliseconds since it was created.
type Monotonic struct {
	start time.Time
}

func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

func (m *Monotonic) Now() Millis {
	return Millis(uint32(time.Since(m.start).Milliseconds()))
}

// Manual is a Clock moved by hand, used by tests and simulations.
type Manual struct {
	mu  sync.Mutex
	now Millis
}

func NewManual(start Millis) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() Millis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d, wrapping like the real counter.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += Millis(DurationMillis(d))
}

// Set jumps the clock to an absolute value.
func (m *Manual) Set(v Millis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = v
}
