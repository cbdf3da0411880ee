package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/climatewatch/internal/domain"
)

const DefaultCapacity = 100

// Store is a bounded ring of events; the oldest is dropped when full.
type Store struct {
	mu     sync.RWMutex
	events []domain.AlertEvent
	next   int
	full   bool
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{events: make([]domain.AlertEvent, capacity)}
}

func (m *Store) Append(_ context.Context, e domain.AlertEvent) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[m.next] = e
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Store) Recent(_ context.Context, n int) ([]domain.AlertEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.events)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]domain.AlertEvent, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.events)) % len(m.events)
		out = append(out, m.events[idx])
	}
	return out, nil
}
