package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/pgpinger/internal/domain"
)

const DefaultCapacity = 512

// Store keeps the most recent results in a fixed-size ring. Written by the
// pinger loop, read by the status server.
type Store struct {
	mu       sync.RWMutex
	ring     []domain.ProbeResult
	next     int
	full     bool
	failures int // consecutive, reset by a success
}

// Status summarises the newest result.
type Status struct {
	Last                *domain.ProbeResult
	ConsecutiveFailures int
}

func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{ring: make([]domain.ProbeResult, capacity)}
}

func (m *Store) Append(ctx context.Context, r *domain.ProbeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[m.next] = *r
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.full = true
	}
	if r.OK() {
		m.failures = 0
	} else {
		m.failures++
	}
	return nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]domain.ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.len()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.ProbeResult, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}

func (m *Store) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Status{ConsecutiveFailures: m.failures}
	if m.len() > 0 {
		last := m.ring[(m.next-1+len(m.ring))%len(m.ring)]
		st.Last = &last
	}
	return st
}

func (m *Store) len() int {
	if m.full {
		return len(m.ring)
	}
	return m.next
}
