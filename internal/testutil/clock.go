package testutil

import (
	"sync"
	"time"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// MockClock is a test double for domain.Clock.
// Timers fire synchronously on the goroutine calling Advance.
type MockClock struct {
	NowTime time.Time
	timers  []*mockTimer
	mu      sync.Mutex
}

// NewMockClock returns a clock set to a fixed instant.
func NewMockClock() *MockClock {
	return &MockClock{NowTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

type mockTimer struct {
	at      time.Time
	f       func()
	clock   *MockClock
	stopped bool
	fired   bool
}

// Stop cancels the timer.
func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Now returns the current fake time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NowTime
}

// AfterFunc registers f to run once the fake time reaches now+d.
func (m *MockClock) AfterFunc(d time.Duration, f func()) domain.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockTimer{at: m.NowTime.Add(d), f: f, clock: m}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the fake time forward, running due timers in deadline order.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.NowTime.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var next *mockTimer
		for _, t := range m.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			m.NowTime = target
			m.mu.Unlock()
			return
		}
		m.NowTime = next.at
		next.fired = true
		m.mu.Unlock()

		next.f()
	}
}

// PendingTimers returns the number of timers that have neither fired nor been stopped.
func (m *MockClock) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
