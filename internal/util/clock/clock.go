package clock

import (
	"sync"
	"time"
)

// Clock abstracts time source for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var (
	mu      sync.RWMutex
	current Clock = systemClock{}
)

// Now returns current time from the default clock.
func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return current.Now()
}

// Set replaces the default clock and returns a restore function.
func Set(c Clock) (restore func()) {
	mu.Lock()
	prev := current
	current = c
	mu.Unlock()
	return func() {
		mu.Lock()
		current = prev
		mu.Unlock()
	}
}

// UTCNow returns the current time in UTC via the default clock.
func UTCNow() time.Time { return Now().UTC() }

// NowUTCFormatted formats current time in UTC with the given layout.
func NowUTCFormatted(layout string) string { return UTCNow().Format(layout) }

// Stub is a manually advanced Clock for tests.
type Stub struct {
	mu sync.Mutex
	t  time.Time
}

func NewStub(t time.Time) *Stub { return &Stub{t: t} }

func (s *Stub) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

func (s *Stub) Advance(d time.Duration) {
	s.mu.Lock()
	s.t = s.t.Add(d)
	s.mu.Unlock()
}
