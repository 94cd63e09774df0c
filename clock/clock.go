package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System returns a Clock backed by the wall clock
func System() Clock {
	return systemClock{}
}

// Fake is a Clock whose time only moves when told to. It is safe for concurrent use.
type Fake struct {
	mu  sync.RWMutex
	now time.Time
}

var _ Clock = (*Fake)(nil)

// NewFake creates a fake clock starting at now
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// NewFakeUnix creates a fake clock starting at the given unix second
func NewFakeUnix(sec int64) *Fake {
	return NewFake(time.Unix(sec, 0))
}

func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
