package app

import (
	"context"
	"sync"
	"time"
)

// DefaultThrottleInterval is the pause after each LMIC transmission,
// sized for LoRaWAN duty cycle limits.
const DefaultThrottleInterval = 1200 * time.Millisecond

// Throttle enforces a minimum gap between consecutive frame transmissions.
type Throttle struct {
	mu       sync.RWMutex
	interval time.Duration
}

// NewThrottle creates a throttle with the given interval. Zero or negative
// disables the pause.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks for the current interval. It returns ctx.Err() as soon as the
// context is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	d := t.Interval()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetInterval changes the interval used by subsequent waits.
func (t *Throttle) SetInterval(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = d
}

// Interval returns the current interval.
func (t *Throttle) Interval() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.interval
}
