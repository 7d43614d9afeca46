package logic

import "time"

// DefaultIdleTimeout is how long the relay may stay energized before Tick
// forces it off.
const DefaultIdleTimeout = 3 * time.Second

// Relay tracks the logical state of the door relay and its idle window.
// The physical output is driven by the caller from the values it reports.
type Relay struct {
	idleTimeout time.Duration
	energized   bool
	activatedAt Mark
}

// NewRelay creates a de-energized relay. A non-positive idleTimeout selects
// DefaultIdleTimeout.
func NewRelay(idleTimeout time.Duration) *Relay {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Relay{idleTimeout: idleTimeout}
}

// Activate energizes the relay and (re)starts the idle window at now.
func (r *Relay) Activate(now time.Time) {
	r.energized = true
	r.activatedAt.Set(now)
}

// Deactivate de-energizes the relay.
func (r *Relay) Deactivate() {
	r.energized = false
	r.activatedAt.Clear()
}

// Tick de-energizes the relay once the idle window has elapsed.
// It returns true only on the call that switched it off.
func (r *Relay) Tick(now time.Time) bool {
	if !r.energized {
		return false
	}
	at, ok := r.activatedAt.Time()
	if ok && now.Sub(at) < r.idleTimeout {
		return false
	}
	r.Deactivate()
	return true
}

// Energized reports the current logical state.
func (r *Relay) Energized() bool {
	return r.energized
}

// ActivatedAt returns when the relay was last energized, if it is on.
func (r *Relay) ActivatedAt() (time.Time, bool) {
	return r.activatedAt.Time()
}

// IdleTimeout returns the configured idle window.
func (r *Relay) IdleTimeout() time.Duration {
	return r.idleTimeout
}
