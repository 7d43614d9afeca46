// Package status provides a thread-safe status tracker for the gateway.
// It is read by the HTTP handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/sesame-gateway/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains gateway configuration for display.
type Config struct {
	TickMs        int64
	IdleTimeoutMs int64
	HeartbeatMs   int64
	SensorMode    string
	Broker        string
	Prefix        string
	RedisAddr     string // empty = mirror disabled
	HTTPPort      string
	WSBroker      string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Snapshot is a point-in-time view of gateway state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Door          logic.Snapshot
	Ready         bool // initial values published, execute paths subscribed
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the gateway started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable gateway state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Door:      logic.Snapshot{Phase: logic.PhaseIdle},
		},
	}
}

// Update stores the latest door snapshot.
func (t *Tracker) Update(door logic.Snapshot) {
	t.mu.Lock()
	t.snap.Door = door
	t.mu.Unlock()
}

// SetReady marks startup as complete.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the gateway state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
