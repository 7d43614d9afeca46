package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Door          DoorJSON     `json:"door"`
	Counters      CountersJSON `json:"counters"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// DoorJSON reports the door phase, relay and sensor levels.
type DoorJSON struct {
	Phase       string `json:"phase"`
	Relay       string `json:"relay"`
	Opened      bool   `json:"opened_sensor"`
	Closed      bool   `json:"closed_sensor"`
	OpenTiming  bool   `json:"open_timing"`
	CloseTiming bool   `json:"close_timing"`
}

// CountersJSON is the JSON representation of the counters and durations.
type CountersJSON struct {
	Open             int64   `json:"open"`
	Close            int64   `json:"close"`
	Trigger          int64   `json:"trigger"`
	LastOpenSeconds  float64 `json:"last_open_seconds"`
	LastCloseSeconds float64 `json:"last_close_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Prefix    string `json:"prefix"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of gateway config.
type ConfigJSON struct {
	TickMs        int64  `json:"tick_ms"`
	IdleTimeoutMs int64  `json:"idle_timeout_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	SensorMode    string `json:"sensor_mode"`
	Broker        string `json:"broker"`
	Prefix        string `json:"prefix"`
	RedisAddr     string `json:"redis_addr,omitempty"`
	HTTPPort      string `json:"http_port"`
	WSBroker      string `json:"ws_broker,omitempty"`
}

// RelayState renders the relay flag the way the status page shows it.
func RelayState(energized bool) string {
	if energized {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Door.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}
	c := snap.Door.Counters

	inner := StatusInner{
		Door: DoorJSON{
			Phase:       phase,
			Relay:       RelayState(snap.Door.RelayEnergized),
			Opened:      snap.Door.DoorOpened,
			Closed:      snap.Door.DoorClosed,
			OpenTiming:  snap.Door.OpenTiming,
			CloseTiming: snap.Door.CloseTiming,
		},
		Counters: CountersJSON{
			Open:             c.Open,
			Close:            c.Close,
			Trigger:          c.Trigger,
			LastOpenSeconds:  c.LastOpen,
			LastCloseSeconds: c.LastClose,
		},
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Prefix:    snap.Config.Prefix,
		},
		Config: ConfigJSON{
			TickMs:        snap.Config.TickMs,
			IdleTimeoutMs: snap.Config.IdleTimeoutMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			SensorMode:    snap.Config.SensorMode,
			Broker:        snap.Config.Broker,
			Prefix:        snap.Config.Prefix,
			RedisAddr:     snap.Config.RedisAddr,
			HTTPPort:      snap.Config.HTTPPort,
			WSBroker:      snap.Config.WSBroker,
		},
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
