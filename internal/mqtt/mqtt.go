// Package mqtt carries the resource tree over an MQTT broker: object
// definitions and values are published retained, execute resources are
// subscribed to, and lifecycle events go to a system topic.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "sesame"

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventOffline     = "OFFLINE"
	EventReconnected = "RECONNECTED"
)

// ExecuteHandler is called for every execute command received.
type ExecuteHandler func(path resource.Path)

// Tree is the remote resource tree session.
type Tree interface {
	resource.Publisher

	// Register announces the object definitions.
	Register(defs []resource.ObjectDefinition) error

	// Subscribe starts delivering execute commands for paths to handler.
	Subscribe(paths []resource.Path, handler ExecuteHandler) error

	// Unsubscribe stops delivering execute commands for paths.
	Unsubscribe(paths []resource.Path) error

	// Clear removes the retained values of paths.
	Clear(paths []resource.Path) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Topics maps resource paths to topic names under a prefix.
type Topics struct {
	prefix string
}

// NewTopics creates a topic scheme. An empty prefix selects DefaultPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Value is the retained topic holding a resource's current value.
func (t Topics) Value(p resource.Path) string {
	return t.prefix + p.String()
}

// Exec is the topic execute commands for p arrive on.
func (t Topics) Exec(p resource.Path) string {
	return t.Value(p) + "/exec"
}

// Definition is the retained topic an object definition is published to.
func (t Topics) Definition(object uint16) string {
	return fmt.Sprintf("%s/%d/definition", t.prefix, object)
}

// System is the topic lifecycle events are published to.
func (t Topics) System() string {
	return t.prefix + "/system"
}

// ParseExec extracts the resource path from an execute topic.
func (t Topics) ParseExec(topic string) (resource.Path, error) {
	rest, ok := strings.CutPrefix(topic, t.prefix+"/")
	if !ok {
		return resource.Path{}, fmt.Errorf("topic %q outside prefix %q", topic, t.prefix)
	}
	rest, ok = strings.CutSuffix(rest, "/exec")
	if !ok {
		return resource.Path{}, fmt.Errorf("topic %q is not an execute topic", topic)
	}
	return resource.ParsePath(rest)
}

// FormatValue renders a value as its text payload.
func FormatValue(v resource.Value) []byte {
	return []byte(v.String())
}

// FormatDefinition creates the JSON payload for an object definition.
func FormatDefinition(def resource.ObjectDefinition) ([]byte, error) {
	return json.Marshal(def)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
