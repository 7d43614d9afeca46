// Package logic contains the door-motion state and timing engine.
// This package has NO I/O (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

// Channel identifies one of the two opto sensor inputs.
type Channel int

const (
	ChannelOpened Channel = iota // open-limit sensor
	ChannelClosed                // close-limit sensor
)

func (c Channel) String() string {
	switch c {
	case ChannelOpened:
		return "opened"
	case ChannelClosed:
		return "closed"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// ReadingPath is where the channel's digital level is published.
func (c Channel) ReadingPath() resource.Path {
	inst := resource.InstanceDoorOpened
	if c == ChannelClosed {
		inst = resource.InstanceDoorClosed
	}
	return resource.Path{Object: resource.ObjectOpto, Instance: inst, Resource: resource.ResourceDigitalInput}
}

// Direction is the kind of level transition reported by the driver.
// The zero value is not a valid direction.
type Direction int

const (
	DirectionRising Direction = iota + 1
	DirectionFalling
)

func (d Direction) String() string {
	switch d {
	case DirectionRising:
		return "rising"
	case DirectionFalling:
		return "falling"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Edge is a single edge notification from the GPIO layer.
type Edge struct {
	Channel   Channel
	Direction Direction
	Time      time.Time
}

// Slot selects one of the three counters.
type Slot int

const (
	SlotOpen Slot = iota
	SlotClose
	SlotTrigger
)

func (s Slot) String() string {
	switch s {
	case SlotOpen:
		return "open"
	case SlotClose:
		return "close"
	case SlotTrigger:
		return "trigger"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

func (s Slot) valid() bool {
	return s >= SlotOpen && s <= SlotTrigger
}

// Instance is the door object instance holding this slot's resources.
func (s Slot) Instance() uint16 {
	switch s {
	case SlotClose:
		return resource.InstanceClose
	case SlotTrigger:
		return resource.InstanceTrigger
	}
	return resource.InstanceOpen
}

// SlotForInstance maps a door object instance back to its slot.
func SlotForInstance(inst uint16) (Slot, bool) {
	switch inst {
	case resource.InstanceOpen:
		return SlotOpen, true
	case resource.InstanceClose:
		return SlotClose, true
	case resource.InstanceTrigger:
		return SlotTrigger, true
	}
	return 0, false
}

// CounterPath is where the slot's count is published.
func (s Slot) CounterPath() resource.Path {
	return resource.Path{Object: resource.ObjectDoor, Instance: s.Instance(), Resource: resource.ResourceCounter}
}

// DurationPath is where the slot's last duration is published.
// Only the open and close slots carry a duration.
func (s Slot) DurationPath() resource.Path {
	return resource.Path{Object: resource.ObjectDoor, Instance: s.Instance(), Resource: resource.ResourceDuration}
}

// Phase is the door's coarse motion state.
type Phase string

const (
	PhaseIdle   Phase = "IDLE"
	PhaseMoving Phase = "MOVING"
)

// Mark is an optional timestamp. The zero value is unset.
type Mark struct {
	at  time.Time
	set bool
}

// Set records t.
func (m *Mark) Set(t time.Time) {
	m.at = t
	m.set = true
}

// Clear unsets the mark.
func (m *Mark) Clear() {
	*m = Mark{}
}

// IsSet reports whether a time is recorded.
func (m Mark) IsSet() bool {
	return m.set
}

// Time returns the recorded time and whether one is set.
func (m Mark) Time() (time.Time, bool) {
	return m.at, m.set
}

// Counters holds the door's counts and last measured durations.
type Counters struct {
	Open      int64
	Close     int64
	Trigger   int64
	LastOpen  float64 // seconds
	LastClose float64 // seconds
}

// Count returns the counter for slot.
func (c Counters) Count(s Slot) int64 {
	switch s {
	case SlotOpen:
		return c.Open
	case SlotClose:
		return c.Close
	case SlotTrigger:
		return c.Trigger
	}
	return 0
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	Phase          Phase
	RelayEnergized bool
	OpenTiming     bool // an open interval is in progress
	CloseTiming    bool // a close interval is in progress
	DoorOpened     bool // last known level of the opened sensor
	DoorClosed     bool // last known level of the closed sensor
	Counters       Counters
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
}
