// Package gpio provides the opto sensor inputs and the relay output with
// hardware abstraction.
// The real implementations use the Linux GPIO character device (or, for the
// relay, memory-mapped registers). The fakes allow testing without hardware.
package gpio

import "github.com/sweeney/sesame-gateway/internal/logic"

// LevelReader reads the current logical level of a sensor channel.
type LevelReader interface {
	Level(ch logic.Channel) (bool, error)
}

// Sensors reports sensor levels and delivers edge notifications.
type Sensors interface {
	LevelReader

	// Edges returns the channel edge notifications are delivered on.
	// Delivery stops after Close; the channel itself is never closed.
	Edges() <-chan logic.Edge

	// Close releases GPIO resources.
	Close() error
}

// Relay drives the door relay output.
type Relay interface {
	// Set energizes (true) or releases (false) the relay.
	Set(on bool) error

	// Close releases the output, leaving the relay off.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinOpened = 22 // open-limit opto sensor
	DefaultPinClosed = 27 // close-limit opto sensor
	DefaultPinRelay  = 17 // door relay
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// edgeBuffer is the capacity of edge channels. Edges arrive at well under
// 10 Hz; the buffer only absorbs dispatch loop jitter.
const edgeBuffer = 16

// NopRelay discards output, for installations where the door is only
// observed.
type NopRelay struct{}

// Set implements Relay.
func (NopRelay) Set(bool) error { return nil }

// Close implements Relay.
func (NopRelay) Close() error { return nil }
