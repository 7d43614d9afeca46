//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/sesame-gateway/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// SensorConfig selects the sensor lines.
type SensorConfig struct {
	Chip      string
	PinOpened int
	PinClosed int
	ActiveLow bool
	Debounce  time.Duration
	Polled    bool
}

// RealSensors is not available on non-Linux platforms.
type RealSensors struct{}

// NewRealSensors returns an error on non-Linux platforms.
func NewRealSensors(cfg SensorConfig) (*RealSensors, error) {
	return nil, errUnsupported
}

// Level is not implemented on non-Linux platforms.
func (s *RealSensors) Level(ch logic.Channel) (bool, error) {
	return false, errUnsupported
}

// Edges returns nil on non-Linux platforms.
func (s *RealSensors) Edges() <-chan logic.Edge {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (s *RealSensors) Close() error {
	return nil
}

// LineRelay is not available on non-Linux platforms.
type LineRelay struct{}

// NewLineRelay returns an error on non-Linux platforms.
func NewLineRelay(chip string, pin int, activeLow bool) (*LineRelay, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (r *LineRelay) Set(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *LineRelay) Close() error {
	return nil
}

// VattuRelay is not available on non-Linux platforms.
type VattuRelay struct{}

// NewVattuRelay returns an error on non-Linux platforms.
func NewVattuRelay(pin int, activeLow bool) (*VattuRelay, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (r *VattuRelay) Set(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *VattuRelay) Close() error {
	return nil
}
