//go:build linux

package gpio

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// VattuRelay drives the relay through memory-mapped GPIO registers. Useful
// on older kernels without the character device line API.
type VattuRelay struct {
	hw       govattu.Vattu
	pin      uint8
	openHigh bool // true = set pin high to energize
}

// NewVattuRelay configures pin as an output and leaves the relay off.
func NewVattuRelay(pin int, activeLow bool) (*VattuRelay, error) {
	if pin < 0 || pin > 53 {
		return nil, fmt.Errorf("relay pin %d out of range", pin)
	}
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	hw.PinMode(uint8(pin), govattu.ALToutput)

	r := &VattuRelay{hw: hw, pin: uint8(pin), openHigh: !activeLow}
	r.Set(false)
	return r, nil
}

// Set implements Relay.
func (r *VattuRelay) Set(on bool) error {
	if on == r.openHigh {
		r.hw.PinSet(r.pin)
	} else {
		r.hw.PinClear(r.pin)
	}
	return nil
}

// Close switches the relay off and unmaps the registers.
func (r *VattuRelay) Close() error {
	r.Set(false)
	return r.hw.Close()
}
