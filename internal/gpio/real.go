//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"

	"github.com/sweeney/sesame-gateway/internal/logic"
)

// SensorConfig selects the sensor lines.
type SensorConfig struct {
	Chip      string
	PinOpened int
	PinClosed int
	ActiveLow bool          // opto outputs pull the line low when lit
	Debounce  time.Duration // kernel debounce, 0 disables
	Polled    bool          // request plain inputs without edge detection
}

// RealSensors watches both opto channels for edges using the Linux GPIO
// character device.
type RealSensors struct {
	opened *gpiocdev.Line
	closed *gpiocdev.Line
	edges  chan logic.Edge
	done   chan struct{}
	once   sync.Once
	now    func() time.Time
}

// NewRealSensors requests both sensor lines with edge detection on both
// transitions.
func NewRealSensors(cfg SensorConfig) (*RealSensors, error) {
	if cfg.Chip == "" {
		cfg.Chip = DefaultChip
	}
	s := &RealSensors{
		edges: make(chan logic.Edge, edgeBuffer),
		done:  make(chan struct{}),
		now:   time.Now,
	}

	var err error
	s.opened, err = gpiocdev.RequestLine(cfg.Chip, cfg.PinOpened, s.lineOptions(cfg, logic.ChannelOpened)...)
	if err != nil {
		return nil, fmt.Errorf("request opened pin %d: %w", cfg.PinOpened, err)
	}

	s.closed, err = gpiocdev.RequestLine(cfg.Chip, cfg.PinClosed, s.lineOptions(cfg, logic.ChannelClosed)...)
	if err != nil {
		s.opened.Close()
		return nil, fmt.Errorf("request closed pin %d: %w", cfg.PinClosed, err)
	}

	return s, nil
}

func (s *RealSensors) lineOptions(cfg SensorConfig, ch logic.Channel) []gpiocdev.LineReqOption {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	if cfg.Polled {
		return opts
	}
	opts = append(opts, gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(s.handler(ch)))
	if cfg.Debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(cfg.Debounce))
	}
	return opts
}

// handler converts line events into edges. It runs on the gpiocdev watcher
// goroutine and must not block past Close.
func (s *RealSensors) handler(ch logic.Channel) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		e := logic.Edge{Channel: ch, Time: s.now()}
		switch evt.Type {
		case gpiocdev.LineEventRisingEdge:
			e.Direction = logic.DirectionRising
		case gpiocdev.LineEventFallingEdge:
			e.Direction = logic.DirectionFalling
		}
		select {
		case s.edges <- e:
		case <-s.done:
		}
	}
}

// Level returns the logical level of ch.
func (s *RealSensors) Level(ch logic.Channel) (bool, error) {
	line := s.opened
	if ch == logic.ChannelClosed {
		line = s.closed
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read %s pin: %w", ch, err)
	}
	return v == 1, nil
}

// Edges implements Sensors.
func (s *RealSensors) Edges() <-chan logic.Edge {
	return s.edges
}

// Close releases GPIO resources.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing.
func (s *RealSensors) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		for _, l := range []struct {
			name string
			line *gpiocdev.Line
		}{{"opened", s.opened}, {"closed", s.closed}} {
			if l.line == nil {
				continue
			}
			if rerr := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); rerr != nil {
				err = multierr.Append(err, fmt.Errorf("reconfigure %s pin: %w", l.name, rerr))
			}
			if cerr := l.line.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("close %s pin: %w", l.name, cerr))
			}
		}
	})
	return err
}

// LineRelay drives the relay through a GPIO character device output line.
type LineRelay struct {
	line *gpiocdev.Line
}

// NewLineRelay requests pin as an output, initially off.
func NewLineRelay(chip string, pin int, activeLow bool) (*LineRelay, error) {
	if chip == "" {
		chip = DefaultChip
	}
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := gpiocdev.RequestLine(chip, pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
	}
	return &LineRelay{line: line}, nil
}

// Set implements Relay.
func (r *LineRelay) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.line.SetValue(v); err != nil {
		return fmt.Errorf("set relay: %w", err)
	}
	return nil
}

// Close switches the relay off, returns the pin to an input with pull-down
// and releases it.
func (r *LineRelay) Close() error {
	err := r.Set(false)
	if rerr := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); rerr != nil {
		err = multierr.Append(err, fmt.Errorf("reconfigure relay pin: %w", rerr))
	}
	if cerr := r.line.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close relay pin: %w", cerr))
	}
	return err
}
