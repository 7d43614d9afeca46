package gpio

import (
	"sync"

	"github.com/sweeney/sesame-gateway/internal/logic"
)

// FakeSensors is a test double with settable levels and injectable edges.
type FakeSensors struct {
	mu     sync.Mutex
	levels [2]bool
	edges  chan logic.Edge
	reads  int
	closed bool

	// LevelError, if set, will be returned by Level().
	LevelError error
}

// NewFakeSensors creates FakeSensors with the given initial levels.
func NewFakeSensors(opened, closed bool) *FakeSensors {
	f := &FakeSensors{edges: make(chan logic.Edge, edgeBuffer)}
	f.levels[logic.ChannelOpened] = opened
	f.levels[logic.ChannelClosed] = closed
	return f
}

// SetLevel changes a channel's level without emitting an edge.
func (f *FakeSensors) SetLevel(ch logic.Channel, v bool) {
	f.mu.Lock()
	f.levels[ch] = v
	f.mu.Unlock()
}

// Emit moves the channel's level to match the edge direction and delivers
// the edge.
func (f *FakeSensors) Emit(e logic.Edge) {
	f.mu.Lock()
	switch e.Direction {
	case logic.DirectionRising:
		f.levels[e.Channel] = true
	case logic.DirectionFalling:
		f.levels[e.Channel] = false
	}
	f.mu.Unlock()
	f.edges <- e
}

// Level returns the scripted level.
func (f *FakeSensors) Level(ch logic.Channel) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.LevelError != nil {
		return false, f.LevelError
	}
	return f.levels[ch], nil
}

// Reads returns how many times Level was called.
func (f *FakeSensors) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Edges implements Sensors.
func (f *FakeSensors) Edges() <-chan logic.Edge {
	return f.edges
}

// Close marks the sensors as closed.
func (f *FakeSensors) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeSensors) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeRelay records relay output calls.
type FakeRelay struct {
	mu     sync.Mutex
	on     bool
	calls  []bool
	closed bool

	// SetError, if set, will be returned by Set(). The state is not changed.
	SetError error
}

// NewFakeRelay creates a FakeRelay in the off state.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// Set records the call and, unless SetError is set, the new state.
func (f *FakeRelay) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, on)
	if f.SetError != nil {
		return f.SetError
	}
	f.on = on
	return nil
}

// On reports the current output state.
func (f *FakeRelay) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Calls returns a copy of every value passed to Set, in order.
func (f *FakeRelay) Calls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.calls...)
}

// Close switches the output off and marks the relay as closed.
func (f *FakeRelay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = false
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeRelay) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
