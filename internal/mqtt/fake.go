package mqtt

import (
	"sync"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

// FakeClient records resource tree traffic for test assertions.
type FakeClient struct {
	mu sync.Mutex

	// Values holds the last value published per path.
	Values map[resource.Path]resource.Value

	// Updates contains every published value, in order.
	Updates []resource.Update

	// Definitions contains the registered objects.
	Definitions []resource.ObjectDefinition

	// Subscribed holds the paths currently subscribed to.
	Subscribed map[resource.Path]bool

	// Cleared contains every path passed to Clear.
	Cleared []resource.Path

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// RegisterError, if set, will be returned by Register.
	RegisterError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	handler ExecuteHandler
}

// NewFakeClient creates a connected FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Values:     make(map[resource.Path]resource.Value),
		Subscribed: make(map[resource.Path]bool),
		Connected:  true,
	}
}

// Register records the definitions.
func (f *FakeClient) Register(defs []resource.ObjectDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RegisterError != nil {
		return f.RegisterError
	}
	f.Definitions = append(f.Definitions, defs...)
	return nil
}

// Publish records the value.
func (f *FakeClient) Publish(path resource.Path, value resource.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Values[path] = value
	f.Updates = append(f.Updates, resource.Update{Path: path, Value: value})
	return nil
}

// PublishSystem records the system event.
func (f *FakeClient) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// Subscribe records the paths and handler.
func (f *FakeClient) Subscribe(paths []resource.Path, handler ExecuteHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	for _, p := range paths {
		f.Subscribed[p] = true
	}
	return nil
}

// Unsubscribe forgets the paths.
func (f *FakeClient) Unsubscribe(paths []resource.Path) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		delete(f.Subscribed, p)
	}
	return nil
}

// Clear drops the recorded values of paths.
func (f *FakeClient) Clear(paths []resource.Path) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		delete(f.Values, p)
		f.Cleared = append(f.Cleared, p)
	}
	return nil
}

// Execute simulates an inbound execute command. It reports false if the
// path is not subscribed.
func (f *FakeClient) Execute(path resource.Path) bool {
	f.mu.Lock()
	handler := f.handler
	ok := f.Subscribed[path]
	f.mu.Unlock()
	if !ok || handler == nil {
		return false
	}
	handler(path)
	return true
}

// Value returns the last value published to path.
func (f *FakeClient) Value(path resource.Path) (resource.Value, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Values[path]
	return v, ok
}

// Events returns the system events published so far.
func (f *FakeClient) Events() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.SystemEvents...)
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	f.Connected = false
	return nil
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded traffic.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Values = make(map[resource.Path]resource.Value)
	f.Updates = nil
	f.Definitions = nil
	f.Cleared = nil
	f.SystemEvents = nil
	f.PublishError = nil
	f.PublishSystemError = nil
	f.RegisterError = nil
}

var _ Tree = (*FakeClient)(nil)
var _ Tree = (*RealClient)(nil)
