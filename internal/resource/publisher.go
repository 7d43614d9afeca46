package resource

import "go.uber.org/multierr"

// Publisher pushes resource values to an external sink.
// Implementations must not block the caller for long; failures are reported,
// never retried inline.
type Publisher interface {
	Publish(path Path, value Value) error
}

// Multi fans a publish out to several sinks.
type Multi []Publisher

// Publish implements Publisher. Every sink is attempted; errors are combined.
func (m Multi) Publish(path Path, value Value) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(path, value))
	}
	return err
}
