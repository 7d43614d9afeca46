// Package gateway binds the door controller to its hardware and the resource
// tree. Every operation runs under one mutex, applies the controller's
// result to the relay output, and publishes the resulting values.
package gateway

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sweeney/sesame-gateway/internal/gpio"
	"github.com/sweeney/sesame-gateway/internal/logic"
	"github.com/sweeney/sesame-gateway/internal/resource"
	"github.com/sweeney/sesame-gateway/internal/status"
)

// ErrUnknownPath is returned by Execute for paths that are not execute
// resources.
var ErrUnknownPath = errors.New("unknown execute path")

// Options tunes a Gateway.
type Options struct {
	IdleTimeout time.Duration    // relay idle window, default 3s
	Tracker     *status.Tracker  // optional, updated after every operation
	Now         func() time.Time // default time.Now
}

// Gateway owns the door session.
type Gateway struct {
	mu      sync.Mutex
	ctrl    *logic.Controller
	sensors gpio.LevelReader
	relay   gpio.Relay
	pub     resource.Publisher
	tracker *status.Tracker
	log     *zap.Logger
	now     func() time.Time
}

// New creates a gateway around a fresh controller.
func New(sensors gpio.LevelReader, relay gpio.Relay, pub resource.Publisher, log *zap.Logger, opts Options) *Gateway {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gateway{
		ctrl:    logic.NewController(opts.IdleTimeout),
		sensors: sensors,
		relay:   relay,
		pub:     pub,
		tracker: opts.Tracker,
		log:     log.With(zap.String("component", "gateway")),
		now:     opts.Now,
	}
}

// Start publishes the initial counters and durations and both channel
// readings. A channel that cannot be read is reported and left unpublished.
func (g *Gateway) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.publish(g.ctrl.InitialUpdates())

	var err error
	for _, ch := range []logic.Channel{logic.ChannelOpened, logic.ChannelClosed} {
		if rerr := g.observe(ch); rerr != nil {
			err = multierr.Append(err, rerr)
		}
	}
	g.updateTracker()
	return err
}

// HandleEdge applies an edge notification, then re-reads and republishes
// the channel's level.
func (g *Gateway) HandleEdge(e logic.Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = g.now()
	}
	r := g.ctrl.OnEdge(e)
	fields := []zap.Field{
		zap.Stringer("channel", e.Channel),
		zap.Stringer("direction", e.Direction),
	}

	switch r.Edge {
	case logic.EdgeStarted:
		g.log.Debug("interval started", append(fields, zap.Stringer("slot", r.Slot))...)
	case logic.EdgeCompleted:
		g.log.Info("interval completed", append(fields,
			zap.Stringer("slot", r.Slot),
			zap.Float64("seconds", r.Duration))...)
	case logic.EdgeSpurious:
		g.log.Info("falling edge without start, ignored", fields...)
	case logic.EdgeBackwards:
		g.log.Warn("interval ended before it started, discarded", fields...)
	case logic.EdgeInvalid:
		g.log.Error("invalid edge", fields...)
	}
	g.apply(r)

	if e.Channel == logic.ChannelOpened || e.Channel == logic.ChannelClosed {
		if err := g.observe(e.Channel); err != nil {
			g.log.Error("level read failed", zap.Error(err))
		}
	}
	g.updateTracker()
}

// Trigger energizes the relay and starts a door movement.
func (g *Gateway) Trigger() {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.ctrl.OnTrigger(g.now())
	g.log.Info("door triggered", zap.Int64("count", g.ctrl.Snapshot().Counters.Trigger))
	g.apply(r)
	g.updateTracker()
}

// ResetCounter zeroes the counter of slot.
func (g *Gateway) ResetCounter(slot logic.Slot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, err := g.ctrl.OnCounterReset(slot)
	if err != nil {
		return err
	}
	g.log.Info("counter reset", zap.Stringer("slot", slot))
	g.apply(r)
	g.updateTracker()
	return nil
}

// Execute dispatches an execute command received on the resource tree.
func (g *Gateway) Execute(path resource.Path) error {
	if path == resource.TriggerPath {
		g.Trigger()
		return nil
	}
	if path.Object == resource.ObjectDoor && path.Resource == resource.ResourceCounterReset {
		if slot, ok := logic.SlotForInstance(path.Instance); ok {
			return g.ResetCounter(slot)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPath, path)
}

// Tick runs the relay idle check.
func (g *Gateway) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.ctrl.Tick(g.now())
	if r.Relay == nil {
		return
	}
	g.log.Info("relay idle timeout, switched off")
	g.apply(r)
	g.updateTracker()
}

// Shutdown switches the relay off if it is energized.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.ctrl.ReleaseRelay()
	if r.Relay != nil {
		g.log.Info("relay released")
	}
	g.apply(r)
	g.updateTracker()
}

// Snapshot returns a copy of the door state.
func (g *Gateway) Snapshot() logic.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.Snapshot()
}

func (g *Gateway) observe(ch logic.Channel) error {
	level, err := g.sensors.Level(ch)
	if err != nil {
		return fmt.Errorf("read %s sensor: %w", ch, err)
	}
	g.apply(g.ctrl.Observe(ch, level))
	return nil
}

func (g *Gateway) apply(r logic.Result) {
	if r.Relay != nil {
		if err := g.relay.Set(*r.Relay); err != nil {
			g.log.Error("relay output failed", zap.Bool("on", *r.Relay), zap.Error(err))
		}
	}
	g.publish(r.Updates)
}

func (g *Gateway) publish(updates []resource.Update) {
	for _, u := range updates {
		if err := g.pub.Publish(u.Path, u.Value); err != nil {
			g.log.Error("publish failed", zap.Stringer("path", u.Path), zap.Error(err))
		}
	}
}

func (g *Gateway) updateTracker() {
	if g.tracker != nil {
		g.tracker.Update(g.ctrl.Snapshot())
	}
}
