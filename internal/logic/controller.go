package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

// DoorState is the door session's mutable state.
type DoorState struct {
	Relay      *Relay
	OpenStart  Mark // open interval in progress since
	CloseStart Mark // close interval in progress since
	Phase      Phase
}

// Result carries the outward effects of one controller operation.
type Result struct {
	// Relay is non-nil when the physical relay output must be driven.
	Relay *bool
	// Updates are resource values to publish, in order.
	Updates []resource.Update
	// Edge and Duration describe what OnEdge did.
	Edge     EdgeResult
	Slot     Slot
	Duration float64
}

// Controller is the door session controller. It owns the door state and
// the counter store and routes edges to the per-channel interpreters.
// It is not safe for concurrent use; callers serialize access.
type Controller struct {
	state    DoorState
	store    Store
	opened   *Interpreter
	closed   *Interpreter
	readings [2]bool
}

// NewController creates a controller with zeroed counters, an idle door and
// a relay with the given idle timeout.
func NewController(idleTimeout time.Duration) *Controller {
	c := &Controller{
		state: DoorState{
			Relay: NewRelay(idleTimeout),
			Phase: PhaseIdle,
		},
	}
	c.opened = NewInterpreter(ChannelOpened, &c.state.CloseStart)
	c.closed = NewInterpreter(ChannelClosed, &c.state.OpenStart)
	return c
}

// OnEdge applies an edge notification.
func (c *Controller) OnEdge(e Edge) Result {
	var in *Interpreter
	switch e.Channel {
	case ChannelOpened:
		in = c.opened
	case ChannelClosed:
		in = c.closed
	default:
		return Result{Edge: EdgeInvalid}
	}

	slot := in.Channel().TimedSlot()
	res, d := in.OnEdge(e.Direction, e.Time)
	r := Result{Edge: res, Slot: slot}
	if res != EdgeCompleted {
		return r
	}

	r.Duration = d
	if slot == SlotOpen {
		r.Updates = c.store.RecordOpenCompletion(d)
	} else {
		r.Updates = c.store.RecordCloseCompletion(d)
	}
	c.state.Phase = PhaseIdle
	return r
}

// Observe records the current level of a channel and returns the reading
// update to publish.
func (c *Controller) Observe(ch Channel, level bool) Result {
	if ch != ChannelOpened && ch != ChannelClosed {
		return Result{}
	}
	c.readings[ch] = level
	return Result{Updates: []resource.Update{
		{Path: ch.ReadingPath(), Value: resource.Boolean(level)},
	}}
}

// OnTrigger starts a door movement: in-flight interval starts are dropped,
// the relay is (re)energized and the trigger counter advances.
func (c *Controller) OnTrigger(now time.Time) Result {
	c.state.OpenStart.Clear()
	c.state.CloseStart.Clear()
	c.state.Relay.Activate(now)
	c.state.Phase = PhaseMoving

	on := true
	return Result{
		Relay:   &on,
		Updates: c.store.RecordTrigger(),
	}
}

// OnCounterReset zeroes one counter.
func (c *Controller) OnCounterReset(slot Slot) (Result, error) {
	if !slot.valid() {
		return Result{}, fmt.Errorf("unknown counter slot %v", slot)
	}
	updates, err := c.store.ResetSlot(slot)
	if err != nil {
		return Result{}, err
	}
	return Result{Updates: updates}, nil
}

// Tick runs the relay idle check. When the relay is forced off while the
// door was moving, the move is abandoned without counting anything.
func (c *Controller) Tick(now time.Time) Result {
	if !c.state.Relay.Tick(now) {
		return Result{}
	}
	c.state.Phase = PhaseIdle
	off := false
	return Result{Relay: &off}
}

// ReleaseRelay de-energizes the relay immediately, as on shutdown.
// Relay is set in the result only if the relay was on.
func (c *Controller) ReleaseRelay() Result {
	if !c.state.Relay.Energized() {
		return Result{}
	}
	c.state.Relay.Deactivate()
	c.state.Phase = PhaseIdle
	off := false
	return Result{Relay: &off}
}

// InitialUpdates returns the counter and duration values to seed the
// resource tree with.
func (c *Controller) InitialUpdates() []resource.Update {
	return c.store.All()
}

// Snapshot returns a copy of the engine state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Phase:          c.state.Phase,
		RelayEnergized: c.state.Relay.Energized(),
		OpenTiming:     c.state.OpenStart.IsSet(),
		CloseTiming:    c.state.CloseStart.IsSet(),
		DoorOpened:     c.readings[ChannelOpened],
		DoorClosed:     c.readings[ChannelClosed],
		Counters:       c.store.Counters(),
	}
}
