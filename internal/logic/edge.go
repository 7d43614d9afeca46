package logic

import (
	"fmt"
	"time"
)

// EdgeResult classifies what an edge did to its channel's interval.
type EdgeResult int

const (
	EdgeStarted   EdgeResult = iota // rising edge recorded an interval start
	EdgeCompleted                   // falling edge completed an interval
	EdgeSpurious                    // falling edge with no interval in progress
	EdgeBackwards                   // falling edge earlier than the recorded start
	EdgeInvalid                     // direction not understood
)

func (r EdgeResult) String() string {
	switch r {
	case EdgeStarted:
		return "started"
	case EdgeCompleted:
		return "completed"
	case EdgeSpurious:
		return "spurious"
	case EdgeBackwards:
		return "backwards"
	case EdgeInvalid:
		return "invalid"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// TimedSlot returns the interval a channel's edges measure. Each sensor
// straddles the opposite transition: the close-limit sensor times the door
// opening and the open-limit sensor times it closing.
func (c Channel) TimedSlot() Slot {
	if c == ChannelClosed {
		return SlotOpen
	}
	return SlotClose
}

// Interpreter turns one channel's edges into interval starts and completions.
// The start mark it works on is owned by the door state.
type Interpreter struct {
	channel Channel
	start   *Mark
}

// NewInterpreter creates an interpreter for ch that records starts in start.
func NewInterpreter(ch Channel, start *Mark) *Interpreter {
	return &Interpreter{channel: ch, start: start}
}

// Channel returns the channel this interpreter consumes.
func (in *Interpreter) Channel() Channel {
	return in.channel
}

// OnEdge applies one edge at now. For EdgeCompleted the measured duration
// in seconds is returned; it is zero otherwise.
func (in *Interpreter) OnEdge(dir Direction, now time.Time) (EdgeResult, float64) {
	switch dir {
	case DirectionRising:
		in.start.Set(now)
		return EdgeStarted, 0

	case DirectionFalling:
		begin, ok := in.start.Time()
		if !ok {
			return EdgeSpurious, 0
		}
		in.start.Clear()
		d := Elapsed(begin, now)
		if d < 0 {
			return EdgeBackwards, 0
		}
		return EdgeCompleted, d
	}
	return EdgeInvalid, 0
}
