package logic

import (
	"testing"
	"time"
)

func TestTimedSlot(t *testing.T) {
	if ChannelClosed.TimedSlot() != SlotOpen {
		t.Errorf("closed channel should time the open interval")
	}
	if ChannelOpened.TimedSlot() != SlotClose {
		t.Errorf("opened channel should time the close interval")
	}
}

func TestInterpreterRisingThenFalling(t *testing.T) {
	var start Mark
	in := NewInterpreter(ChannelClosed, &start)

	res, d := in.OnEdge(DirectionRising, t0)
	if res != EdgeStarted || d != 0 {
		t.Fatalf("rising: got (%s, %v), want (started, 0)", res, d)
	}
	if at, ok := start.Time(); !ok || !at.Equal(t0) {
		t.Fatalf("start mark: got (%v, %v)", at, ok)
	}

	res, d = in.OnEdge(DirectionFalling, t0.Add(2500*time.Millisecond))
	if res != EdgeCompleted {
		t.Fatalf("falling: got %s, want completed", res)
	}
	if d != 2.5 {
		t.Errorf("duration: got %v, want 2.5", d)
	}
	if start.IsSet() {
		t.Error("start mark should be cleared after completion")
	}
}

func TestInterpreterFallingWithoutRising(t *testing.T) {
	var start Mark
	in := NewInterpreter(ChannelClosed, &start)

	res, _ := in.OnEdge(DirectionFalling, t0)
	if res != EdgeSpurious {
		t.Errorf("got %s, want spurious", res)
	}
	if start.IsSet() {
		t.Error("spurious edge must not set a start")
	}
}

func TestInterpreterDuplicateFalling(t *testing.T) {
	var start Mark
	in := NewInterpreter(ChannelOpened, &start)

	in.OnEdge(DirectionRising, t0)
	if res, _ := in.OnEdge(DirectionFalling, t0.Add(time.Second)); res != EdgeCompleted {
		t.Fatalf("first falling: got %s", res)
	}
	if res, _ := in.OnEdge(DirectionFalling, t0.Add(2*time.Second)); res != EdgeSpurious {
		t.Errorf("second falling: got %s, want spurious", res)
	}
}

func TestInterpreterRepeatedRisingRestarts(t *testing.T) {
	var start Mark
	in := NewInterpreter(ChannelClosed, &start)

	in.OnEdge(DirectionRising, t0)
	in.OnEdge(DirectionRising, t0.Add(time.Second))
	_, d := in.OnEdge(DirectionFalling, t0.Add(3*time.Second))
	if d != 2 {
		t.Errorf("duration should run from the latest rising edge: got %v, want 2", d)
	}
}

func TestInterpreterBackwardsClock(t *testing.T) {
	var start Mark
	in := NewInterpreter(ChannelClosed, &start)

	in.OnEdge(DirectionRising, t0.Add(time.Minute))
	res, d := in.OnEdge(DirectionFalling, t0)
	if res != EdgeBackwards || d != 0 {
		t.Errorf("got (%s, %v), want (backwards, 0)", res, d)
	}
	if start.IsSet() {
		t.Error("start should be dropped after a backwards completion")
	}
}

func TestInterpreterInvalidDirection(t *testing.T) {
	var start Mark
	start.Set(t0)
	in := NewInterpreter(ChannelClosed, &start)

	for _, dir := range []Direction{0, 3, -1} {
		res, _ := in.OnEdge(dir, t0.Add(time.Second))
		if res != EdgeInvalid {
			t.Errorf("direction %v: got %s, want invalid", dir, res)
		}
	}
	if at, ok := start.Time(); !ok || !at.Equal(t0) {
		t.Error("invalid edge must not touch the start mark")
	}
}

func TestMarkZeroValueIsUnset(t *testing.T) {
	var m Mark
	if m.IsSet() {
		t.Error("zero Mark should be unset")
	}
	// An epoch timestamp is still a legitimate capture.
	m.Set(time.Unix(0, 0))
	if !m.IsSet() {
		t.Error("Mark set to the epoch should be set")
	}
	m.Clear()
	if m.IsSet() {
		t.Error("cleared Mark should be unset")
	}
}

func TestInterpreterChannel(t *testing.T) {
	var m Mark
	in := NewInterpreter(ChannelClosed, &m)
	if in.Channel() != ChannelClosed {
		t.Errorf("got %s, want closed", in.Channel())
	}
	if in.Channel().TimedSlot() != SlotOpen {
		t.Errorf("closed channel should time the open slot")
	}
}
