package logic

import (
	"testing"
	"time"
)

func TestHeartbeatDisabled(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute} {
		h := NewHeartbeat(interval, t0)
		if hb := h.Check(t0.Add(15 * time.Minute)); hb != nil {
			t.Errorf("interval %v: expected no heartbeat", interval)
		}
	}
}

func TestHeartbeatBeforeInterval(t *testing.T) {
	h := NewHeartbeat(15*time.Minute, t0)
	if hb := h.Check(t0.Add(14 * time.Minute)); hb != nil {
		t.Error("should not return heartbeat before interval")
	}
}

func TestHeartbeatAtInterval(t *testing.T) {
	h := NewHeartbeat(15*time.Minute, t0)

	checkTime := t0.Add(15 * time.Minute)
	hb := h.Check(checkTime)
	if hb == nil {
		t.Fatal("should return heartbeat at interval")
	}
	if !hb.Timestamp.Equal(checkTime) {
		t.Errorf("expected timestamp %v, got %v", checkTime, hb.Timestamp)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
}

func TestHeartbeatUpdatesLastTime(t *testing.T) {
	h := NewHeartbeat(15*time.Minute, t0)

	t1 := t0.Add(15 * time.Minute)
	if h.Check(t1) == nil {
		t.Fatal("should return first heartbeat")
	}
	if h.Check(t1.Add(time.Second)) != nil {
		t.Error("should not return heartbeat immediately after previous")
	}
	hb := h.Check(t1.Add(15 * time.Minute))
	if hb == nil {
		t.Fatal("should return second heartbeat")
	}
	if hb.Uptime != 30*time.Minute {
		t.Errorf("uptime should count from start: got %v", hb.Uptime)
	}
}
