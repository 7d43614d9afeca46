package logic

import (
	"testing"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

func TestStoreResetKeepsDuration(t *testing.T) {
	var s Store
	s.RecordOpenCompletion(4.25)
	s.RecordOpenCompletion(5.5)

	updates, err := s.ResetSlot(SlotOpen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Path != SlotOpen.CounterPath() || updates[0].Value != resource.Integer(0) {
		t.Errorf("unexpected update: %+v", updates[0])
	}

	c := s.Counters()
	if c.Open != 0 {
		t.Errorf("Open: got %d, want 0", c.Open)
	}
	if c.LastOpen != 5.5 {
		t.Errorf("LastOpen: got %v, want 5.5", c.LastOpen)
	}
}

func TestStoreCompletionUpdates(t *testing.T) {
	var s Store
	updates := s.RecordCloseCompletion(12.5)

	want := []resource.Update{
		{Path: SlotClose.CounterPath(), Value: resource.Integer(1)},
		{Path: SlotClose.DurationPath(), Value: resource.Float(12.5)},
	}
	if len(updates) != len(want) {
		t.Fatalf("expected %d updates, got %d", len(want), len(updates))
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("update %d: got %+v, want %+v", i, updates[i], want[i])
		}
	}
}

func TestStoreAllReflectsCounters(t *testing.T) {
	var s Store
	s.RecordTrigger()
	s.RecordTrigger()
	s.RecordCloseCompletion(1)

	all := s.All()
	if len(all) != 5 {
		t.Fatalf("expected 5 updates, got %d", len(all))
	}
	got := map[resource.Path]resource.Value{}
	for _, u := range all {
		got[u.Path] = u.Value
	}
	if got[SlotTrigger.CounterPath()] != resource.Integer(2) {
		t.Errorf("trigger: got %v", got[SlotTrigger.CounterPath()])
	}
	if got[SlotClose.CounterPath()] != resource.Integer(1) {
		t.Errorf("close: got %v", got[SlotClose.CounterPath()])
	}
	if got[SlotOpen.CounterPath()] != resource.Integer(0) {
		t.Errorf("open: got %v", got[SlotOpen.CounterPath()])
	}
}
