package logic

import (
	"fmt"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

// Store holds the counters and durations. Every mutation returns the
// resource updates that make the new values visible outward.
type Store struct {
	c Counters
}

// RecordOpenCompletion counts a completed open interval of d seconds.
func (s *Store) RecordOpenCompletion(d float64) []resource.Update {
	s.c.Open++
	s.c.LastOpen = d
	return []resource.Update{
		{Path: SlotOpen.CounterPath(), Value: resource.Integer(s.c.Open)},
		{Path: SlotOpen.DurationPath(), Value: resource.Float(s.c.LastOpen)},
	}
}

// RecordCloseCompletion counts a completed close interval of d seconds.
func (s *Store) RecordCloseCompletion(d float64) []resource.Update {
	s.c.Close++
	s.c.LastClose = d
	return []resource.Update{
		{Path: SlotClose.CounterPath(), Value: resource.Integer(s.c.Close)},
		{Path: SlotClose.DurationPath(), Value: resource.Float(s.c.LastClose)},
	}
}

// RecordTrigger counts an accepted trigger command.
func (s *Store) RecordTrigger() []resource.Update {
	s.c.Trigger++
	return []resource.Update{
		{Path: SlotTrigger.CounterPath(), Value: resource.Integer(s.c.Trigger)},
	}
}

// ResetSlot zeroes one counter. Durations are left alone.
func (s *Store) ResetSlot(slot Slot) ([]resource.Update, error) {
	switch slot {
	case SlotOpen:
		s.c.Open = 0
	case SlotClose:
		s.c.Close = 0
	case SlotTrigger:
		s.c.Trigger = 0
	default:
		return nil, fmt.Errorf("reset: unknown counter slot %v", slot)
	}
	return []resource.Update{
		{Path: slot.CounterPath(), Value: resource.Integer(0)},
	}, nil
}

// Counters returns a copy of the current values.
func (s *Store) Counters() Counters {
	return s.c
}

// All returns updates for every counter and duration, used to seed the
// resource tree at startup.
func (s *Store) All() []resource.Update {
	return []resource.Update{
		{Path: SlotOpen.CounterPath(), Value: resource.Integer(s.c.Open)},
		{Path: SlotOpen.DurationPath(), Value: resource.Float(s.c.LastOpen)},
		{Path: SlotClose.CounterPath(), Value: resource.Integer(s.c.Close)},
		{Path: SlotClose.DurationPath(), Value: resource.Float(s.c.LastClose)},
		{Path: SlotTrigger.CounterPath(), Value: resource.Integer(s.c.Trigger)},
	}
}
