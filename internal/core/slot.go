package core

import "time"

// SlotMap records, per civil date and per task, how much time has been
// allocated to that task on that date. It is the output of a scheduling
// run: a calendar-shaped ledger of planned work.
type SlotMap struct {
	slots map[time.Time]map[TaskID]time.Duration
}

// NewSlotMap builds an empty SlotMap.
func NewSlotMap() *SlotMap {
	return &SlotMap{slots: make(map[time.Time]map[TaskID]time.Duration)}
}

// Add accumulates d onto date's allocation for task.
func (s *SlotMap) Add(date time.Time, task TaskID, d time.Duration) {
	date = civilDate(date)
	day, ok := s.slots[date]
	if !ok {
		day = make(map[TaskID]time.Duration)
		s.slots[date] = day
	}
	day[task] += d
}

// Consume subtracts d from date's allocation for task, removing the entry
// entirely once it reaches zero or below. Consuming more than is present
// clamps at removal rather than going negative.
func (s *SlotMap) Consume(date time.Time, task TaskID, d time.Duration) {
	date = civilDate(date)
	day, ok := s.slots[date]
	if !ok {
		return
	}
	remaining := day[task] - d
	if remaining <= 0 {
		delete(day, task)
		if len(day) == 0 {
			delete(s.slots, date)
		}
		return
	}
	day[task] = remaining
}

// RemainingAt returns the allocation for task on date, or zero if none.
func (s *SlotMap) RemainingAt(date time.Time, task TaskID) time.Duration {
	day, ok := s.slots[civilDate(date)]
	if !ok {
		return 0
	}
	return day[task]
}

// Get returns the full per-task allocation map for date, or nil.
func (s *SlotMap) Get(date time.Time) map[TaskID]time.Duration {
	return s.slots[civilDate(date)]
}

// Dates returns every civil date holding at least one allocation, ascending.
func (s *SlotMap) Dates() []time.Time {
	out := make([]time.Time, 0, len(s.slots))
	for d := range s.slots {
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Before(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// TotalFor returns the sum of every date's allocation to task.
func (s *SlotMap) TotalFor(task TaskID) time.Duration {
	var total time.Duration
	for _, day := range s.slots {
		total += day[task]
	}
	return total
}
