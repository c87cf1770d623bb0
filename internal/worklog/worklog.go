// Package worklog records actually-worked intervals against tasks, keyed by
// civil date. It is the append-only counterpart to a core.SlotMap: a
// SlotMap says what was planned, a WorkLog says what actually happened.
package worklog

import (
	"sort"
	"time"

	"github.com/emiller/scheduler/internal/core"
)

// Item is a single recorded work interval.
type Item struct {
	BeginAt  core.ClockTime
	Duration time.Duration
	TaskID   core.TaskID
}

// WorkLog accumulates Items by the civil date they were recorded on.
type WorkLog struct {
	dirty bool
	items map[time.Time][]Item
}

// New builds an empty WorkLog.
func New() *WorkLog {
	return &WorkLog{items: make(map[time.Time][]Item)}
}

// FromItems wraps a pre-existing date-keyed item map, e.g. as loaded from
// disk. The result starts clean (not dirty).
func FromItems(items map[time.Time][]Item) *WorkLog {
	if items == nil {
		items = make(map[time.Time][]Item)
	}
	return &WorkLog{items: items}
}

// AddItem appends a recorded interval to date and marks the log dirty.
func (w *WorkLog) AddItem(date time.Time, taskID core.TaskID, beginAt core.ClockTime, duration time.Duration) {
	date = civilDate(date)
	w.items[date] = append(w.items[date], Item{BeginAt: beginAt, Duration: duration, TaskID: taskID})
	w.dirty = true
}

// GetItems returns the items recorded on date, or nil if none.
func (w *WorkLog) GetItems(date time.Time) []Item {
	return w.items[civilDate(date)]
}

// TotalRecordedDuration sums every item's duration across all dates for
// the given task.
func (w *WorkLog) TotalRecordedDuration(taskID core.TaskID) time.Duration {
	var total time.Duration
	for _, items := range w.items {
		for _, item := range items {
			if item.TaskID == taskID {
				total += item.Duration
			}
		}
	}
	return total
}

// IsDirty reports whether AddItem has been called since construction (or
// since the caller last chose to treat the log as saved).
func (w *WorkLog) IsDirty() bool {
	return w.dirty
}

// MarkClean clears the dirty flag, e.g. after a successful save.
func (w *WorkLog) MarkClean() {
	w.dirty = false
}

// Items returns the full date-keyed item map, for serialization.
func (w *WorkLog) Items() map[time.Time][]Item {
	return w.items
}

// Dates returns every date holding at least one item, ascending.
func (w *WorkLog) Dates() []time.Time {
	out := make([]time.Time, 0, len(w.items))
	for d := range w.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
