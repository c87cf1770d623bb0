// Package session owns the mutable engine state for a single run: the
// calendar, the scheduler, the task set, the latest computed slot
// allocation, the work log and the currently-active task, if any.
package session

import (
	"fmt"
	"time"

	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/worklog"
)

// DefaultWorkTick, DefaultBufferTime, DefaultWorkStart and DefaultWorkEnd
// mirror the scheduler defaults a fresh Session is built with.
var (
	DefaultWorkTick   = 25 * time.Minute
	DefaultBufferTime = 5 * time.Minute
	DefaultWorkStart  = core.NewClockTime(8, 45)
	DefaultWorkEnd    = core.NewClockTime(19, 0)
)

// activeTask tracks which task is currently being worked on, and when that
// stint began.
type activeTask struct {
	id      core.TaskID
	startAt time.Time
}

// Session is the mutable state a CLI or TUI front-end drives.
type Session struct {
	Calendar *core.Calendar
	Scheduler core.Scheduler
	Tasks    map[core.TaskID]*core.Task
	Slots    *core.SlotMap
	Log      *worklog.WorkLog

	active      *activeTask
	DirtyTasks  bool
}

// New builds a Session with the default scheduler parameters, wrapping an
// already-loaded calendar, task set and work log.
func New(calendar *core.Calendar, tasks map[core.TaskID]*core.Task, log *worklog.WorkLog) *Session {
	if tasks == nil {
		tasks = make(map[core.TaskID]*core.Task)
	}
	return &Session{
		Calendar: calendar,
		Scheduler: core.Scheduler{
			WorkTick:   DefaultWorkTick,
			BufferTime: DefaultBufferTime,
			WorkStart:  DefaultWorkStart,
			WorkEnd:    DefaultWorkEnd,
		},
		Tasks: tasks,
		Slots: core.NewSlotMap(),
		Log:   log,
	}
}

// AddTask inserts task, failing if its ID already exists.
func (s *Session) AddTask(task *core.Task) (*core.Task, error) {
	if _, exists := s.Tasks[task.ID]; exists {
		return nil, fmt.Errorf("add task: %w", &core.StateError{Reason: fmt.Sprintf("task %s already exists", task.ID)})
	}
	s.Tasks[task.ID] = task
	s.DirtyTasks = true
	return task, nil
}

// IterTasks returns every task, in no particular order.
func (s *Session) IterTasks() []*core.Task {
	out := make([]*core.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		out = append(out, t)
	}
	return out
}

// FindTaskByPrefix resolves a short ID prefix to a TaskID, succeeding only
// when the prefix matches exactly one task.
func (s *Session) FindTaskByPrefix(prefix string) (core.TaskID, bool) {
	var found core.TaskID
	matches := 0
	for id := range s.Tasks {
		if id.HasPrefix(prefix) {
			found = id
			matches++
		}
	}
	if matches != 1 {
		return core.TaskID{}, false
	}
	return found, true
}

func (s *Session) mustGet(id core.TaskID) (*core.Task, error) {
	task, ok := s.Tasks[id]
	if !ok {
		return nil, &core.NotFoundError{ID: id}
	}
	return task, nil
}

// DropTask transitions a task to Dropped, returning its title.
func (s *Session) DropTask(id core.TaskID) (string, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return "", err
	}
	task.Drop()
	s.DirtyTasks = true
	return task.Title, nil
}

// SetDeadline overwrites a task's deadline.
func (s *Session) SetDeadline(id core.TaskID, deadline core.Deadline) (*core.Task, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	task.Deadline = deadline
	s.DirtyTasks = true
	return task, nil
}

// EstimateTask applies a new estimate to a task via Task.UpdateRemaining.
func (s *Session) EstimateTask(id core.TaskID, estimate core.Estimate) (*core.Task, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if err := task.UpdateRemaining(estimate); err != nil {
		return nil, err
	}
	s.DirtyTasks = true
	return task, nil
}

// UpdateProgressTask sets or clears a task's progress override.
func (s *Session) UpdateProgressTask(id core.TaskID, progress *core.Progress) (*core.Task, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	task.SetProgressOverride(progress)
	s.DirtyTasks = true
	return task, nil
}

// Schedule recomputes Slots from the current task set and calendar.
func (s *Session) Schedule(now time.Time) error {
	slots, err := s.Scheduler.Schedule(now, s.Tasks, s.Calendar)
	if err != nil {
		return err
	}
	s.Slots = slots
	return nil
}

// StartTaskAt marks task as active as of startAt, returning the task and
// the duration to work before the next natural checkpoint: whatever is
// left in the current slot allocation, capped at one work tick.
func (s *Session) StartTaskAt(id core.TaskID, startAt time.Time) (*core.Task, time.Duration, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, 0, err
	}
	s.active = &activeTask{id: id, startAt: startAt}
	s.DirtyTasks = true

	remaining := s.Slots.RemainingAt(startAt, id)
	if remaining == 0 {
		remaining = task.Remaining()
	}
	if remaining > s.Scheduler.WorkTick {
		remaining = s.Scheduler.WorkTick
	}
	return task, remaining, nil
}

// CompleteTask records an optional final duration and transitions task to
// Completed.
func (s *Session) CompleteTask(id core.TaskID, completedAt time.Time, duration *time.Duration) (*core.Task, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if duration != nil {
		task.Record(*duration)
	}
	task.Complete(completedAt)
	s.active = nil
	s.DirtyTasks = true
	return task, nil
}

// StopCurrentTask ends the active stint according to kind, optionally also
// completing the task. Fails if no task is active.
func (s *Session) StopCurrentTask(kind StopKind, complete bool) (*core.Task, error) {
	if s.active == nil {
		return nil, fmt.Errorf("stop current task: %w", &core.StateError{Reason: "no active task to stop"})
	}
	id, startAt := s.active.id, s.active.startAt
	task, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	switch kind.Kind {
	case StopImmediately:
		if complete {
			task.Complete(kind.At)
		}
	case StopEndsAt:
		if !sameCivilDate(startAt, kind.At) {
			return nil, fmt.Errorf("stop current task: %w", &core.StateError{Reason: "cannot stop a task at a different date"})
		}
		if kind.At.Before(startAt) {
			return nil, fmt.Errorf("stop current task: %w", &core.StateError{Reason: "end time must be after start time"})
		}
		duration := kind.At.Sub(startAt)
		s.Log.AddItem(startAt, id, clockTimeOf(startAt), duration)
		s.Slots.Consume(startAt, id, duration)
		task.Record(duration)
		if complete {
			task.Complete(kind.At)
		}
	case StopEndsIn:
		endAt := startAt.Add(kind.Duration)
		s.Log.AddItem(startAt, id, clockTimeOf(startAt), kind.Duration)
		s.Slots.Consume(startAt, id, kind.Duration)
		task.Record(kind.Duration)
		if complete {
			task.Complete(endAt)
		}
	}

	s.active = nil
	s.DirtyTasks = true
	return task, nil
}

// RecordTask adds duration directly to a task's accumulated actual time,
// without going through the active-task workflow.
func (s *Session) RecordTask(id core.TaskID, duration time.Duration) (*core.Task, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	task.Record(duration)
	s.DirtyTasks = true
	return task, nil
}

// BlockTaskByTasks blocks task on the given dependency IDs, returning the
// task and whichever dependencies are themselves known.
func (s *Session) BlockTaskByTasks(id core.TaskID, dependencies []core.TaskID) (*core.Task, []*core.Task, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, nil, err
	}
	task.BlockByTask(dependencies)
	s.DirtyTasks = true

	known := make([]*core.Task, 0, len(dependencies))
	for _, depID := range dependencies {
		if dep, ok := s.Tasks[depID]; ok {
			known = append(known, dep)
		}
	}
	return task, known, nil
}

// BlockTaskByExternal blocks task on a non-task condition.
func (s *Session) BlockTaskByExternal(id core.TaskID, now time.Time, until core.Deadline, note string) (*core.Task, error) {
	task, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	task.BlockByExternal(core.ExternalBlockingReason{Note: note, MayUnblockAt: until, LastUpdated: now})
	s.DirtyTasks = true
	return task, nil
}

func sameCivilDate(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

func clockTimeOf(t time.Time) core.ClockTime {
	return core.NewClockTime(t.Hour(), t.Minute())
}
