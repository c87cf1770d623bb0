package session

import (
	"testing"
	"time"

	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/worklog"
)

func newSession() *Session {
	cal := core.NewCalendar(core.NewClockTime(9, 0), core.NewClockTime(17, 0))
	return New(cal, nil, worklog.New())
}

func TestAddTaskRejectsDuplicate(t *testing.T) {
	s := newSession()
	task := core.NewTask("write report", core.NoDeadline(), "")
	if _, err := s.AddTask(task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := s.AddTask(task); err == nil {
		t.Error("expected an error adding the same task twice")
	}
}

func TestFindTaskByPrefixRequiresUniqueMatch(t *testing.T) {
	s := newSession()
	task := core.NewTask("write report", core.NoDeadline(), "")
	s.AddTask(task)

	full := task.ID.FullString()
	if _, ok := s.FindTaskByPrefix(full[:4]); !ok {
		t.Error("expected a unique prefix match")
	}
	if _, ok := s.FindTaskByPrefix("zzzzzzzz"); ok {
		t.Error("expected no match for an unrelated prefix")
	}
}

func TestStartAndStopTaskRecordsWorkLog(t *testing.T) {
	s := newSession()
	day := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.Local)
	s.Calendar.AddWorkingDay(day, true)

	task := core.NewTask("write report", core.NoDeadline(), "")
	if err := task.UpdateRemaining(core.NewEstimate(time.Hour)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	s.AddTask(task)

	start := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.Local)
	if _, _, err := s.StartTaskAt(task.ID, start); err != nil {
		t.Fatalf("StartTaskAt: %v", err)
	}

	end := start.Add(25 * time.Minute)
	got, err := s.StopCurrentTask(StopAt(end), false)
	if err != nil {
		t.Fatalf("StopCurrentTask: %v", err)
	}
	if got.ActualTotal != 25*time.Minute {
		t.Errorf("ActualTotal = %v, want 25m", got.ActualTotal)
	}
	if total := s.Log.TotalRecordedDuration(task.ID); total != 25*time.Minute {
		t.Errorf("work log total = %v, want 25m", total)
	}
}

func TestStopCurrentTaskWithoutActiveFails(t *testing.T) {
	s := newSession()
	if _, err := s.StopCurrentTask(StopNow(time.Now()), false); err == nil {
		t.Error("expected an error stopping with no active task")
	}
}

func TestStopEndsAtRejectsDifferentDate(t *testing.T) {
	s := newSession()
	task := core.NewTask("write report", core.NoDeadline(), "")
	s.AddTask(task)

	start := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.Local)
	s.StartTaskAt(task.ID, start)

	nextDay := time.Date(2025, time.May, 2, 9, 0, 0, 0, time.Local)
	if _, err := s.StopCurrentTask(StopAt(nextDay), false); err == nil {
		t.Error("expected an error stopping across a date boundary")
	}
}

func TestBlockTaskByTasksReturnsKnownDependencies(t *testing.T) {
	s := newSession()
	a := core.NewTask("A", core.NoDeadline(), "")
	b := core.NewTask("B", core.NoDeadline(), "")
	s.AddTask(a)
	s.AddTask(b)

	unknown := core.NewTaskID()
	task, deps, err := s.BlockTaskByTasks(b.ID, []core.TaskID{a.ID, unknown})
	if err != nil {
		t.Fatalf("BlockTaskByTasks: %v", err)
	}
	if !task.IsBlocked() {
		t.Error("expected b to be Blocked")
	}
	if len(deps) != 1 || deps[0].ID != a.ID {
		t.Errorf("deps = %+v, want only [a]", deps)
	}
}

func TestFormatHumanDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0min"},
		{time.Minute, "1min"},
		{60 * time.Minute, "1h"},
		{480 * time.Minute, "1d"},
		{1440 * time.Minute, "3d"},
	}
	for _, c := range cases {
		if got := FormatHumanDuration(c.d); got != c.want {
			t.Errorf("FormatHumanDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
