package core

import (
	"testing"
	"time"
)

func newReadyTask(title string) *Task {
	return NewTask(title, NoDeadline(), "")
}

// TestComputeDependentsMap mirrors the original A -> {B, C}, B -> {D}
// dependency shape: dependents(A)=3, dependents(B)=1, dependents(C)=dependents(D)=0.
func TestComputeDependentsMap(t *testing.T) {
	a, b, c, d := newReadyTask("A"), newReadyTask("B"), newReadyTask("C"), newReadyTask("D")
	b.BlockByTask([]TaskID{a.ID})
	c.BlockByTask([]TaskID{a.ID})
	d.BlockByTask([]TaskID{b.ID})

	tasks := map[TaskID]*Task{a.ID: a, b.ID: b, c.ID: c, d.ID: d}
	rev := buildRevGraph(tasks)
	depMap, err := computeDependentsMap(tasks, rev)
	if err != nil {
		t.Fatalf("computeDependentsMap: %v", err)
	}

	if depMap[a.ID] != 3 {
		t.Errorf("dependents(A) = %d, want 3", depMap[a.ID])
	}
	if depMap[b.ID] != 1 {
		t.Errorf("dependents(B) = %d, want 1", depMap[b.ID])
	}
	if depMap[c.ID] != 0 {
		t.Errorf("dependents(C) = %d, want 0", depMap[c.ID])
	}
	if depMap[d.ID] != 0 {
		t.Errorf("dependents(D) = %d, want 0", depMap[d.ID])
	}
}

func TestComputeDependentsMapDetectsCycle(t *testing.T) {
	a, b := newReadyTask("A"), newReadyTask("B")
	a.BlockByTask([]TaskID{b.ID})
	b.BlockByTask([]TaskID{a.ID})

	tasks := map[TaskID]*Task{a.ID: a, b.ID: b}
	rev := buildRevGraph(tasks)
	if _, err := computeDependentsMap(tasks, rev); err == nil {
		t.Error("expected a StateError for a dependency cycle")
	}
}

func TestComputeEarliestStartMapDetectsCycle(t *testing.T) {
	a, b := newReadyTask("A"), newReadyTask("B")
	a.BlockByTask([]TaskID{b.ID})
	b.BlockByTask([]TaskID{a.ID})

	tasks := map[TaskID]*Task{a.ID: a, b.ID: b}
	cal := NewCalendar(NewClockTime(9, 0), NewClockTime(17, 0))
	cal.AddWorkingDay(date(2025, time.May, 1), true)
	now := NewClockTime(9, 0).atDate(date(2025, time.May, 1))

	_, err := computeEarliestStartMap(tasks, cal, now, NewClockTime(9, 0), 25*time.Minute, 5*time.Minute)
	if err == nil {
		t.Error("expected a StateError for a dependency cycle")
	}
}

func TestComputeEarliestStartMapRespectsDependentFinish(t *testing.T) {
	cal := NewCalendar(NewClockTime(9, 0), NewClockTime(17, 0))
	day := date(2025, time.May, 1)
	cal.AddWorkingDay(day, true)
	now := NewClockTime(9, 0).atDate(day)

	blocker := newReadyTask("blocker")
	if err := blocker.UpdateRemaining(NewEstimate(2 * time.Hour)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	dependent := newReadyTask("dependent")
	dependent.BlockByTask([]TaskID{blocker.ID})

	tasks := map[TaskID]*Task{blocker.ID: blocker, dependent.ID: dependent}
	earliest, err := computeEarliestStartMap(tasks, cal, now, NewClockTime(9, 0), 25*time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("computeEarliestStartMap: %v", err)
	}

	if !earliest[blocker.ID].Equal(now) {
		t.Errorf("earliest(blocker) = %v, want %v", earliest[blocker.ID], now)
	}
	if !earliest[dependent.ID].After(now) {
		t.Errorf("earliest(dependent) = %v, want after %v (blocker must finish first)", earliest[dependent.ID], now)
	}
}

func TestSchedulerAllocatesWithinWorkingHours(t *testing.T) {
	cal := NewCalendar(NewClockTime(9, 0), NewClockTime(17, 0))
	day := date(2025, time.May, 1)
	cal.AddWorkingDay(day, true)

	task := newReadyTask("single task")
	if err := task.UpdateRemaining(NewEstimate(time.Hour)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	tasks := map[TaskID]*Task{task.ID: task}

	s := &Scheduler{WorkTick: 25 * time.Minute, BufferTime: 5 * time.Minute, WorkStart: NewClockTime(9, 0), WorkEnd: NewClockTime(17, 0)}
	slots, err := s.Schedule(NewClockTime(9, 0).atDate(day), tasks, cal)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if got := slots.TotalFor(task.ID); got != time.Hour {
		t.Errorf("total allocated to the only task = %v, want %v", got, time.Hour)
	}
	for _, d := range slots.Dates() {
		if !cal.IsOfficialWorkday(d) {
			t.Errorf("allocation on non-official day %v", d)
		}
	}
}

func TestSchedulerPropagatesCycleError(t *testing.T) {
	cal := NewCalendar(NewClockTime(9, 0), NewClockTime(17, 0))
	cal.AddWorkingDay(date(2025, time.May, 1), true)

	a, b := newReadyTask("A"), newReadyTask("B")
	a.BlockByTask([]TaskID{b.ID})
	b.BlockByTask([]TaskID{a.ID})
	tasks := map[TaskID]*Task{a.ID: a, b.ID: b}

	s := &Scheduler{WorkTick: 25 * time.Minute, BufferTime: 5 * time.Minute, WorkStart: NewClockTime(9, 0), WorkEnd: NewClockTime(17, 0)}
	if _, err := s.Schedule(NewClockTime(9, 0).atDate(date(2025, time.May, 1)), tasks, cal); err == nil {
		t.Error("expected Schedule to propagate the dependency-cycle StateError")
	}
}

func TestProjectFinishAndStartBeforeRoundTrip(t *testing.T) {
	cal := NewCalendar(NewClockTime(9, 0), NewClockTime(17, 0))
	day := date(2025, time.May, 1)
	cal.AddWorkingDay(day, true)

	workTick := 25 * time.Minute
	buffer := 5 * time.Minute
	start := NewClockTime(9, 0).atDate(day)
	remaining := 90 * time.Minute

	finish := projectFinish(start, remaining, cal, workTick, buffer)
	backToStart := projectStartBefore(finish, remaining, cal, workTick, buffer)

	if !backToStart.Equal(start) {
		t.Errorf("projectStartBefore(projectFinish(start)) = %v, want %v", backToStart, start)
	}
}
