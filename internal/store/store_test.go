package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/worklog"
)

func TestSaveLoadTasksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	task := core.NewTask("write report", core.NoDeadline(), "quarterly")
	if err := task.UpdateRemaining(core.NewEstimate(90 * time.Minute)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	tasks := map[core.TaskID]*core.Task{task.ID: task}

	if err := SaveTasks(tasks, path); err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}

	loaded, err := LoadTasks(path)
	if err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	got, ok := loaded[task.ID]
	if !ok {
		t.Fatalf("loaded map missing task %s", task.ID)
	}
	if got.Title != task.Title || got.Note != task.Note {
		t.Errorf("round-tripped task = %+v, want Title=%q Note=%q", got, task.Title, task.Note)
	}
	if got.Estimate() == nil || got.Estimate().Mean() != task.Estimate().Mean() {
		t.Errorf("round-tripped estimate mismatch: got %+v, want %+v", got.Estimate(), task.Estimate())
	}
}

func TestLoadTasksMissingFileIsEmpty(t *testing.T) {
	tasks, err := LoadTasks(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("LoadTasks on a missing file = %v, want empty", tasks)
	}
}

func TestSaveLoadWorkLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worklog.json")

	log := worklog.New()
	task := core.NewTaskID()
	day := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.Local)
	log.AddItem(day, task, core.NewClockTime(9, 0), 25*time.Minute)

	if err := SaveWorkLog(log, path); err != nil {
		t.Fatalf("SaveWorkLog: %v", err)
	}

	loaded, err := LoadWorkLog(path)
	if err != nil {
		t.Fatalf("LoadWorkLog: %v", err)
	}
	if got := loaded.TotalRecordedDuration(task); got != 25*time.Minute {
		t.Errorf("TotalRecordedDuration = %v, want 25m", got)
	}
}

func TestLoadWorkLogMissingFileIsEmpty(t *testing.T) {
	log, err := LoadWorkLog(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadWorkLog: %v", err)
	}
	if log.IsDirty() {
		t.Error("a freshly loaded missing work log should not be dirty")
	}
}
