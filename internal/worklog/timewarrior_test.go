package worklog

import (
	"testing"
	"time"

	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/timewarrior"
)

type fakeTimewarriorClient struct {
	entries []timewarrior.Entry
	err     error
}

func (f *fakeTimewarriorClient) GetEntriesForTask(taskUUID string) ([]timewarrior.Entry, error) {
	return f.entries, f.err
}

func TestImportFromTimewarriorAddsClosedEntries(t *testing.T) {
	taskID := core.NewTaskID()
	client := &fakeTimewarriorClient{
		entries: []timewarrior.Entry{
			{
				Start: timewarrior.TimeWarriorTime{Time: time.Date(2025, time.May, 1, 9, 0, 0, 0, time.Local)},
				End:   timewarrior.TimeWarriorTime{Time: time.Date(2025, time.May, 1, 10, 30, 0, 0, time.Local)},
			},
			{
				// still running, should be skipped
				Start: timewarrior.TimeWarriorTime{Time: time.Date(2025, time.May, 2, 9, 0, 0, 0, time.Local)},
			},
		},
	}

	log := New()
	n, err := ImportFromTimewarrior(client, taskID, log)
	if err != nil {
		t.Fatalf("ImportFromTimewarrior: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported = %d, want 1", n)
	}
	if got := log.TotalRecordedDuration(taskID); got != 90*time.Minute {
		t.Errorf("TotalRecordedDuration = %v, want 90m", got)
	}
	if !log.IsDirty() {
		t.Error("expected log to be marked dirty after import")
	}
}

func TestImportFromTimewarriorPropagatesError(t *testing.T) {
	client := &fakeTimewarriorClient{err: timewarriorErr("boom")}
	log := New()
	if _, err := ImportFromTimewarrior(client, core.NewTaskID(), log); err == nil {
		t.Error("expected an error to propagate")
	}
}

type timewarriorErr string

func (e timewarriorErr) Error() string { return string(e) }
