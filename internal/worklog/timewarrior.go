package worklog

import (
	"fmt"

	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/timewarrior"
)

// timewarriorClient is the subset of *timewarrior.Client this package needs,
// so tests can supply a fake without shelling out to timew.
type timewarriorClient interface {
	GetEntriesForTask(taskUUID string) ([]timewarrior.Entry, error)
}

// ImportFromTimewarrior pulls every closed timewarrior interval tagged with
// taskID's UUID and appends it to the log as a worklog Item, returning how
// many were appended. Only the log changes: the task's ActualTotal is not
// updated by this function.
func ImportFromTimewarrior(client timewarriorClient, taskID core.TaskID, log *WorkLog) (int, error) {
	entries, err := client.GetEntriesForTask(taskID.FullString())
	if err != nil {
		return 0, fmt.Errorf("worklog: fetching timewarrior entries: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.End.IsZero() {
			continue // still running, nothing to record yet
		}
		duration := entry.End.Sub(entry.Start.Time)
		if duration <= 0 {
			continue
		}
		beginAt := core.NewClockTime(entry.Start.Time.Hour(), entry.Start.Time.Minute())
		log.AddItem(entry.Start.Time, taskID, beginAt, duration)
		imported++
	}
	return imported, nil
}
