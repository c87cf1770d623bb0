// Package store persists tasks and the work log to disk as JSON. Tasks
// round-trip through core.Task's own MarshalJSON/UnmarshalJSON; the work
// log is serialized as its raw date-keyed item map, mirroring how the
// system this was adapted from treats storage as a thin, mechanical layer
// over already-serializable domain types.
package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/worklog"
)

// SaveTasks writes every task in tasks to path as a JSON array.
func SaveTasks(tasks map[core.TaskID]*core.Task, path string) error {
	list := make([]*core.Task, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, t)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTasks reads tasks from path, keyed by their own ID. A missing file
// yields an empty map, not an error.
func LoadTasks(path string) (map[core.TaskID]*core.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[core.TaskID]*core.Task), nil
		}
		return nil, err
	}
	var list []*core.Task
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	tasks := make(map[core.TaskID]*core.Task, len(list))
	for _, t := range list {
		tasks[t.ID] = t
	}
	return tasks, nil
}

// SaveWorkLog writes log's raw item map to path as JSON.
func SaveWorkLog(log *worklog.WorkLog, path string) error {
	data, err := json.Marshal(log.Items())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadWorkLog reads a work log from path. A missing file yields a fresh,
// empty WorkLog, not an error.
func LoadWorkLog(path string) (*worklog.WorkLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return worklog.New(), nil
		}
		return nil, err
	}
	var items map[time.Time][]worklog.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return worklog.FromItems(items), nil
}
