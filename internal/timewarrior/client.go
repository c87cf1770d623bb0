// Package timewarrior shells out to the timew CLI to read tracked time
// intervals, so they can be imported into a scheduler work log.
package timewarrior

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Entry is one timewarrior tracked interval.
type Entry struct {
	ID    int             `json:"id"`
	Start TimeWarriorTime `json:"start"`
	End   TimeWarriorTime `json:"end"`
	Tags  []string        `json:"tags"`
}

// TimeWarriorTime parses timewarrior's own timestamp format.
type TimeWarriorTime struct {
	time.Time
}

// UnmarshalJSON handles the timewarrior date format (20060102T150405Z)
func (t *TimeWarriorTime) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), "\"")
	if str == "" || str == "null" {
		t.Time = time.Time{}
		return nil
	}

	parsedTime, err := time.Parse("20060102T150405Z", str)
	if err != nil {
		parsedTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return fmt.Errorf("failed to parse time %s: %w", str, err)
		}
	}

	t.Time = parsedTime
	return nil
}

// Client shells out to timew.
type Client struct {
	command string
}

// NewClient creates a new timewarrior client.
func NewClient() *Client {
	return &Client{
		command: "timew",
	}
}

// Export exports time entries matching the given timew export filter args.
func (c *Client) Export(args ...string) ([]Entry, error) {
	cmdArgs := append([]string{"export"}, args...)
	cmd := exec.Command(c.command, cmdArgs...)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("timewarrior export failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("failed to run timewarrior: %w", err)
	}

	outputStr := strings.TrimSpace(string(output))
	if outputStr == "" || outputStr == "[]" {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse timewarrior output: %w", err)
	}

	return entries, nil
}

// GetEntriesForTask returns all time entries tagged with a given task UUID.
func (c *Client) GetEntriesForTask(taskUUID string) ([]Entry, error) {
	taskTag := fmt.Sprintf("task_%s", taskUUID)
	entries, err := c.Export(taskTag)
	if err != nil {
		return nil, err
	}

	var taskEntries []Entry
	for _, entry := range entries {
		for _, tag := range entry.Tags {
			if tag == taskTag {
				taskEntries = append(taskEntries, entry)
				break
			}
		}
	}

	return taskEntries, nil
}
