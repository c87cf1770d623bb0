package timewarrior

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

// fakeTimew writes an executable shell script standing in for the timew
// binary, so Client.Export has something real to exec.Command against
// without requiring timewarrior to be installed.
func fakeTimew(t *testing.T, output string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake timew script requires a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "timew")
	script := "#!/bin/sh\ncat <<'EOF'\n" + output + "\nEOF\nexit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake timew: %v", err)
	}
	return path
}

func TestGetEntriesForTaskFiltersByTag(t *testing.T) {
	output := `[
		{"id": 1, "start": "20250501T090000Z", "end": "20250501T100000Z", "tags": ["task_abc123", "Write_report"]},
		{"id": 2, "start": "20250501T110000Z", "end": "20250501T113000Z", "tags": ["task_other", "Unrelated"]}
	]`
	client := &Client{command: fakeTimew(t, output, 0)}

	entries, err := client.GetEntriesForTask("abc123")
	if err != nil {
		t.Fatalf("GetEntriesForTask: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ID != 1 {
		t.Errorf("entry ID = %d, want 1", entries[0].ID)
	}
	if entries[0].End.Sub(entries[0].Start.Time).Hours() != 1 {
		t.Errorf("entry duration = %v, want 1h", entries[0].End.Sub(entries[0].Start.Time))
	}
}

func TestGetEntriesForTaskNoMatches(t *testing.T) {
	output := `[{"id": 1, "start": "20250501T090000Z", "end": "20250501T100000Z", "tags": ["task_other"]}]`
	client := &Client{command: fakeTimew(t, output, 0)}

	entries, err := client.GetEntriesForTask("abc123")
	if err != nil {
		t.Fatalf("GetEntriesForTask: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestGetEntriesForTaskCommandFailure(t *testing.T) {
	client := &Client{command: fakeTimew(t, "boom", 1)}

	if _, err := client.GetEntriesForTask("abc123"); err == nil {
		t.Error("expected an error when timew exits non-zero")
	}
}

func TestExportEmptyOutput(t *testing.T) {
	client := &Client{command: fakeTimew(t, "[]", 0)}

	entries, err := client.Export("task_abc123")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}
