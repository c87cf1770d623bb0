package calibration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/emiller/scheduler/internal/core"
)

func TestRecordCompletionAndSuggestEstimate(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "calibration.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	task := core.NewTask("write quarterly report", core.NoDeadline(), "")
	if err := task.UpdateRemaining(core.NewEstimate(time.Hour)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	task.Record(90 * time.Minute)
	task.Complete(time.Now())

	if err := db.RecordCompletion(task); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}

	estimate, ok, err := db.SuggestEstimate("write monthly report", 5)
	if err != nil {
		t.Fatalf("SuggestEstimate: %v", err)
	}
	if !ok {
		t.Fatal("expected a suggestion from keyword-similar history")
	}
	if estimate.Mean() != 90*time.Minute {
		t.Errorf("suggested mean = %v, want 90m", estimate.Mean())
	}
}

func TestSuggestEstimateNoHistoryReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "calibration.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	_, ok, err := db.SuggestEstimate("anything", 5)
	if err != nil {
		t.Fatalf("SuggestEstimate: %v", err)
	}
	if ok {
		t.Error("expected no suggestion with an empty history table")
	}
}

func TestRecordCompletionRejectsIncompleteTask(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "calibration.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	task := core.NewTask("in progress", core.NoDeadline(), "")
	if err := db.RecordCompletion(task); err == nil {
		t.Error("expected an error recording a non-completed task")
	}
}
