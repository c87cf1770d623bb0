package core

import (
	"testing"
	"time"
)

func TestTaskRemainingNoEstimateNoProgress(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	if got, want := task.Remaining(), 5*time.Minute; got != want {
		t.Errorf("Remaining() = %v, want sentinel default %v", got, want)
	}
}

func TestTaskRemainingEstimateAndProgressNoActual(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	if err := task.UpdateRemaining(NewEstimate(200 * time.Minute)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	p, _ := NewProgress(20)
	task.SetProgressOverride(&p)
	if got, want := task.Remaining(), 160*time.Minute; got != want {
		t.Errorf("Remaining() = %v, want %v", got, want)
	}
}

func TestTaskRemainingEstimateOnly(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	if err := task.UpdateRemaining(NewEstimate(200 * time.Minute)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	if got, want := task.Remaining(), 200*time.Minute; got != want {
		t.Errorf("Remaining() = %v, want %v", got, want)
	}
}

func TestTaskRemainingProgressAndActualIgnoresEstimate(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	p, _ := NewProgress(20)
	task.SetProgressOverride(&p)
	task.Record(40 * time.Minute)
	if got, want := task.Remaining(), 160*time.Minute; got != want {
		t.Errorf("Remaining() = %v, want %v", got, want)
	}
}

func TestTaskRemainingCompletedIsZero(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	task.Complete(time.Now())
	if got := task.Remaining(); got != 0 {
		t.Errorf("Remaining() on completed task = %v, want 0", got)
	}
}

func TestTaskSimulateProgress(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	if err := task.UpdateRemaining(NewEstimate(200 * time.Minute)); err != nil {
		t.Fatalf("UpdateRemaining: %v", err)
	}
	p, _ := NewProgress(20)
	task.SetProgressOverride(&p)

	got, err := task.SimulateProgress(50 * time.Minute)
	if err != nil {
		t.Fatalf("SimulateProgress: %v", err)
	}
	if got.Value() != 45 {
		t.Errorf("SimulateProgress() = %v%%, want 45%%", got.Value())
	}
}

func TestTaskSimulateProgressRequiresEstimate(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	if _, err := task.SimulateProgress(10 * time.Minute); err == nil {
		t.Error("expected a StateError without an estimate")
	}
}

func TestTaskBlockingLifecycle(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	blocker := NewTaskID()

	task.BlockByTask([]TaskID{blocker})
	if !task.IsBlocked() {
		t.Fatal("expected Blocked after BlockByTask")
	}

	task.UnblockTask(blocker)
	if !task.IsReady() {
		t.Fatal("expected Ready after unblocking the only blocker")
	}
}

func TestTaskBlockByExternalThenUnblock(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	task.BlockByExternal(ExternalBlockingReason{Note: "waiting on vendor", LastUpdated: time.Now()})
	if !task.IsBlocked() {
		t.Fatal("expected Blocked after BlockByExternal")
	}
	task.UnblockExternal(0)
	if !task.IsReady() {
		t.Fatal("expected Ready after unblocking the only external reason")
	}
}

func TestTaskUpdateRemainingRejectsCompleted(t *testing.T) {
	task := NewTask("write report", NoDeadline(), "")
	task.Complete(time.Now())
	if err := task.UpdateRemaining(NewEstimate(time.Hour)); err == nil {
		t.Error("expected a StateError updating the estimate of a completed task")
	}
}

func TestTaskIDPrefixMatching(t *testing.T) {
	id := NewTaskID()
	full := id.id.String()
	hex := full[:8] + full[9:13] + full[14:18] + full[19:23] + full[24:]
	if !id.HasPrefix(hex[:4]) {
		t.Errorf("HasPrefix(%q) = false, want true", hex[:4])
	}
	if id.HasPrefix("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz") {
		t.Error("HasPrefix with an overlong prefix should be false")
	}
}
