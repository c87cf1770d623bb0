package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskID is an opaque, globally unique task identity.
type TaskID struct {
	id uuid.UUID
}

// NewTaskID mints a fresh random TaskID.
func NewTaskID() TaskID { return TaskID{id: uuid.New()} }

// TaskIDFromBytes reconstructs a TaskID from its raw 16 bytes, e.g. when
// deserializing from storage.
func TaskIDFromBytes(b [16]byte) TaskID { return TaskID{id: uuid.UUID(b)} }

// HasPrefix reports whether the task's hex representation starts with
// prefix, used to resolve short IDs typed at a prompt.
func (t TaskID) HasPrefix(prefix string) bool {
	full := t.id.String()
	hex := full[:8] + full[9:13] + full[14:18] + full[19:23] + full[24:]
	if len(prefix) > len(hex) {
		return false
	}
	return hex[:len(prefix)] == prefix
}

// String renders a short display form: '#' followed by the first 6 hex
// digits of the identity.
func (t TaskID) String() string {
	full := t.id.String()
	return "#" + full[:6]
}

// FullString renders the full canonical UUID form, e.g. for building
// external tag references that need the unabbreviated identity.
func (t TaskID) FullString() string { return t.id.String() }

// MarshalText implements encoding.TextMarshaler so a TaskID can be a JSON
// map key or value.
func (t TaskID) MarshalText() ([]byte, error) { return []byte(t.id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TaskID) UnmarshalText(text []byte) error {
	id, err := uuid.ParseBytes(text)
	if err != nil {
		return fmt.Errorf("parsing task id: %w", err)
	}
	t.id = id
	return nil
}

// ExternalBlockingReason is a non-task condition gating a Blocked task.
type ExternalBlockingReason struct {
	Note         string
	MayUnblockAt Deadline
	LastUpdated  time.Time
}

// BlockingStatus carries the task-IDs and external reasons currently
// gating a Blocked task.
type BlockingStatus struct {
	Tasks     []TaskID
	Externals []ExternalBlockingReason
}

// IsReady reports whether both lists are empty.
func (b *BlockingStatus) IsReady() bool { return len(b.Tasks) == 0 && len(b.Externals) == 0 }

func (b *BlockingStatus) blockByTask(ids []TaskID) {
	seen := make(map[TaskID]struct{}, len(b.Tasks))
	for _, id := range b.Tasks {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			b.Tasks = append(b.Tasks, id)
			seen[id] = struct{}{}
		}
	}
}

func (b *BlockingStatus) unblockTask(id TaskID) {
	out := b.Tasks[:0]
	for _, t := range b.Tasks {
		if t != id {
			out = append(out, t)
		}
	}
	b.Tasks = out
}

func (b *BlockingStatus) unblockExternal(index int) {
	if index < 0 || index >= len(b.Externals) {
		return
	}
	b.Externals = append(b.Externals[:index], b.Externals[index+1:]...)
}

// TaskStatusKind tags the variant held by a TaskStatus.
type TaskStatusKind int

const (
	StatusReady TaskStatusKind = iota
	StatusBlocked
	StatusCompleted
	StatusDropped
)

// TaskStatus is a tagged union: Ready, Blocked{tasks, externals},
// Completed(timestamp) or Dropped.
type TaskStatus struct {
	Kind        TaskStatusKind
	Blocked     *BlockingStatus
	CompletedAt time.Time
}

// ReadyStatus constructs a Ready status.
func ReadyStatus() TaskStatus { return TaskStatus{Kind: StatusReady} }

// DroppedStatus constructs a Dropped status.
func DroppedStatus() TaskStatus { return TaskStatus{Kind: StatusDropped} }

// CompletedStatus constructs a Completed status.
func CompletedStatus(at time.Time) TaskStatus { return TaskStatus{Kind: StatusCompleted, CompletedAt: at} }

// Task is a unit of work: identity, title, deadline, status, optional
// estimate and progress override, and cumulative actual time spent.
type Task struct {
	ID          TaskID
	Title       string
	CreatedAt   time.Time
	Deadline    Deadline
	Note        string
	ActualTotal time.Duration

	status   TaskStatus
	estimate *Estimate
	progress *Progress
}

// NewTask creates a Ready task with no estimate and no progress override.
func NewTask(title string, deadline Deadline, note string) *Task {
	return &Task{
		ID:        NewTaskID(),
		Title:     title,
		CreatedAt: time.Now(),
		Deadline:  deadline,
		Note:      note,
		status:    ReadyStatus(),
	}
}

// Status returns the task's current status.
func (t *Task) Status() TaskStatus { return t.status }

// IsReady reports whether the task is Ready.
func (t *Task) IsReady() bool { return t.status.Kind == StatusReady }

// IsBlocked reports whether the task is Blocked.
func (t *Task) IsBlocked() bool { return t.status.Kind == StatusBlocked }

// IsCompleted reports whether the task is Completed.
func (t *Task) IsCompleted() bool { return t.status.Kind == StatusCompleted }

// IsDropped reports whether the task is Dropped.
func (t *Task) IsDropped() bool { return t.status.Kind == StatusDropped }

// Estimate returns the task's estimate, or nil if unset.
func (t *Task) Estimate() *Estimate { return t.estimate }

// ProgressOverride returns the task's explicit progress override, or nil.
func (t *Task) ProgressOverride() *Progress { return t.progress }

// Remaining derives the task's remaining work duration from its estimate,
// progress override and accumulated actual time, per the five-case
// precedence:
//  1. estimate and progress set, actual == 0: mean(E)*(100-P)/100
//  2. progress set (any estimate): pace-extrapolate from actual/progress
//  3. estimate set, no progress: mean(E) - actual
//  4. Completed or Dropped: zero
//  5. otherwise: a 5-minute sentinel default
func (t *Task) Remaining() time.Duration {
	switch {
	case t.estimate != nil && t.progress != nil && t.ActualTotal == 0:
		mean := t.estimate.Mean()
		return mean - (mean/100)*time.Duration(t.progress.Value())
	case t.progress != nil:
		p := t.progress.Value()
		if p == 0 {
			return t.ActualTotal
		}
		return (t.ActualTotal / time.Duration(p)) * time.Duration(100-p)
	case t.estimate != nil:
		return t.estimate.Mean() - t.ActualTotal
	case t.IsCompleted() || t.IsDropped():
		return 0
	default:
		return 5 * time.Minute
	}
}

// UpdateRemaining sets the task's estimate, expressed as a total: the
// supplied estimate (interpreted as "remaining work") plus a single-point
// estimate of time already spent, so that Estimate() always reflects total
// work, not just what's left. Clears any progress override. Requires the
// task to be Ready or Blocked.
func (t *Task) UpdateRemaining(estimatedRemaining Estimate) error {
	if !t.IsReady() && !t.IsBlocked() {
		return &StateError{Reason: "cannot update estimate for a non-ready, non-blocked task"}
	}
	combined := estimatedRemaining.Add(NewEstimate(t.ActualTotal))
	t.estimate = &combined
	t.progress = nil
	return nil
}

// Progress returns the task's displayed progress: the explicit override if
// set, else actual-time-over-estimate-mean, else zero.
func (t *Task) Progress() Progress {
	if t.progress != nil {
		return *t.progress
	}
	if t.estimate == nil {
		return ZeroProgress()
	}
	mean := t.estimate.Mean()
	if mean <= 0 {
		return ZeroProgress()
	}
	p, err := NewProgress(int(t.ActualTotal * 100 / mean))
	if err != nil {
		return FullProgress()
	}
	return p
}

// SetProgressOverride sets or clears the explicit progress override.
func (t *Task) SetProgressOverride(p *Progress) { t.progress = p }

// Drop transitions the task to Dropped.
func (t *Task) Drop() { t.status = DroppedStatus() }

// Record adds d to the task's accumulated actual time.
func (t *Task) Record(d time.Duration) { t.ActualTotal += d }

// Complete sets progress to 100% and transitions to Completed(completedAt).
func (t *Task) Complete(completedAt time.Time) {
	full := FullProgress()
	t.progress = &full
	t.status = CompletedStatus(completedAt)
}

// BlockByTask augments or starts a Blocked status gated by the given task
// IDs.
func (t *Task) BlockByTask(ids []TaskID) {
	if t.status.Kind == StatusBlocked {
		t.status.Blocked.blockByTask(ids)
		return
	}
	t.status = TaskStatus{Kind: StatusBlocked, Blocked: &BlockingStatus{Tasks: append([]TaskID(nil), ids...)}}
}

// BlockByExternal augments or starts a Blocked status gated by reason.
func (t *Task) BlockByExternal(reason ExternalBlockingReason) {
	if t.status.Kind == StatusBlocked {
		t.status.Blocked.Externals = append(t.status.Blocked.Externals, reason)
		return
	}
	t.status = TaskStatus{Kind: StatusBlocked, Blocked: &BlockingStatus{Externals: []ExternalBlockingReason{reason}}}
}

// UnblockTask removes id from the task's blocking list, transitioning to
// Ready if both lists become empty.
func (t *Task) UnblockTask(id TaskID) {
	if t.status.Kind != StatusBlocked {
		return
	}
	t.status.Blocked.unblockTask(id)
	if t.status.Blocked.IsReady() {
		t.status = ReadyStatus()
	}
}

// UnblockExternal removes the external reason at index, transitioning to
// Ready if both lists become empty.
func (t *Task) UnblockExternal(index int) {
	if t.status.Kind != StatusBlocked {
		return
	}
	t.status.Blocked.unblockExternal(index)
	if t.status.Blocked.IsReady() {
		t.status = ReadyStatus()
	}
}

// SimulateProgress projects the percentage progress after applying an
// additional duration of work, given the task's current estimate and
// displayed progress. Requires an estimate to be set.
func (t *Task) SimulateProgress(duration time.Duration) (Progress, error) {
	if t.estimate == nil {
		return Progress{}, &StateError{Reason: "estimate is not set"}
	}
	mean := t.estimate.Mean()
	currentProgress := t.Progress().Value()
	currentTime := (mean / 100) * time.Duration(currentProgress)
	totalTime := currentTime + duration
	newProgress := 100.0 * totalTime.Minutes() / mean.Minutes()
	return NewProgress(int(newProgress))
}

// taskJSON mirrors Task's serialized shape, surfacing the unexported
// status/estimate/progress fields for round-tripping through storage.
type taskJSON struct {
	ID          TaskID        `json:"id"`
	Title       string        `json:"title"`
	CreatedAt   time.Time     `json:"created_at"`
	Deadline    Deadline      `json:"deadline"`
	Note        string        `json:"note"`
	ActualTotal time.Duration `json:"actual_total"`
	Status      TaskStatus    `json:"status"`
	Estimate    *Estimate     `json:"estimate,omitempty"`
	Progress    *Progress     `json:"progress,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		CreatedAt:   t.CreatedAt,
		Deadline:    t.Deadline,
		Note:        t.Note,
		ActualTotal: t.ActualTotal,
		Status:      t.status,
		Estimate:    t.estimate,
		Progress:    t.progress,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	var aux taskJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.ID = aux.ID
	t.Title = aux.Title
	t.CreatedAt = aux.CreatedAt
	t.Deadline = aux.Deadline
	t.Note = aux.Note
	t.ActualTotal = aux.ActualTotal
	t.status = aux.Status
	t.estimate = aux.Estimate
	t.progress = aux.Progress
	return nil
}
