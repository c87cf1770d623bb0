package session

import "time"

// StopKindTag selects how a running task's stint should be closed out.
type StopKindTag int

const (
	// StopImmediately ends the stint right now, recording no duration.
	StopImmediately StopKindTag = iota
	// StopEndsAt ends the stint at a specific timestamp on the same date
	// it started, recording the elapsed duration.
	StopEndsAt
	// StopEndsIn ends the stint duration after it started.
	StopEndsIn
)

// StopKind is a tagged union describing how to stop the active task.
type StopKind struct {
	Kind     StopKindTag
	At       time.Time
	Duration time.Duration
}

// StopNow constructs an Immediately stop at now.
func StopNow(now time.Time) StopKind { return StopKind{Kind: StopImmediately, At: now} }

// StopAt constructs an EndsAt stop at the given timestamp.
func StopAt(at time.Time) StopKind { return StopKind{Kind: StopEndsAt, At: at} }

// StopIn constructs an EndsIn stop, duration after the stint began.
func StopIn(d time.Duration) StopKind { return StopKind{Kind: StopEndsIn, Duration: d} }
