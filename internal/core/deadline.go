package core

import (
	"fmt"
	"time"
)

// FuzzyDeadlineKind selects how a FuzzyDeadline's reference date is turned
// into a concrete date.
type FuzzyDeadlineKind int

const (
	// BusinessDays is due n business days after the reference date. Without
	// a calendar this degrades to n calendar days (a known quirk, kept
	// intentionally — see SPEC_FULL.md §9).
	BusinessDays FuzzyDeadlineKind = iota
	// FridayOfWeeks is due on the Friday of the ISO week n weeks after the
	// reference date's own week.
	FridayOfWeeks
	// Weeks is due 7*n days after the reference date.
	Weeks
	// MonthEnds is due on the last day of the reference date's own month;
	// n is accepted but ignored (kept intentionally, see SPEC_FULL.md §9).
	MonthEnds
	// Months is due 4*n weeks (~28n days) after the first of the reference
	// date's month (approximate, kept intentionally, see SPEC_FULL.md §9).
	Months
)

// FuzzyDeadline expresses a deadline relative to a reference date in
// business-friendly units.
type FuzzyDeadline struct {
	ReferenceDate time.Time
	Kind          FuzzyDeadlineKind
	N             uint16
	// Time, if set, overrides the default deadline time-of-day.
	Time *ClockTime
}

// Resolve turns the fuzzy deadline into a concrete time, without consulting
// a calendar (so BusinessDays degrades to plain calendar days).
func (f FuzzyDeadline) Resolve(defaultTime ClockTime) time.Time {
	base := civilDate(f.ReferenceDate)
	deadlineDate := f.resolveDateWithoutCalendar(base)
	t := defaultTime
	if f.Time != nil {
		t = *f.Time
	}
	return t.atDate(deadlineDate)
}

func (f FuzzyDeadline) resolveDateWithoutCalendar(base time.Time) time.Time {
	switch f.Kind {
	case BusinessDays:
		return addDays(base, int(f.N))
	case FridayOfWeeks:
		return fridayOfWeeksAfter(base, int(f.N))
	case Weeks:
		return addDays(base, 7*int(f.N))
	case MonthEnds:
		return lastDayOfMonth(base)
	case Months:
		return addDays(firstOfMonth(base), 28*int(f.N))
	default:
		return base
	}
}

// ResolveWithCalendar resolves the fuzzy deadline using official workdays:
// BusinessDays(n) is the n-th (0-indexed) official workday at-or-after the
// reference date; every kind is then rounded down to the previous official
// workday if the computed date is not itself official.
func (f FuzzyDeadline) ResolveWithCalendar(cal *Calendar, defaultTime ClockTime) (time.Time, error) {
	base := civilDate(f.ReferenceDate)

	var deadlineDate time.Time
	if f.Kind == BusinessDays {
		d, ok := cal.NthOfficialWorkdayFrom(base, int(f.N))
		if !ok {
			return time.Time{}, &ResolutionError{Reason: fmt.Sprintf("no official workday at offset %d from %s", f.N, base.Format("2006-01-02"))}
		}
		deadlineDate = d
	} else {
		deadlineDate = f.resolveDateWithoutCalendar(base)
	}

	if !cal.IsOfficialWorkday(deadlineDate) {
		if prev, ok := cal.PreviousOfficialWorkday(deadlineDate); ok {
			deadlineDate = prev
		}
	}

	t := defaultTime
	if f.Time != nil {
		t = *f.Time
	}
	return t.atDate(deadlineDate), nil
}

func firstOfMonth(d time.Time) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
}

func lastDayOfMonth(d time.Time) time.Time {
	return firstOfMonth(d).AddDate(0, 1, 0).AddDate(0, 0, -1)
}

// fridayOfWeeksAfter returns the Friday of the ISO (Monday-first) week that
// is `weeks` weeks after the ISO week containing d.
func fridayOfWeeksAfter(d time.Time, weeks int) time.Time {
	startOfWeek := mondayOf(d)
	friday := startOfWeek.AddDate(0, 0, 4)
	shiftedWeek := startOfWeek.AddDate(0, 0, 7*weeks)
	return shiftedWeek.AddDate(0, 0, int(friday.Sub(startOfWeek).Hours()/24))
}

func mondayOf(d time.Time) time.Time {
	wd := int(d.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return civilDate(d).AddDate(0, 0, -(wd - 1))
}

// DeadlineKind tags the variant held by a Deadline.
type DeadlineKind int

const (
	DeadlineNone DeadlineKind = iota
	DeadlineUnknown
	DeadlineExact
	DeadlineFuzzy
)

// Deadline is a tagged union: None, Unknown, an Exact timestamp, or a Fuzzy
// calendar-relative expression.
type Deadline struct {
	Kind  DeadlineKind
	Exact time.Time
	Fuzzy FuzzyDeadline
}

// NoDeadline constructs a Deadline with no due date at all.
func NoDeadline() Deadline { return Deadline{Kind: DeadlineNone} }

// UnknownDeadline constructs a Deadline whose due date is not yet known.
func UnknownDeadline() Deadline { return Deadline{Kind: DeadlineUnknown} }

// ExactDeadline constructs a Deadline pinned to a concrete timestamp.
func ExactDeadline(t time.Time) Deadline { return Deadline{Kind: DeadlineExact, Exact: t} }

// FuzzyDeadlineOf constructs a Deadline from a FuzzyDeadline.
func FuzzyDeadlineOf(f FuzzyDeadline) Deadline { return Deadline{Kind: DeadlineFuzzy, Fuzzy: f} }

// ResolveWithCalendar resolves the deadline to a concrete time, or (zero,
// false, nil) if the deadline carries no due date (None/Unknown). Only a
// Fuzzy BusinessDays deadline past the calendar's horizon can fail.
func (d Deadline) ResolveWithCalendar(cal *Calendar, defaultTime ClockTime) (time.Time, bool, error) {
	switch d.Kind {
	case DeadlineNone, DeadlineUnknown:
		return time.Time{}, false, nil
	case DeadlineExact:
		return d.Exact, true, nil
	case DeadlineFuzzy:
		t, err := d.Fuzzy.ResolveWithCalendar(cal, defaultTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	default:
		return time.Time{}, false, nil
	}
}
