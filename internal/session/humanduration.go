package session

import (
	"fmt"
	"strings"
	"time"
)

// workHoursPerDay and workDaysPerWeek define the "calendar-free" units
// FormatHumanDuration renders large durations in: a plain nominal workday
// and workweek, independent of any particular Calendar's actual hours.
const (
	workHoursPerDay  = 8
	workDaysPerWeek  = 5
)

// FormatHumanDuration renders a duration as a compact "1w 2d 3h 4min"
// string, omitting zero components. Durations at or below zero render as
// "0min".
func FormatHumanDuration(d time.Duration) string {
	totalMinutes := int64(d / time.Minute)
	if totalMinutes <= 0 {
		return "0min"
	}

	minutesPerDay := int64(60 * workHoursPerDay)
	minutesPerWeek := minutesPerDay * workDaysPerWeek

	weeks := totalMinutes / minutesPerWeek
	totalMinutes -= weeks * minutesPerWeek
	days := totalMinutes / minutesPerDay
	totalMinutes -= days * minutesPerDay
	hours := totalMinutes / 60
	totalMinutes -= hours * 60
	minutes := totalMinutes

	var parts []string
	if weeks > 0 {
		parts = append(parts, fmt.Sprintf("%dw", weeks))
	}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dmin", minutes))
	}
	return strings.Join(parts, " ")
}
