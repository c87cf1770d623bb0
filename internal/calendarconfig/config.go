// Package calendarconfig builds a core.Calendar from a directory of YAML
// files: settings.yaml (required), overrides.yaml (optional), and a
// schedule/ directory of optional per-day overrides.
package calendarconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emiller/scheduler/internal/core"
)

// InputError wraps a malformed or unreadable configuration file. The
// wrapped error (from os, yaml, or time.Parse) is preserved via Unwrap.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("calendarconfig: %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

type clockTime struct {
	hour, minute int
}

func (c *clockTime) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	c.hour, c.minute = t.Hour(), t.Minute()
	return nil
}

func (c clockTime) toCore() core.ClockTime {
	return core.NewClockTime(c.hour, c.minute)
}

type civilDate struct {
	time.Time
}

func (d *civilDate) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

type workingTime struct {
	Start clockTime `yaml:"start"`
	End   clockTime `yaml:"end"`
}

type dateRange struct {
	Start civilDate `yaml:"start"`
	End   civilDate `yaml:"end"`
}

type settings struct {
	DefaultWorkingTime workingTime `yaml:"default_working_time"`
	DateRange          dateRange   `yaml:"date_range"`
	Holidays           []civilDate `yaml:"holidays"`
}

type overrides struct {
	OverrideHolidayToWorkday []civilDate `yaml:"override_holiday_to_workday"`
	OverrideWorkdayToHoliday []civilDate `yaml:"override_workday_to_holiday"`
}

type daySchedule struct {
	StartTime *clockTime        `yaml:"start_time"`
	EndTime   *clockTime        `yaml:"end_time"`
	Schedule  []dayScheduleItem `yaml:"schedule"`
}

type dayScheduleItem struct {
	Start clockTime `yaml:"start"`
	End   clockTime `yaml:"end"`
	Note  string    `yaml:"note"`
}

// Import reads settings.yaml, overrides.yaml and schedule/*.yaml under dir
// and builds a core.Calendar from them. overrides.yaml is optional; the
// schedule directory is optional too (a missing directory is treated as
// empty, matching a calendar with no per-day overrides at all).
func Import(dir string) (*core.Calendar, error) {
	settingsPath := filepath.Join(dir, "settings.yaml")
	overridesPath := filepath.Join(dir, "overrides.yaml")
	scheduleDir := filepath.Join(dir, "schedule")

	cfg, err := loadSettings(settingsPath)
	if err != nil {
		return nil, err
	}

	ovr, err := loadOverrides(overridesPath)
	if err != nil {
		return nil, err
	}

	cal := core.NewCalendar(cfg.DefaultWorkingTime.Start.toCore(), cfg.DefaultWorkingTime.End.toCore())

	for d := cfg.DateRange.Start.Time; !d.After(cfg.DateRange.End.Time); d = d.AddDate(0, 0, 1) {
		cal.AddWorkingDay(d, true)
	}
	for _, h := range cfg.Holidays {
		cal.RemoveWorkingDay(h.Time, true)
	}
	for _, w := range ovr.OverrideHolidayToWorkday {
		cal.AddWorkingDay(w.Time, false)
	}
	for _, h := range ovr.OverrideWorkdayToHoliday {
		cal.RemoveWorkingDay(h.Time, false)
	}

	if err := importSchedule(cal, scheduleDir); err != nil {
		return nil, err
	}

	return cal, nil
}

func loadSettings(path string) (*settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	var cfg settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return &cfg, nil
}

func loadOverrides(path string) (*overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &overrides{}, nil
		}
		return nil, &InputError{Path: path, Err: err}
	}
	var ovr overrides
	if err := yaml.Unmarshal(data, &ovr); err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return &ovr, nil
}

func importSchedule(cal *core.Calendar, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &InputError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		date, err := time.ParseInLocation("2006-01-02", stem, time.Local)
		if err != nil {
			return &InputError{Path: path, Err: fmt.Errorf("filename is not a date: %w", err)}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return &InputError{Path: path, Err: err}
		}
		var day daySchedule
		if err := yaml.Unmarshal(data, &day); err != nil {
			return &InputError{Path: path, Err: err}
		}

		var start, end *core.ClockTime
		if day.StartTime != nil {
			c := day.StartTime.toCore()
			start = &c
		}
		if day.EndTime != nil {
			c := day.EndTime.toCore()
			end = &c
		}
		cal.UpdateWorkingTime(date, start, end)

		for _, item := range day.Schedule {
			duration := item.End.toCore().Sub(item.Start.toCore())
			cal.AddScheduledItem(date, core.ScheduledItem{Start: item.Start.toCore(), Duration: duration, Note: item.Note})
		}
	}
	return nil
}
