package core

import (
	"encoding/json"
	"fmt"
)

// Progress is an integer percentage in [0,100].
type Progress struct {
	value int
}

// NewProgress validates and builds a Progress.
func NewProgress(value int) (Progress, error) {
	if value < 0 || value > 100 {
		return Progress{}, &ValidationError{Reason: "progress must be between 0 and 100"}
	}
	return Progress{value: value}, nil
}

// ZeroProgress is 0%.
func ZeroProgress() Progress { return Progress{value: 0} }

// FullProgress is 100%.
func FullProgress() Progress { return Progress{value: 100} }

// Value returns the underlying percentage.
func (p Progress) Value() int { return p.value }

func (p Progress) String() string { return fmt.Sprintf("%3d%%", p.value) }

// MarshalJSON implements json.Marshaler, serializing as a bare integer.
func (p Progress) MarshalJSON() ([]byte, error) { return json.Marshal(p.value) }

// UnmarshalJSON implements json.Unmarshaler.
func (p *Progress) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.value = v
	return nil
}
