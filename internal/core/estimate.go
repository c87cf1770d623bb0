package core

import "time"

// Estimate is a three-point (PERT-style) time estimate: optimistic,
// most-likely and pessimistic durations, with optimistic <= most_likely <=
// pessimistic and all strictly positive.
type Estimate struct {
	Optimistic  time.Duration
	MostLikely  time.Duration
	Pessimistic time.Duration
}

// NewEstimate builds a single-point estimate: all three durations equal.
func NewEstimate(mostLikely time.Duration) Estimate {
	return Estimate{Optimistic: mostLikely, MostLikely: mostLikely, Pessimistic: mostLikely}
}

// NewEstimateFromMOP builds a three-point estimate, validating ordering and
// positivity.
func NewEstimateFromMOP(mostLikely, optimistic, pessimistic time.Duration) (Estimate, error) {
	if optimistic > mostLikely || mostLikely > pessimistic {
		return Estimate{}, &ValidationError{Reason: "optimistic must be <= most_likely <= pessimistic"}
	}
	if optimistic <= 0 || mostLikely <= 0 || pessimistic <= 0 {
		return Estimate{}, &ValidationError{Reason: "all estimate durations must be greater than zero"}
	}
	return Estimate{Optimistic: optimistic, MostLikely: mostLikely, Pessimistic: pessimistic}, nil
}

// Mean returns the PERT-weighted mean: (o + 4m + p) / 6.
func (e Estimate) Mean() time.Duration {
	return (e.Optimistic + 4*e.MostLikely + e.Pessimistic) / 6
}

// StdDev returns (p - o) / 6.
func (e Estimate) StdDev() time.Duration {
	return (e.Pessimistic - e.Optimistic) / 6
}

// VarianceMinutes returns the variance of the estimate, in minutes^2.
func (e Estimate) VarianceMinutes() int64 {
	m := int64(e.StdDev().Minutes())
	return m * m
}

// Add implements the additive monoid: component-wise sum. Used when
// expressing an updated estimate as "additional work" plus "work already
// spent" (see Task.UpdateRemaining).
func (e Estimate) Add(other Estimate) Estimate {
	return Estimate{
		Optimistic:  e.Optimistic + other.Optimistic,
		MostLikely:  e.MostLikely + other.MostLikely,
		Pessimistic: e.Pessimistic + other.Pessimistic,
	}
}

// Sub is the component-wise inverse of Add.
func (e Estimate) Sub(other Estimate) Estimate {
	return Estimate{
		Optimistic:  e.Optimistic - other.Optimistic,
		MostLikely:  e.MostLikely - other.MostLikely,
		Pessimistic: e.Pessimistic - other.Pessimistic,
	}
}
