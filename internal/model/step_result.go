package model

import (
	"time"
)

const (
	// StatusCompleted marks a scope whose bracket returned no error.
	StatusCompleted = "completed"
	// StatusFailed marks a scope whose bracket surfaced an error to the executor.
	StatusFailed = "failed"
	// StatusSkipped marks a scope never reached because an earlier scope aborted the scenario.
	StatusSkipped = "skipped"
)

// StepResult captures the executor's view of one scope bracket: whether an
// error escaped it. A scope can be reported failed by the step reporter and
// still be completed here, e.g. when an enclosing aggregation collected its
// failure.
type StepResult struct {
	Title     string
	Status    string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}
