// Package report defines the step-reporting collaborator consumed by the
// scope state machine, plus two implementations: an in-memory recorder and an
// Allure-style JSON result writer.
package report

// Status is the final visual state of a reported step. The scope state
// machine only ever uses these two values.
type Status string

const (
	// StatusPassed marks a step that finished without an active error.
	StatusPassed Status = "passed"
	// StatusFailed marks a step with an escaped, observed, or aggregated error.
	StatusFailed Status = "failed"
)

// StepHandle identifies one open step between BeginStep and EndStep. Handles
// are opaque to callers and only meaningful to the Reporter that issued them.
type StepHandle any

// Reporter receives step lifecycle notifications. Implementations must accept
// an EndStep for any handle they issued and tolerate a nil error alongside
// StatusPassed. Attach is a pure side channel and never influences status.
type Reporter interface {
	BeginStep(title string) StepHandle
	EndStep(h StepHandle, status Status, err error)
	Attach(h StepHandle, name, mediaType string, content []byte)
}
