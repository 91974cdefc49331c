package step

import (
	"context"
	"errors"
	"runtime/debug"

	scoperrors "stepscope/pkg/errors"
	"stepscope/pkg/report"
)

// Option configures a scoped step.
type Option func(*scope)

// Propagate marks the step failed when its body handled an error itself and
// reported it through Observe, and re-raises that error after the step exits.
func Propagate() Option {
	return func(sc *scope) {
		sc.propagate = true
	}
}

// RaiseOnParent defers the re-raise of a handled error to the nearest
// enclosing propagating scope. Without such a scope it is a no-op and the
// error raises at this step's own boundary.
func RaiseOnParent() Option {
	return func(sc *scope) {
		sc.raiseOnParent = true
	}
}

// scope is one open propagating step. caught holds the first error the
// scope's own body reported through Observe; observed holds the first error
// broadcast by any propagating scope below it. First-wins in both slots:
// later handled errors in the same body are invisible to this mechanism.
type scope struct {
	title         string
	propagate     bool
	raiseOnParent bool

	caught   error
	observed error
}

func (sc *scope) firstObserved() error {
	if sc.caught != nil {
		return sc.caught
	}
	return sc.observed
}

// stepFailed is the generic failure recorded instead of the original error
// when a step fails under an aggregation, so status classification stays
// uniform regardless of what failed inside.
type stepFailed struct {
	msg string
}

func newStepFailed(err error) error {
	return &stepFailed{msg: err.Error()}
}

func (e *stepFailed) Error() string {
	return e.msg
}

// Kind implements scoperrors.Kinder.
func (e *stepFailed) Kind() string {
	return "StepFailed"
}

// errScopeAborted stands in for a failure the scope could not capture, such
// as a body leaving via runtime.Goexit.
var errScopeAborted = errors.New("step body aborted before completion")

// Run executes body as a scoped named step. The returned error is what
// "escapes" the step: the body's own error unchanged, a handled error
// re-raised under Propagate, or nil when the failure was deferred to a parent
// or collected by an enclosing aggregation. A panic in the body is recorded
// as a failure and re-thrown unchanged unless an aggregation collects it.
func Run(ctx context.Context, title string, body func(context.Context) error, opts ...Option) (err error) {
	ctx, st := stateFor(ctx)

	sc := &scope{title: title}
	for _, opt := range opts {
		opt(sc)
	}

	rep := reporterFrom(ctx)
	var handle report.StepHandle
	if rep != nil {
		handle = rep.BeginStep(title)
	}
	st.pushOpen(handle)
	logStart(ctx, title)

	if sc.propagate {
		st.prop = append(st.prop, sc)
	}

	completed := false
	var bodyErr error

	defer func() {
		var panicVal any
		var panicErr error
		if !completed {
			if panicVal = recover(); panicVal != nil {
				panicErr = scoperrors.NewPanicError(panicVal, debug.Stack())
			}
		}

		// Stack restoration happens on every exit path before any raise.
		if sc.propagate {
			st.popPropagating(sc)
		}
		st.popOpen(handle)

		endStep := func(status report.Status, reportErr error) {
			if rep != nil {
				rep.EndStep(handle, status, reportErr)
			}
			logEnd(ctx, title, status)
		}

		if !completed && panicVal == nil {
			// runtime.Goexit is passing through; it cannot be suppressed
			// or collected, only recorded.
			endStep(report.StatusFailed, errScopeAborted)
			return
		}

		escaped := bodyErr
		if panicErr != nil {
			escaped = panicErr
		}
		active := escaped
		if active == nil {
			active = sc.firstObserved()
		}

		if active == nil {
			endStep(report.StatusPassed, nil)
			return
		}

		if fr := st.currentAggregate(); fr != nil {
			endStep(report.StatusFailed, newStepFailed(active))
			fr.collected = append(fr.collected, active)
			return
		}

		endStep(report.StatusFailed, active)

		if escaped != nil {
			if panicVal != nil {
				panic(panicVal)
			}
			err = escaped
			return
		}

		// Handled-error path: the broadcast already made the error visible
		// to every enclosing propagating scope, so deferring never drops it.
		if sc.raiseOnParent && len(st.prop) > 0 {
			return
		}
		err = active
	}()

	bodyErr = body(ctx)
	completed = true
	return nil
}
