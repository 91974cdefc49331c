package step

import (
	"context"
	"runtime/debug"

	scoperrors "stepscope/pkg/errors"
	"stepscope/pkg/report"
)

// aggFrame is one open aggregation scope. collected accumulates, in order of
// occurrence, every error that would otherwise have aborted the body.
type aggFrame struct {
	title     string
	collected []error
}

// RunAggregate executes body as an aggregation scope: every directly nested
// step runs to completion regardless of earlier failures, and if anything
// failed a single AggregateError listing all collected causes is returned.
// An error returned by the body outside any nested step still aborts the rest
// of the body and is collected. When another aggregation encloses this one,
// the AggregateError is appended to it as one cause and nothing is returned
// here. A panic in the body is collected as a PanicError rather than
// re-thrown, so sibling scopes in an enclosing aggregation keep running.
func RunAggregate(ctx context.Context, title string, body func(context.Context) error) (err error) {
	ctx, st := stateFor(ctx)

	fr := &aggFrame{title: title}
	st.agg = append(st.agg, fr)

	rep := reporterFrom(ctx)
	var handle report.StepHandle
	if rep != nil {
		handle = rep.BeginStep(title)
	}
	st.pushOpen(handle)
	logStart(ctx, title)

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

		// Pop before any raise so raising never leaves stale state.
		st.popAggregate(fr)
		st.popOpen(handle)

		endStep := func(status report.Status, reportErr error) {
			if rep != nil {
				rep.EndStep(handle, status, reportErr)
			}
			logEnd(ctx, title, status)
		}

		if !completed && panicVal == nil {
			endStep(report.StatusFailed, errScopeAborted)
			return
		}

		switch {
		case panicErr != nil:
			fr.collected = append(fr.collected, panicErr)
		case bodyErr != nil:
			fr.collected = append(fr.collected, bodyErr)
		}

		if len(fr.collected) == 0 {
			endStep(report.StatusPassed, nil)
			return
		}

		agg := scoperrors.NewAggregateError(title, fr.collected)
		endStep(report.StatusFailed, newStepFailed(agg))

		if parent := st.currentAggregate(); parent != nil {
			// Deferred nesting: one combined cause, never unpacked.
			parent.collected = append(parent.collected, agg)
			return
		}
		err = agg
	}()

	bodyErr = body(ctx)
	completed = true
	return nil
}
