package engine

import (
	"context"
	"fmt"
	"time"

	"stepscope/internal/config"
	"stepscope/internal/model"
	scoperrors "stepscope/pkg/errors"
	"stepscope/pkg/step"
)

// Execute runs every top-level step of the scenario and returns step results
// in execution order. The first error that escapes a top-level scope aborts
// the scenario; the remaining top-level steps are recorded as skipped.
func Execute(execCtx *ExecutionContext) ([]model.StepResult, error) {
	if execCtx == nil {
		return nil, scoperrors.NewExecutionError("", fmt.Errorf("execution context is nil"))
	}
	if execCtx.Scenario == nil {
		return nil, scoperrors.NewExecutionError("", fmt.Errorf("execution context scenario is nil"))
	}

	ctx := execCtx.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if execCtx.Reporter != nil {
		ctx = step.WithReporter(ctx, execCtx.Reporter)
	}
	if execCtx.Scenario.Settings.LogSteps && execCtx.Logger != nil {
		ctx = step.WithLogger(ctx, execCtx.Logger.Zerolog())
	}

	var results []model.StepResult

	for i := range execCtx.Scenario.Steps {
		st := &execCtx.Scenario.Steps[i]
		if err := runStep(ctx, st, &results); err != nil {
			markSkipped(execCtx.Scenario.Steps[i+1:], &results)
			return results, scoperrors.NewExecutionError(st.Title, err)
		}
	}

	return results, nil
}

// runStep executes one scope bracket and records the caller-side outcome. An
// error return means the failure escaped this scope; failures collected by an
// enclosing aggregation or deferred to an outer scope do not surface here.
func runStep(ctx context.Context, st *config.Step, results *[]model.StepResult) error {
	body := func(ctx context.Context) error {
		if len(st.Steps) > 0 {
			return runChildren(ctx, st.Steps, results)
		}
		return runAction(ctx, st)
	}

	start := time.Now()

	var err error
	if st.Mode == config.ModeAggregate {
		err = step.RunAggregate(ctx, st.Title, body)
	} else {
		var opts []step.Option
		if st.Propagate {
			opts = append(opts, step.Propagate())
		}
		if st.RaiseOnParent {
			opts = append(opts, step.RaiseOnParent())
		}
		err = step.Run(ctx, st.Title, body, opts...)
	}

	res := model.StepResult{
		Title:     st.Title,
		Status:    model.StatusCompleted,
		Duration:  time.Since(start),
		Timestamp: start,
	}
	if err != nil {
		res.Status = model.StatusFailed
		res.Error = err
	}
	*results = append(*results, res)

	return err
}

// runChildren runs nested steps in order. Inside a plain scope the first
// escaping error aborts the remainder; inside an aggregation scope child
// failures are collected by the scope itself, so every child runs.
func runChildren(ctx context.Context, steps []config.Step, results *[]model.StepResult) error {
	for i := range steps {
		if err := runStep(ctx, &steps[i], results); err != nil {
			markSkipped(steps[i+1:], results)
			return err
		}
	}
	return nil
}

// runAction simulates a leaf step outcome.
func runAction(ctx context.Context, st *config.Step) error {
	switch st.Action {
	case config.ActionFail:
		return scoperrors.NewFailureError(st.Message)
	case config.ActionCatch:
		step.Observe(ctx, scoperrors.NewFailureError(st.Message))
		return nil
	default:
		return nil
	}
}

func markSkipped(steps []config.Step, results *[]model.StepResult) {
	now := time.Now()
	for i := range steps {
		*results = append(*results, model.StepResult{
			Title:     steps[i].Title,
			Status:    model.StatusSkipped,
			Timestamp: now,
		})
	}
}
