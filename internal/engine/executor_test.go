package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stepscope/internal/config"
	"stepscope/internal/model"
	scoperrors "stepscope/pkg/errors"
	"stepscope/pkg/report"
)

func newScenario(steps ...config.Step) *config.Scenario {
	return &config.Scenario{Version: "1.0", Name: "test", Steps: steps}
}

func leaf(title, action, message string) config.Step {
	return config.Step{Title: title, Mode: config.ModeStep, Action: action, Message: message}
}

func statuses(results []model.StepResult) map[string]string {
	out := make(map[string]string, len(results))
	for _, res := range results {
		out[res.Title] = res.Status
	}
	return out
}

func TestExecute_AllPass(t *testing.T) {
	t.Parallel()

	rec := report.NewRecorder()
	results, err := Execute(&ExecutionContext{
		Scenario: newScenario(leaf("first", config.ActionPass, ""), leaf("second", config.ActionPass, "")),
		Reporter: rec,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, model.StatusCompleted, results[0].Status)
	require.Equal(t, model.StatusCompleted, results[1].Status)

	roots := rec.Roots()
	require.Len(t, roots, 2)
	require.Equal(t, report.StatusPassed, roots[0].Status)
	require.Equal(t, report.StatusPassed, roots[1].Status)
}

func TestExecute_FailureAbortsScenario(t *testing.T) {
	t.Parallel()

	rec := report.NewRecorder()
	results, err := Execute(&ExecutionContext{
		Scenario: newScenario(leaf("boom", config.ActionFail, "deliberate"), leaf("unreached", config.ActionPass, "")),
		Reporter: rec,
	})
	require.Error(t, err)

	var execErr *scoperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "boom", execErr.StepTitle)

	var failure *scoperrors.FailureError
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "deliberate", failure.Message)

	require.Equal(t, map[string]string{
		"boom":      model.StatusFailed,
		"unreached": model.StatusSkipped,
	}, statuses(results))

	roots := rec.Roots()
	require.Len(t, roots, 1)
	require.Equal(t, report.StatusFailed, roots[0].Status)
}

func TestExecute_NestedFailureSkipsSiblings(t *testing.T) {
	t.Parallel()

	results, err := Execute(&ExecutionContext{
		Scenario: newScenario(config.Step{
			Title: "parent",
			Mode:  config.ModeStep,
			Steps: []config.Step{
				leaf("bad", config.ActionFail, "nope"),
				leaf("after", config.ActionPass, ""),
			},
		}),
		Reporter: report.NewRecorder(),
	})
	require.Error(t, err)
	require.Equal(t, map[string]string{
		"bad":    model.StatusFailed,
		"after":  model.StatusSkipped,
		"parent": model.StatusFailed,
	}, statuses(results))
}

func TestExecute_AggregateRunsEveryChild(t *testing.T) {
	t.Parallel()

	rec := report.NewRecorder()
	results, err := Execute(&ExecutionContext{
		Scenario: newScenario(config.Step{
			Title: "all of it",
			Mode:  config.ModeAggregate,
			Steps: []config.Step{
				leaf("a", config.ActionFail, "first"),
				leaf("b", config.ActionPass, ""),
				leaf("c", config.ActionFail, "second"),
			},
		}),
		Reporter: rec,
	})
	require.Error(t, err)

	var agg *scoperrors.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Causes, 2)
	require.Equal(t, "2 exception(s) occurred during 'all of it': Failure: first, Failure: second", agg.Error())

	// Collected children complete from the executor's point of view.
	require.Equal(t, map[string]string{
		"a":         model.StatusCompleted,
		"b":         model.StatusCompleted,
		"c":         model.StatusCompleted,
		"all of it": model.StatusFailed,
	}, statuses(results))

	root := rec.Roots()[0]
	require.Equal(t, report.StatusFailed, root.Status)
	require.Equal(t, report.StatusFailed, root.Find("a").Status)
	require.Equal(t, report.StatusPassed, root.Find("b").Status)
	require.Equal(t, report.StatusFailed, root.Find("c").Status)
}

func TestExecute_CatchMarksPropagatingAncestor(t *testing.T) {
	t.Parallel()

	rec := report.NewRecorder()
	results, err := Execute(&ExecutionContext{
		Scenario: newScenario(config.Step{
			Title:     "guard",
			Mode:      config.ModeStep,
			Propagate: true,
			Steps: []config.Step{
				leaf("handled inside", config.ActionCatch, "swallowed"),
			},
		}),
		Reporter: rec,
	})
	require.Error(t, err)

	var failure *scoperrors.FailureError
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "swallowed", failure.Message)

	require.Equal(t, map[string]string{
		"handled inside": model.StatusCompleted,
		"guard":          model.StatusFailed,
	}, statuses(results))

	root := rec.Roots()[0]
	require.Equal(t, report.StatusFailed, root.Status)
	require.Equal(t, report.StatusPassed, root.Find("handled inside").Status)
}

func TestExecute_RaiseOnParentDefersToEnclosingScope(t *testing.T) {
	t.Parallel()

	results, err := Execute(&ExecutionContext{
		Scenario: newScenario(config.Step{
			Title:     "outer",
			Mode:      config.ModeStep,
			Propagate: true,
			Steps: []config.Step{
				{
					Title:         "inner",
					Mode:          config.ModeStep,
					Propagate:     true,
					RaiseOnParent: true,
					Action:        config.ActionCatch,
					Message:       "deferred",
				},
				leaf("sibling", config.ActionPass, ""),
			},
		}),
		Reporter: report.NewRecorder(),
	})
	require.Error(t, err)

	// The inner bracket defers its failure, so its siblings still run and
	// the error only escapes at the outer boundary.
	require.Equal(t, map[string]string{
		"inner":   model.StatusCompleted,
		"sibling": model.StatusCompleted,
		"outer":   model.StatusFailed,
	}, statuses(results))
}

func TestExecute_WithoutReporter(t *testing.T) {
	t.Parallel()

	results, err := Execute(&ExecutionContext{
		Scenario: newScenario(leaf("quiet", config.ActionPass, "")),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestExecute_NilGuards(t *testing.T) {
	t.Parallel()

	_, err := Execute(nil)
	require.Error(t, err)
	require.True(t, errors.As(err, new(*scoperrors.ExecutionError)))

	_, err = Execute(&ExecutionContext{})
	require.Error(t, err)
}
