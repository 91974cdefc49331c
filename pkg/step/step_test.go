package step

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	scoperrors "stepscope/pkg/errors"
	"stepscope/pkg/report"
)

func newTestContext() (context.Context, *report.Recorder) {
	rec := report.NewRecorder()
	return WithReporter(context.Background(), rec), rec
}

func requireSingleRoot(t *testing.T, rec *report.Recorder) *report.StepRecord {
	t.Helper()
	roots := rec.Roots()
	require.Len(t, roots, 1)
	return roots[0]
}

func TestRunPassesWithoutError(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()
	err := Run(ctx, "S1", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	root := requireSingleRoot(t, rec)
	require.Equal(t, "S1", root.Name)
	require.Equal(t, report.StatusPassed, root.Status)
}

func TestRunFailsOnEscapedError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ctx, rec := newTestContext()
	err := Run(ctx, "S1", func(ctx context.Context) error {
		return boom
	})
	require.Same(t, boom, err)

	root := requireSingleRoot(t, rec)
	require.Equal(t, report.StatusFailed, root.Status)
	require.Contains(t, root.Failure, "boom")
}

func TestRunStaysGreenWhenErrorHandledWithoutPropagate(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()
	err := Run(ctx, "S1", func(ctx context.Context) error {
		// Handled by the body; without Propagate the observation
		// mechanism is not engaged.
		Observe(ctx, errors.New("nope"))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, report.StatusPassed, requireSingleRoot(t, rec).Status)
}

func TestNestedStepsUncaughtErrorBubbles(t *testing.T) {
	t.Parallel()

	boom := errors.New("x")
	ctx, rec := newTestContext()
	err := Run(ctx, "P", func(ctx context.Context) error {
		return Run(ctx, "C", func(ctx context.Context) error {
			return boom
		})
	})
	require.Same(t, boom, err)

	parent := requireSingleRoot(t, rec)
	require.Equal(t, report.StatusFailed, parent.Status)
	require.Len(t, parent.Steps, 1)
	require.Equal(t, "C", parent.Steps[0].Name)
	require.Equal(t, report.StatusFailed, parent.Steps[0].Status)
}

func TestNestedStepsAllPass(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()
	err := Run(ctx, "step 1", func(ctx context.Context) error {
		return Run(ctx, "step 2", func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)

	root := requireSingleRoot(t, rec)
	require.Equal(t, report.StatusPassed, root.Status)
	require.Equal(t, report.StatusPassed, root.Steps[0].Status)
}

func TestAttachDoesNotAffectStatus(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()
	err := Run(ctx, "S1", func(ctx context.Context) error {
		Attach(ctx, "note", "text/plain", []byte("hello"))
		return nil
	})
	require.NoError(t, err)

	root := requireSingleRoot(t, rec)
	require.Equal(t, report.StatusPassed, root.Status)
	require.Len(t, root.Attachments, 1)
	require.Equal(t, "note", root.Attachments[0].Name)
	require.Equal(t, "text/plain", root.Attachments[0].MediaType)
}

func TestAttachOutsideAnyStepIsDropped(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()
	Attach(ctx, "orphan", "text/plain", []byte("x"))
	require.Empty(t, rec.Roots())
}

func TestRunWithoutReporterStillEnforcesSemantics(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := Run(context.Background(), "S1", func(ctx context.Context) error {
		return boom
	})
	require.Same(t, boom, err)
}

func TestRunRethrowsPanicUnchanged(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()
	require.PanicsWithValue(t, "kaboom", func() {
		_ = Run(ctx, "S1", func(ctx context.Context) error {
			panic("kaboom")
		})
	})

	root := requireSingleRoot(t, rec)
	require.Equal(t, report.StatusFailed, root.Status)
	require.Equal(t, "PanicError", root.FailureKind)
}

func TestRunWrapsErrorsForReporting(t *testing.T) {
	t.Parallel()

	ctx, rec := newTestContext()
	wrapped := fmt.Errorf("outer context: %w", errors.New("inner"))
	err := Run(ctx, "S1", func(ctx context.Context) error {
		return wrapped
	})
	require.Same(t, wrapped, err)
	require.Equal(t, scoperrors.Kind(wrapped), requireSingleRoot(t, rec).FailureKind)
}
