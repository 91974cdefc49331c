package step

import (
	"context"

	"github.com/rs/zerolog"

	"stepscope/pkg/report"
)

type stateKeyType struct{}
type reporterKeyType struct{}
type loggerKeyType struct{}

var (
	stateKey    stateKeyType
	reporterKey reporterKeyType
	loggerKey   loggerKeyType
)

// scopeState holds the per-goroutine nesting stacks: open aggregation frames,
// open propagating scopes, and the reporter handles of every open scope.
// It is created lazily by the outermost Run/RunAggregate call and mutated
// only by the goroutine that owns the context chain.
type scopeState struct {
	agg  []*aggFrame
	prop []*scope
	open []report.StepHandle
}

// stateFor returns the scope state threaded through ctx, installing a fresh
// one when absent. The returned context must be the one handed to the body so
// nested scopes share the same stacks.
func stateFor(ctx context.Context) (context.Context, *scopeState) {
	if st, ok := ctx.Value(stateKey).(*scopeState); ok && st != nil {
		return ctx, st
	}
	st := &scopeState{}
	return context.WithValue(ctx, stateKey, st), st
}

func stateFrom(ctx context.Context) *scopeState {
	st, _ := ctx.Value(stateKey).(*scopeState)
	return st
}

func (s *scopeState) currentAggregate() *aggFrame {
	if len(s.agg) == 0 {
		return nil
	}
	return s.agg[len(s.agg)-1]
}

// popAggregate removes the frame, expecting strict nesting. A frame found
// elsewhere than the top is removed from wherever it sits.
func (s *scopeState) popAggregate(fr *aggFrame) {
	if n := len(s.agg); n > 0 && s.agg[n-1] == fr {
		s.agg = s.agg[:n-1]
		return
	}
	for i, f := range s.agg {
		if f == fr {
			s.agg = append(s.agg[:i], s.agg[i+1:]...)
			return
		}
	}
}

// popPropagating mirrors popAggregate for the propagating-scope stack.
func (s *scopeState) popPropagating(sc *scope) {
	if n := len(s.prop); n > 0 && s.prop[n-1] == sc {
		s.prop = s.prop[:n-1]
		return
	}
	for i, p := range s.prop {
		if p == sc {
			s.prop = append(s.prop[:i], s.prop[i+1:]...)
			return
		}
	}
}

func (s *scopeState) pushOpen(h report.StepHandle) {
	s.open = append(s.open, h)
}

func (s *scopeState) popOpen(h report.StepHandle) {
	if n := len(s.open); n > 0 && s.open[n-1] == h {
		s.open = s.open[:n-1]
		return
	}
	for i, o := range s.open {
		if o == h {
			s.open = append(s.open[:i], s.open[i+1:]...)
			return
		}
	}
}

func (s *scopeState) currentOpen() report.StepHandle {
	if len(s.open) == 0 {
		return nil
	}
	return s.open[len(s.open)-1]
}

// WithReporter attaches the step reporter consumed by all scopes below ctx.
// Without a reporter the state machine still runs; only recording is skipped.
func WithReporter(ctx context.Context, rep report.Reporter) context.Context {
	return context.WithValue(ctx, reporterKey, rep)
}

func reporterFrom(ctx context.Context) report.Reporter {
	rep, _ := ctx.Value(reporterKey).(report.Reporter)
	return rep
}

// WithLogger enables step-boundary log lines for all scopes below ctx.
func WithLogger(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, &log)
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	log, _ := ctx.Value(loggerKey).(*zerolog.Logger)
	return log
}

// Detach strips the scope nesting state from ctx so a worker goroutine gets
// its own fresh stacks. The reporter and logger remain attached.
func Detach(ctx context.Context) context.Context {
	if stateFrom(ctx) == nil {
		return ctx
	}
	return context.WithValue(ctx, stateKey, nil)
}
