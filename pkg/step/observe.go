package step

import (
	"context"
	"errors"
	"io"
)

// Observe reports an error the body raised and handled itself. The innermost
// open propagating scope captures it as its own, and every open propagating
// scope receives it as a broadcast, first-wins per scope. Without an open
// propagating scope, Observe is a no-op: handled errors only matter to the
// propagate mechanism.
//
// io.EOF is excluded as an iteration-sentinel, never a failure.
func Observe(ctx context.Context, err error) {
	if err == nil || errors.Is(err, io.EOF) {
		return
	}
	st := stateFrom(ctx)
	if st == nil || len(st.prop) == 0 {
		return
	}

	innermost := st.prop[len(st.prop)-1]
	if innermost.caught == nil {
		innermost.caught = err
	}
	for _, sc := range st.prop {
		if sc.observed == nil {
			sc.observed = err
		}
	}
}

// Attach records a named blob against the innermost open step. It is a pure
// side channel: it never affects any scope's status, and it is silently
// dropped when no reporter or no open step is present.
func Attach(ctx context.Context, name, mediaType string, content []byte) {
	rep := reporterFrom(ctx)
	if rep == nil {
		return
	}
	st := stateFrom(ctx)
	if st == nil {
		return
	}
	h := st.currentOpen()
	if h == nil {
		return
	}
	rep.Attach(h, name, mediaType, content)
}
