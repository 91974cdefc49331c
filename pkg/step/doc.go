// Package step provides scoped, named test-reporting steps with three
// failure-propagation policies on top of a pluggable step reporter:
//
//   - Propagate: a step is marked failed even when its body handled the error
//     itself (reported via Observe), and the handled error is re-raised at the
//     step's own boundary.
//   - RaiseOnParent: the handled error is surfaced at the nearest enclosing
//     propagating scope instead of at this step's boundary.
//   - RunAggregate: every nested step executes regardless of earlier failures,
//     and a single AggregateError listing all of them is raised at the end.
//
// Scope nesting state is threaded through the context and is exclusively
// owned by one goroutine; use Detach before handing a context to workers.
package step
