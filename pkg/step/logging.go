package step

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"stepscope/pkg/report"
)

// logStart emits the step-start line when a logger is attached to ctx. The
// line is tagged with the package of the code that opened the scope. Logging
// is pass-through instrumentation: any failure in it is swallowed.
func logStart(ctx context.Context, title string) {
	log := loggerFrom(ctx)
	if log == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	log.Info().Str("module", callerPackage()).Msg(fmt.Sprintf("[STEP START] '%s'", title))
}

// logEnd emits the step-end line with the final PASS/FAIL verdict.
func logEnd(ctx context.Context, title string, status report.Status) {
	log := loggerFrom(ctx)
	if log == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	verdict := "PASS"
	if status == report.StatusFailed {
		verdict = "FAIL"
	}
	log.Info().Str("module", callerPackage()).Msg(fmt.Sprintf("[STEP END] '%s' - %s", title, verdict))
}

// callerPackage resolves the import path of the first caller outside this
// package. Unresolvable frames degrade to "unknown".
func callerPackage() string {
	for skip := 2; skip < 10; skip++ {
		pc, _, _, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		pkg := packageOf(fn.Name())
		if pkg != "stepscope/pkg/step" && !strings.HasPrefix(pkg, "runtime") {
			return pkg
		}
	}
	return "unknown"
}

// packageOf extracts the package path from a fully qualified function name
// such as "stepscope/internal/engine.(*runner).runStep".
func packageOf(funcName string) string {
	slash := strings.LastIndex(funcName, "/")
	rest := funcName[slash+1:]
	dot := strings.Index(rest, ".")
	if dot < 0 {
		return funcName
	}
	return funcName[:slash+1] + rest[:dot]
}
