package engine

import (
	"context"

	"stepscope/internal/config"
	"stepscope/internal/logger"
	"stepscope/pkg/report"
)

// ExecutionContext contains runtime state shared across one scenario run.
type ExecutionContext struct {
	Scenario *config.Scenario
	Reporter report.Reporter
	Logger   *logger.Logger
	Verbose  bool
	Context  context.Context
}
