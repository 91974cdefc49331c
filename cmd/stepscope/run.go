package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stepscope/internal/config"
	"stepscope/internal/engine"
	"stepscope/internal/logger"
	"stepscope/internal/model"
	"stepscope/pkg/report"
)

type runOptions struct {
	ConfigPath string
	OutputDir  string
	Verbose    bool
	Out        io.Writer
}

var runCmdRunner = runScenario

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			opts.Out = cmd.OutOrStdout()

			if err := validateRunOptions(opts); err != nil {
				return err
			}

			return runCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to scenario file")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "Directory for result files (overrides the scenario setting)")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runScenario(opts runOptions) error {
	scenario, err := config.ParseScenario(opts.ConfigPath)
	if err != nil {
		return err
	}

	effectiveVerbose := opts.Verbose || scenario.Settings.Verbose
	level := "info"
	if effectiveVerbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = scenario.Settings.OutputDir
	}

	var reporter report.Reporter
	if outputDir != "" {
		writer, err := report.NewAllureWriter(outputDir, log.Zerolog())
		if err != nil {
			return err
		}
		reporter = writer
	} else {
		reporter = report.NewRecorder()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	execCtx := &engine.ExecutionContext{
		Scenario: scenario,
		Reporter: reporter,
		Logger:   log,
		Verbose:  effectiveVerbose,
		Context:  ctx,
	}

	results, execErr := engine.Execute(execCtx)
	printSummary(opts.Out, scenario, results)

	return execErr
}

func printSummary(out io.Writer, scenario *config.Scenario, results []model.StepResult) {
	if out == nil {
		return
	}

	fmt.Fprintf(out, "Scenario: %s\n", scenario.Name)

	var completed, failed, skipped int
	for _, res := range results {
		marker := "✔"
		switch res.Status {
		case model.StatusFailed:
			marker = "✖"
			failed++
		case model.StatusSkipped:
			marker = "-"
			skipped++
		default:
			completed++
		}

		if res.Error != nil {
			fmt.Fprintf(out, "  %s %s: %v\n", marker, res.Title, res.Error)
		} else {
			fmt.Fprintf(out, "  %s %s\n", marker, res.Title)
		}
	}

	fmt.Fprintf(out, "%d steps: %d completed, %d failed, %d skipped\n", len(results), completed, failed, skipped)
}
