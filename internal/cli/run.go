// Package cli — run.go implements the "qa-runner run" command.
//
// The run command is the wrapper's main entry point: it loads the
// configuration, recreates the fail log, resolves the mode to its
// question/result file pair, runs the external prepare program once,
// then runs the external run program under the bounded retry loop.
//
// Worker exit code 2 (account in arrears) and 3 (timeout) abort the run
// immediately; any other nonzero exit is retried after a one-second
// pause until the retry budget is spent.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/qa-runner/internal/config"
	"github.com/shinji-kodama/qa-runner/internal/logsink"
	"github.com/shinji-kodama/qa-runner/internal/model"
	"github.com/shinji-kodama/qa-runner/internal/orchestrator"
	"github.com/shinji-kodama/qa-runner/internal/proc"
)

// runOptions carries the run command's flag values. The *Set booleans
// record whether a flag was given explicitly, so that zero values can
// still override the configuration file.
type runOptions struct {
	configPath string

	mode string

	maxRetries    int
	maxRetriesSet bool

	maxConcurrency    int
	maxConcurrencySet bool
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prepare the result file and run the worker with retries",
		Long: `Run one full orchestration cycle: recreate the fail log, resolve the
configured mode to its question/result file pair, invoke the prepare
program once, then invoke the run program until it succeeds, reports a
fatal condition, or the retry budget is exhausted.

Examples:
  qa-runner run
  qa-runner run --mode development
  qa-runner run --config deploy/qa-runner.yaml --max-retries 10`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			opts.maxRetriesSet = cmd.Flags().Changed("max-retries")
			opts.maxConcurrencySet = cmd.Flags().Changed("max-concurrency")
			return runRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the config file")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Deployment mode (development/staging/production)")
	cmd.Flags().IntVar(&opts.maxRetries, "max-retries", 0, "Transient worker failures tolerated before giving up")
	cmd.Flags().IntVar(&opts.maxConcurrency, "max-concurrency", 0, "Concurrency limit passed to the worker")

	return cmd
}

// loadRunConfig layers the configuration sources for the run and
// prepare commands: defaults, config file, environment, then flags.
func loadRunConfig(opts runOptions) (*config.Config, model.RunConfig, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, model.RunConfig{}, model.WrapCLIError(model.ExitFailure, "failed to load configuration", err)
	}

	applyFlagOverrides(cfg, opts)

	rc, err := cfg.RunConfig()
	if err != nil {
		return nil, model.RunConfig{}, model.WrapCLIError(model.ExitFailure, "invalid configuration", err)
	}
	return cfg, rc, nil
}

// applyFlagOverrides overlays explicitly given flags onto the loaded
// configuration. Flags are the last layer, above file and environment.
func applyFlagOverrides(cfg *config.Config, opts runOptions) {
	if opts.mode != "" {
		cfg.Mode = opts.mode
	}
	if opts.maxRetriesSet {
		cfg.MaxRetries = opts.maxRetries
	}
	if opts.maxConcurrencySet {
		cfg.MaxConcurrency = opts.maxConcurrency
	}
}

// runRun is the main logic function for the run command.
func runRun(ctx context.Context, opts runOptions) error {
	cfg, rc, err := loadRunConfig(opts)
	if err != nil {
		return err
	}

	VerboseLog("mode %q, maxRetries=%d, maxConcurrency=%d", rc.Mode, rc.MaxRetries, rc.MaxConcurrency)
	if paths, err := model.ResolvePaths(rc.Mode); err == nil {
		VerboseLog("input %s, output %s", paths.InputPath, paths.OutputPath)
	}

	sink := logsink.New(cfg.LogFile)
	orch := orchestrator.New(rc,
		proc.NewPreparer(cfg.PrepareCommand, ""),
		proc.NewWorker(cfg.RunCommand, ""),
		sink)

	state, err := orch.Run(ctx)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "run aborted", err)
	}
	if state != orchestrator.StateSuccess {
		return model.NewCLIError(model.ExitFailure,
			fmt.Sprintf("run failed: %s (see %s)", orchestrator.FailureMessage(state), sink.Path()))
	}

	printRunResult(rc, orch.Attempts())
	return nil
}

// printRunResult outputs the run command result in text or JSON format.
func printRunResult(rc model.RunConfig, transientFailures int) {
	// The mode resolved earlier in the run, so the error is impossible
	// here; the zero value keeps the output sane regardless.
	paths, _ := model.ResolvePaths(rc.Mode)

	if IsJSONOutput() {
		result := struct {
			Mode              string `json:"mode"`
			OutputPath        string `json:"outputPath"`
			TransientFailures int    `json:"transientFailures"`
		}{
			Mode:              rc.Mode.String(),
			OutputPath:        paths.OutputPath,
			TransientFailures: transientFailures,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Run succeeded in mode %q\n", rc.Mode)
	fmt.Printf("  Result:  %s\n", paths.OutputPath)
	fmt.Printf("  Worker:  %d invocation(s), %d transient failure(s)\n",
		transientFailures+1, transientFailures)
}
