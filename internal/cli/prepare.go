// Package cli — prepare.go implements the "qa-runner prepare" command.
//
// The prepare command runs only the prepare step: it resolves the
// configured mode and invokes the external prepare program once,
// producing the blanked result file without starting the worker. This
// is useful when inspecting the prepared file before committing to a
// full (and possibly expensive) run.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/qa-runner/internal/model"
	"github.com/shinji-kodama/qa-runner/internal/proc"
)

// NewPrepareCommand creates the "prepare" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewPrepareCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Initialize the result file without running the worker",
		Long: `Resolve the configured mode to its question/result file pair and invoke
the prepare program once. The worker is not started and the fail log is
not touched.

Examples:
  qa-runner prepare
  qa-runner prepare --mode development`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the config file")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Deployment mode (development/staging/production)")

	return cmd
}

// runPrepare is the main logic function for the prepare command.
func runPrepare(ctx context.Context, opts runOptions) error {
	cfg, rc, err := loadRunConfig(opts)
	if err != nil {
		return err
	}

	// Outside a full run there is no fail log contract, so an invalid
	// mode is reported directly.
	paths, err := model.ResolvePaths(rc.Mode)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "invalid mode", err)
	}

	VerboseLog("preparing %s from %s", paths.OutputPath, paths.InputPath)

	preparer := proc.NewPreparer(cfg.PrepareCommand, "")
	res, err := preparer.Prepare(ctx, paths.InputPath, paths.OutputPath)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "preparer failed", err)
	}
	if !res.OK() {
		return model.NewCLIError(model.ExitFailure,
			fmt.Sprintf("preparer failed with exit code %d", res.ExitCode))
	}

	printPrepareResult(rc.Mode, paths)
	return nil
}

// printPrepareResult outputs the prepare command result in text or
// JSON format.
func printPrepareResult(mode model.Mode, paths model.ModePaths) {
	if IsJSONOutput() {
		result := struct {
			Mode       string `json:"mode"`
			InputPath  string `json:"inputPath"`
			OutputPath string `json:"outputPath"`
		}{
			Mode:       mode.String(),
			InputPath:  paths.InputPath,
			OutputPath: paths.OutputPath,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Prepared %s from %s (mode %q)\n", paths.OutputPath, paths.InputPath, mode)
}
