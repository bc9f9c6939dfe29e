// Package cli — answers.go implements the "qa-runner answers" command.
//
// The answers command lists the records of the result JSONL file:
// each question's id, text, and current answer, with filters for the
// records a future worker attempt would still pick up (pending and
// failed ones). The default file is the configured mode's result path.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/qa-runner/internal/answers"
	"github.com/shinji-kodama/qa-runner/internal/model"
)

// answersOptions carries the answers command's flag values.
type answersOptions struct {
	configPath string
	mode       string
	file       string

	pendingOnly bool
	failedOnly  bool
}

// NewAnswersCommand creates the "answers" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewAnswersCommand() *cobra.Command {
	var opts answersOptions

	cmd := &cobra.Command{
		Use:   "answers",
		Short: "List answers from the result file",
		Long: `Read the result file and print each record's id, question, and answer,
followed by a per-status summary.

By default the result file is the one resolved from the configured mode;
--file overrides it. --pending and --failed restrict the listing to the
records a further worker attempt would still process.

Examples:
  qa-runner answers
  qa-runner answers --file result_1.json
  qa-runner answers --pending --failed`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswers(opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the config file")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Deployment mode (development/staging/production)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Result file to read (overrides the mode's path)")
	cmd.Flags().BoolVar(&opts.pendingOnly, "pending", false, "Show only records with a blank answer")
	cmd.Flags().BoolVar(&opts.failedOnly, "failed", false, "Show only records with a failed answer")

	return cmd
}

// runAnswers is the main logic function for the answers command.
func runAnswers(opts answersOptions) error {
	path, err := resolveAnswersFile(opts)
	if err != nil {
		return err
	}

	VerboseLog("reading result file %s", path)

	records, err := answers.Load(path)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to read answers", err)
	}

	summary := answers.Summarize(records)
	shown := selectRecords(records, opts.pendingOnly, opts.failedOnly)
	printAnswers(shown, summary)
	return nil
}

// resolveAnswersFile determines which result file to read: an explicit
// --file wins, otherwise the configured mode's output path.
func resolveAnswersFile(opts answersOptions) (string, error) {
	if opts.file != "" {
		return opts.file, nil
	}

	_, rc, err := loadRunConfig(runOptions{configPath: opts.configPath, mode: opts.mode})
	if err != nil {
		return "", err
	}
	paths, err := model.ResolvePaths(rc.Mode)
	if err != nil {
		return "", model.WrapCLIError(model.ExitFailure, "invalid mode", err)
	}
	return paths.OutputPath, nil
}

// selectRecords applies the --pending/--failed filters. Setting both
// selects the union — exactly the records a further worker attempt
// would pick up. Setting neither selects everything.
func selectRecords(records []answers.Record, pendingOnly, failedOnly bool) []answers.Record {
	if !pendingOnly && !failedOnly {
		return records
	}

	var out []answers.Record
	if pendingOnly {
		out = append(out, answers.Filter(records, answers.StatusPending)...)
	}
	if failedOnly {
		out = append(out, answers.Filter(records, answers.StatusFailed)...)
	}
	return out
}

// printAnswers outputs the records in text or JSON format.
func printAnswers(records []answers.Record, summary answers.Summary) {
	if IsJSONOutput() {
		printAnswersJSON(records, summary)
	} else {
		printAnswersText(records, summary)
	}
}

// recordJSON is the JSON shape of one listed record, the record fields
// plus the derived status.
type recordJSON struct {
	ID       json.Number `json:"id"`
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Status   string      `json:"status"`
}

// printAnswersJSON outputs the records and summary as structured JSON.
func printAnswersJSON(records []answers.Record, summary answers.Summary) {
	result := struct {
		Records []recordJSON    `json:"records"`
		Summary answers.Summary `json:"summary"`
	}{
		Records: make([]recordJSON, 0, len(records)),
		Summary: summary,
	}

	for _, rec := range records {
		result.Records = append(result.Records, recordJSON{
			ID:       rec.ID,
			Question: rec.Question,
			Answer:   rec.Answer,
			Status:   string(rec.Status()),
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printAnswersText outputs the records as id/question/answer blocks
// separated by blank lines, then a one-line summary.
func printAnswersText(records []answers.Record, summary answers.Summary) {
	for _, rec := range records {
		fmt.Println(rec.ID)
		fmt.Println(rec.Question)
		fmt.Println(rec.Answer)
		fmt.Println()
	}

	fmt.Printf("%d record(s): %d answered, %d pending, %d failed\n",
		summary.Total(), summary.Answered, summary.Pending, summary.Failed)
}
