// Package model defines the domain types for the qa-runner CLI.
//
// The entities here mirror the orchestration contract of the pipeline
// wrapper: a runtime Mode that selects the input/output file pair, an
// immutable RunConfig loaded once at process start, and the exit-code
// contract shared with the external Preparer and Worker programs.
//
// Key design decision: nothing in this package performs I/O. All state
// that survives a run lives in the fail log owned by internal/logsink.
package model

import (
	"fmt"
	"strings"
)

// Mode represents the deployment environment the wrapper runs in.
// The mode is resolved once at startup and determines which question
// file is consumed and which result file is produced.
type Mode string

const (
	// ModeDevelopment runs against the small local sample file.
	ModeDevelopment Mode = "development"

	// ModeStaging runs against the full local question set.
	ModeStaging Mode = "staging"

	// ModeProduction runs inside the submission container, where the
	// question data is mounted read-only under /tcdata and the result
	// must be written to /app.
	ModeProduction Mode = "production"
)

// String returns the string representation of Mode.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and log lines.
func (m Mode) String() string {
	return string(m)
}

// IsValid checks whether the Mode value is one of the predefined
// valid environments.
func (m Mode) IsValid() bool {
	switch m {
	case ModeDevelopment, ModeStaging, ModeProduction:
		return true
	default:
		return false
	}
}

// ParseMode converts a string to a Mode.
// Returns an error if the string does not match any valid mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid mode: %q (valid: development, staging, production)", s)
	}
	return mode, nil
}

// ModePaths holds the input/output file pair selected by a Mode.
type ModePaths struct {
	// InputPath is the question JSONL file consumed by the Preparer.
	InputPath string `json:"inputPath"`

	// OutputPath is the result JSONL file produced by the Preparer and
	// then worked on by each Worker attempt.
	OutputPath string `json:"outputPath"`
}

// modeTable is the fixed Mode → file path mapping. Production paths are
// absolute because the submission container mounts the question data at
// /tcdata and collects the result from /app.
var modeTable = map[Mode]ModePaths{
	ModeDevelopment: {InputPath: "question_c_1.json", OutputPath: "result_1.json"},
	ModeStaging:     {InputPath: "question_c.json", OutputPath: "result.json"},
	ModeProduction:  {InputPath: "/tcdata/question_d.json", OutputPath: "/app/result.json"},
}

// ResolvePaths returns the input/output file pair for the given mode.
// An unknown mode is a configuration error, not a runtime one: callers
// must treat it as immediately fatal with no retry.
func ResolvePaths(mode Mode) (ModePaths, error) {
	paths, ok := modeTable[mode]
	if !ok {
		return ModePaths{}, fmt.Errorf("invalid mode: %q (valid: development, staging, production)", mode)
	}
	return paths, nil
}

// RunConfig holds the orchestration parameters loaded once from the
// configuration source at process start. The struct is immutable for
// the lifetime of the process; the retry loop reads it but never
// modifies it.
type RunConfig struct {
	// Mode selects the deployment environment and thereby the
	// input/output file pair.
	Mode Mode `json:"mode" yaml:"mode"`

	// MaxRetries bounds the number of Worker invocations tolerated
	// without a success or a fatal code. Must be >= 0.
	// A value of 0 means the Worker is never invoked.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries"`

	// MaxConcurrency is passed opaquely to the Worker as its first
	// positional argument. The Worker may parallelize internally up to
	// this limit; the wrapper itself never runs more than one
	// subprocess at a time. Must be >= 1.
	MaxConcurrency int `json:"maxConcurrency" yaml:"maxConcurrency"`
}

// Validate checks whether the RunConfig field values are within their
// allowed ranges. The mode is validated separately during path
// resolution so that an invalid mode reaches the fail log.
func (c *RunConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must be >= 0, got %d", c.MaxRetries)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("maxConcurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	return nil
}

// Worker exit codes per the external process contract. Exit code 0 is
// success and any code not listed here is a transient failure that the
// orchestrator retries against the attempt budget.
const (
	// WorkerExitBalanceDepleted signals that the LLM account backing
	// the Worker ran out of balance. Retrying cannot succeed, so the
	// orchestrator aborts immediately regardless of remaining budget.
	WorkerExitBalanceDepleted = 2

	// WorkerExitTimeout signals that the Worker self-detected that it
	// exceeded its own time limit. Also immediately fatal: the wrapper
	// imposes no timeout of its own and does not retry one.
	WorkerExitTimeout = 3
)

// ExitCode defines the process exit codes of qa-runner itself.
// The wrapper's contract to its caller is deliberately coarse:
// every fatal condition (invalid mode, prepare failure, fatal worker
// code, retries exhausted) collapses to exit code 1, and the fail log
// carries the distinguishing detail.
type ExitCode int

const (
	// ExitSuccess indicates the Worker succeeded at least once.
	ExitSuccess ExitCode = 0

	// ExitFailure indicates any fatal condition.
	ExitFailure ExitCode = 1
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
// It combines the message with the underlying error if present.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, enabling errors.Is/errors.As
// to traverse the error chain.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps an underlying error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
