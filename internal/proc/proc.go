// Package proc provides the subprocess-backed implementations of the
// orchestrator's Preparer and Worker interfaces.
//
// Both implementations run an external command (by default the Python
// pipeline scripts) with positional arguments appended per the process
// contract:
//
//	prepareCommand… <input_path> <output_path>
//	runCommand…     <max_concurrency> <output_path>
//
// Design decisions:
//   - We shell out via os/exec rather than embedding the pipeline,
//     because the substantive work lives in external programs that are
//     deployed alongside the wrapper and evolve independently.
//   - Subprocess stdout/stderr pass through to the wrapper's own
//     streams; the external programs maintain their own logs, and the
//     wrapper's fail log records only orchestration events.
//   - A nonzero exit is not an error at this layer. It is returned as
//     a Result carrying the raw exit code, because the orchestrator
//     assigns meaning to specific codes. Only a process that cannot be
//     started at all surfaces as an error.
package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shinji-kodama/qa-runner/internal/orchestrator"
)

// CommandPreparer runs the external prepare program.
type CommandPreparer struct {
	// Command is the program and its fixed leading arguments,
	// e.g. ["python3", "prepare.py"]. The input and output paths are
	// appended at invocation time.
	Command []string

	// Dir is the working directory for the subprocess. Empty means the
	// wrapper's own working directory.
	Dir string

	// Stdout and Stderr receive the subprocess output. They default to
	// the wrapper's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewPreparer creates a CommandPreparer for the given command line.
func NewPreparer(command []string, dir string) *CommandPreparer {
	return &CommandPreparer{Command: command, Dir: dir}
}

// Prepare invokes the prepare program once with the input and output
// paths as positional arguments.
func (p *CommandPreparer) Prepare(ctx context.Context, inputPath, outputPath string) (orchestrator.Result, error) {
	return run(ctx, p.Command, []string{inputPath, outputPath}, p.Dir, p.Stdout, p.Stderr)
}

// CommandWorker runs the external run program.
type CommandWorker struct {
	// Command is the program and its fixed leading arguments,
	// e.g. ["python3", "run.py"]. The concurrency limit and output
	// path are appended at invocation time.
	Command []string

	// Dir is the working directory for the subprocess. Empty means the
	// wrapper's own working directory.
	Dir string

	// Stdout and Stderr receive the subprocess output. They default to
	// the wrapper's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewWorker creates a CommandWorker for the given command line.
func NewWorker(command []string, dir string) *CommandWorker {
	return &CommandWorker{Command: command, Dir: dir}
}

// Run invokes the run program once with the concurrency limit and the
// output path as positional arguments.
func (w *CommandWorker) Run(ctx context.Context, maxConcurrency int, outputPath string) (orchestrator.Result, error) {
	args := []string{strconv.Itoa(maxConcurrency), outputPath}
	return run(ctx, w.Command, args, w.Dir, w.Stdout, w.Stderr)
}

// run executes a command as a child process and converts its outcome
// into an orchestrator.Result.
//
// The child inherits the wrapper's environment with PYTHONPATH extended
// by the working directory, so the external scripts can import their
// local modules regardless of where the wrapper was launched from.
func run(ctx context.Context, command, extraArgs []string, dir string, stdout, stderr io.Writer) (orchestrator.Result, error) {
	if len(command) == 0 {
		return orchestrator.Result{}, fmt.Errorf("empty command")
	}

	args := make([]string, 0, len(command)-1+len(extraArgs))
	args = append(args, command[1:]...)
	args = append(args, extraArgs...)

	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Dir = dir

	// Pass subprocess output straight through. The pipeline programs
	// write their own progress to stdout and keep their own log files.
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	libDir := dir
	if libDir == "" {
		libDir = "."
	}
	cmd.Env = withLocalPythonPath(os.Environ(), libDir)

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A nonzero exit is a contract outcome, not an error here.
		return orchestrator.Result{ExitCode: exitErr.ExitCode()}, nil
	}
	if err != nil {
		return orchestrator.Result{}, fmt.Errorf("failed to start %s: %w", command[0], err)
	}
	return orchestrator.Result{}, nil
}

// withLocalPythonPath returns a copy of env with dir prepended to
// PYTHONPATH, preserving any existing value. os.Environ() already
// returns a copy, but the append below may still share the backing
// array, so the slice is rebuilt explicitly.
func withLocalPythonPath(env []string, dir string) []string {
	const key = "PYTHONPATH="

	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if strings.HasPrefix(kv, key) {
			existing := strings.TrimPrefix(kv, key)
			value := dir
			if existing != "" {
				value = dir + string(os.PathListSeparator) + existing
			}
			out = append(out, key+value)
			found = true
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, key+dir)
	}
	return out
}
