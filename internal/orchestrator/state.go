package orchestrator

import (
	"fmt"

	"github.com/shinji-kodama/qa-runner/internal/model"
)

// State represents the orchestrator's position in its run lifecycle.
// The transitions are:
//
//	Init → ModeResolved → Prepared → Retrying → {Success, FatalBilling,
//	       FatalTimeout, RetriesExhausted}
//
// with early exits Init → InvalidMode and ModeResolved → PrepareFailed.
// Every state in the final set is terminal; only Success maps to
// process exit code 0.
type State string

const (
	// StateInit is the starting state before any work is done.
	StateInit State = "init"

	// StateModeResolved indicates the mode mapped to a valid
	// input/output file pair.
	StateModeResolved State = "mode-resolved"

	// StatePrepared indicates the Preparer completed successfully.
	StatePrepared State = "prepared"

	// StateRetrying indicates the Worker retry loop is active.
	StateRetrying State = "retrying"

	// StateSuccess indicates a Worker invocation exited 0.
	StateSuccess State = "success"

	// StateInvalidMode indicates the configured mode is not one of the
	// three known environments. No subprocess was invoked.
	StateInvalidMode State = "invalid-mode"

	// StatePrepareFailed indicates the Preparer exited nonzero or
	// could not be started. The Worker was never invoked.
	StatePrepareFailed State = "prepare-failed"

	// StateFatalBilling indicates the Worker reported that the backing
	// account is in arrears (exit code 2).
	StateFatalBilling State = "fatal-billing"

	// StateFatalTimeout indicates the Worker reported that it ran out
	// of time (exit code 3).
	StateFatalTimeout State = "fatal-timeout"

	// StateRetriesExhausted indicates the transient-failure budget was
	// spent without a success or a fatal code.
	StateRetriesExhausted State = "retries-exhausted"
)

// String returns the string representation of State.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state ends the run. Once a terminal
// state is reached no further subprocess is invoked.
func (s State) IsTerminal() bool {
	switch s {
	case StateSuccess, StateInvalidMode, StatePrepareFailed,
		StateFatalBilling, StateFatalTimeout, StateRetriesExhausted:
		return true
	default:
		return false
	}
}

// ExitCode maps a terminal state to the wrapper's process exit code.
// Every terminal state except Success is a fatal condition and
// collapses to exit code 1; the fail log carries the detail.
func (s State) ExitCode() model.ExitCode {
	if s == StateSuccess {
		return model.ExitSuccess
	}
	return model.ExitFailure
}

// isAllowedTransition encodes the state machine edges. Terminal states
// have no outgoing edges.
func isAllowedTransition(from, to State) bool {
	switch from {
	case StateInit:
		return to == StateModeResolved || to == StateInvalidMode
	case StateModeResolved:
		return to == StatePrepared || to == StatePrepareFailed
	case StatePrepared:
		// Prepared → RetriesExhausted covers MaxRetries=0, where the
		// loop body never runs and the budget is already spent.
		return to == StateRetrying || to == StateRetriesExhausted
	case StateRetrying:
		return to == StateSuccess || to == StateFatalBilling ||
			to == StateFatalTimeout || to == StateRetriesExhausted
	default:
		return false
	}
}

// transition moves the orchestrator to the given state, rejecting any
// edge not in the state machine. A rejected transition indicates a bug
// in the run loop, not a runtime condition.
func (o *Orchestrator) transition(to State) error {
	if !isAllowedTransition(o.state, to) {
		return fmt.Errorf("disallowed state transition: %s -> %s", o.state, to)
	}
	o.state = to
	return nil
}
