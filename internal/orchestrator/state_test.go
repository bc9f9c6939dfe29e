package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shinji-kodama/qa-runner/internal/model"
)

// TestState_IsTerminal verifies the terminal/non-terminal split of the
// run state machine.
func TestState_IsTerminal(t *testing.T) {
	terminal := []State{
		StateSuccess, StateInvalidMode, StatePrepareFailed,
		StateFatalBilling, StateFatalTimeout, StateRetriesExhausted,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	for _, s := range []State{StateInit, StateModeResolved, StatePrepared, StateRetrying} {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

// TestState_ExitCode verifies that Success maps to exit 0 and every
// other terminal state collapses to exit 1.
func TestState_ExitCode(t *testing.T) {
	assert.Equal(t, model.ExitSuccess, StateSuccess.ExitCode())

	failures := []State{
		StateInvalidMode, StatePrepareFailed,
		StateFatalBilling, StateFatalTimeout, StateRetriesExhausted,
	}
	for _, s := range failures {
		assert.Equal(t, model.ExitFailure, s.ExitCode(), "%s should exit 1", s)
	}
}

// TestIsAllowedTransition covers the state machine edges, including
// the absence of outgoing edges from terminal states.
func TestIsAllowedTransition(t *testing.T) {
	tests := []struct {
		from, to State
		allowed  bool
	}{
		{StateInit, StateModeResolved, true},
		{StateInit, StateInvalidMode, true},
		{StateInit, StatePrepared, false},
		{StateModeResolved, StatePrepared, true},
		{StateModeResolved, StatePrepareFailed, true},
		{StateModeResolved, StateRetrying, false},
		{StatePrepared, StateRetrying, true},
		{StatePrepared, StateRetriesExhausted, true}, // MaxRetries=0
		{StatePrepared, StateSuccess, false},
		{StateRetrying, StateSuccess, true},
		{StateRetrying, StateFatalBilling, true},
		{StateRetrying, StateFatalTimeout, true},
		{StateRetrying, StateRetriesExhausted, true},
		{StateRetrying, StatePrepared, false},
		{StateSuccess, StateRetrying, false},
		{StateRetriesExhausted, StateRetrying, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, isAllowedTransition(tt.from, tt.to))
		})
	}
}

// TestTransition_Rejected verifies that an invalid edge leaves the
// state unchanged and reports an error.
func TestTransition_Rejected(t *testing.T) {
	o := &Orchestrator{state: StateInit}

	err := o.transition(StateSuccess)
	assert.Error(t, err)
	assert.Equal(t, StateInit, o.State())
}

// TestFailureMessage verifies the per-state descriptions used in CLI
// error output.
func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "invalid mode", FailureMessage(StateInvalidMode))
	assert.Equal(t, "preparer failed", FailureMessage(StatePrepareFailed))
	assert.Equal(t, "account in arrears", FailureMessage(StateFatalBilling))
	assert.Equal(t, "execution timed out", FailureMessage(StateFatalTimeout))
	assert.Equal(t, "maximum retries reached", FailureMessage(StateRetriesExhausted))
}
