package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/shinji-kodama/qa-runner/internal/logsink"
	"github.com/shinji-kodama/qa-runner/internal/model"
)

// Result carries the outcome of a single external program invocation.
// The raw exit code is preserved because the Worker contract assigns
// meaning to specific nonzero codes (2 = billing, 3 = timeout).
type Result struct {
	// ExitCode is the raw process exit code.
	ExitCode int
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Preparer initializes the result file from the question file before
// any work begins. It is invoked exactly once per run; a failure is
// immediately fatal and the Worker is never started.
type Preparer interface {
	Prepare(ctx context.Context, inputPath, outputPath string) (Result, error)
}

// Worker performs the main work against the result file. It may be
// invoked repeatedly: a generic nonzero exit is transient and retried,
// while the contract codes 2 and 3 abort the run outright.
type Worker interface {
	Run(ctx context.Context, maxConcurrency int, outputPath string) (Result, error)
}

// Orchestrator drives one end-to-end run: reset the fail log, resolve
// the mode to its file pair, run the Preparer once, then run the Worker
// under the bounded retry loop.
//
// All mutable run state (the attempt counter and the current state) is
// held on this struct rather than in package globals, so the retry
// behavior is testable with fake Preparer/Worker implementations and no
// process-level side effects.
type Orchestrator struct {
	cfg      model.RunConfig
	preparer Preparer
	worker   Worker
	log      *logsink.Sink

	// retryDelay is the fixed pause between transient Worker failures.
	// There is deliberately no backoff: the original contract is a flat
	// one-second sleep.
	retryDelay time.Duration

	// sleep is time.Sleep, overridable in tests.
	sleep func(time.Duration)

	// attempts counts transient Worker failures observed so far.
	// Fatal codes (2, 3) bypass this counter entirely and abort the
	// run with budget remaining.
	attempts int

	// state is the current position in the run state machine.
	state State
}

// New creates an Orchestrator for one run. The configuration must
// already be validated; the mode however may still be invalid, since an
// invalid mode must be reported through the fail log rather than
// rejected up front.
func New(cfg model.RunConfig, preparer Preparer, worker Worker, log *logsink.Sink) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		preparer:   preparer,
		worker:     worker,
		log:        log,
		retryDelay: time.Second,
		sleep:      time.Sleep,
		state:      StateInit,
	}
}

// State returns the orchestrator's current state. After Run returns a
// nil error this is always a terminal state.
func (o *Orchestrator) State() State {
	return o.state
}

// Attempts returns the number of transient Worker failures observed.
func (o *Orchestrator) Attempts() int {
	return o.attempts
}

// Run executes one orchestration cycle and returns the terminal state.
//
// The returned error is non-nil only for conditions outside the domain
// contract: a fail log that cannot be written, a cancelled context, or
// an internal state machine bug. Every in-contract failure (invalid
// mode, prepare failure, fatal or exhausted worker) is reported through
// the terminal state and the fail log, with a nil error.
func (o *Orchestrator) Run(ctx context.Context) (State, error) {
	// Step 1: recreate the fail log so no stale entries survive.
	if err := o.log.Reset(); err != nil {
		return o.state, err
	}

	// Step 2: resolve the mode to its input/output file pair.
	paths, err := model.ResolvePaths(o.cfg.Mode)
	if err != nil {
		if logErr := o.log.Append("invalid mode: %s", o.cfg.Mode); logErr != nil {
			return o.state, logErr
		}
		if err := o.transition(StateInvalidMode); err != nil {
			return o.state, err
		}
		return o.state, nil
	}
	if err := o.transition(StateModeResolved); err != nil {
		return o.state, err
	}

	// Step 3: run the Preparer exactly once. A spawn failure and a
	// nonzero exit are equivalent here: either way the result file
	// cannot be trusted and the Worker must not run.
	res, err := o.preparer.Prepare(ctx, paths.InputPath, paths.OutputPath)
	if err != nil || !res.OK() {
		if logErr := o.log.Append("preparer failed"); logErr != nil {
			return o.state, logErr
		}
		if err := o.transition(StatePrepareFailed); err != nil {
			return o.state, err
		}
		return o.state, nil
	}
	if err := o.transition(StatePrepared); err != nil {
		return o.state, err
	}

	// Step 4: the Worker retry loop. The counter advances only on
	// transient failures; success and fatal codes leave the loop
	// immediately whatever the remaining budget.
	for o.attempts < o.cfg.MaxRetries {
		if err := ctx.Err(); err != nil {
			return o.state, err
		}
		if o.state != StateRetrying {
			if err := o.transition(StateRetrying); err != nil {
				return o.state, err
			}
		}

		res, err := o.worker.Run(ctx, o.cfg.MaxConcurrency, paths.OutputPath)
		if err != nil {
			// The worker could not be started at all. In the original
			// shell wrapper this surfaces as exit code 127 and lands in
			// the generic retry branch, so it is treated as transient.
			if logErr := o.log.Append("worker failed: %v, retrying", err); logErr != nil {
				return o.state, logErr
			}
			o.attempts++
			o.sleep(o.retryDelay)
			continue
		}

		switch res.ExitCode {
		case 0:
			if err := o.transition(StateSuccess); err != nil {
				return o.state, err
			}
			return o.state, nil
		case model.WorkerExitBalanceDepleted:
			if logErr := o.log.Append("account in arrears"); logErr != nil {
				return o.state, logErr
			}
			if err := o.transition(StateFatalBilling); err != nil {
				return o.state, err
			}
			return o.state, nil
		case model.WorkerExitTimeout:
			if logErr := o.log.Append("execution timed out"); logErr != nil {
				return o.state, logErr
			}
			if err := o.transition(StateFatalTimeout); err != nil {
				return o.state, err
			}
			return o.state, nil
		default:
			if logErr := o.log.Append("worker exited with code %d, retrying", res.ExitCode); logErr != nil {
				return o.state, logErr
			}
			o.attempts++
			o.sleep(o.retryDelay)
		}
	}

	// Step 5: the budget is spent without a success or a fatal code.
	if logErr := o.log.Append("maximum retries reached"); logErr != nil {
		return o.state, logErr
	}
	if err := o.transition(StateRetriesExhausted); err != nil {
		return o.state, err
	}
	return o.state, nil
}

// FailureMessage returns the human-readable description of a failed
// terminal state, used by the CLI layer when composing its own error
// output. Calling it for a non-failure state is a programming error.
func FailureMessage(s State) string {
	switch s {
	case StateInvalidMode:
		return "invalid mode"
	case StatePrepareFailed:
		return "preparer failed"
	case StateFatalBilling:
		return "account in arrears"
	case StateFatalTimeout:
		return "execution timed out"
	case StateRetriesExhausted:
		return "maximum retries reached"
	default:
		return fmt.Sprintf("unexpected state %q", s)
	}
}
