// Package orchestrator implements the prepare-then-retry control flow
// of the qa-runner CLI.
//
// The core algorithm is a single pass through a small state machine:
//
//	Init → ModeResolved → Prepared → Retrying → terminal
//
// The Preparer runs exactly once; the Worker runs under a bounded
// retry loop with a flat one-second delay between transient failures.
// Worker exit codes 2 (billing) and 3 (timeout) abort the run outright
// without consuming the retry budget — the attempt counter advances
// only on the generic-failure branch. This asymmetry is part of the
// external contract and is preserved deliberately.
//
// The external programs are abstracted behind the narrow Preparer and
// Worker interfaces so tests can substitute fakes without spawning
// real processes; internal/proc provides the subprocess-backed
// implementations used in production.
package orchestrator
