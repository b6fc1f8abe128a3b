package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStaleCheckpoint means an Append lost the per-thread compare-and-swap:
	// the base sequence no longer matches the latest checkpoint. The caller
	// must re-read Latest and resubmit; the store never retries internally.
	ErrStaleCheckpoint = errors.New("stale checkpoint")

	// ErrConcurrentTurnConflict is the turn-level surface of ErrStaleCheckpoint:
	// a concurrent turn committed first, so this turn's delta was discarded.
	ErrConcurrentTurnConflict = errors.New("concurrent turn conflict")

	// ErrToolLoopExceeded means the reasoning/tool round-trip bound was hit.
	// The orchestrator best-effort-commits the partial history before
	// returning it.
	ErrToolLoopExceeded = errors.New("tool loop exceeded")

	// ErrToolTimeout means a single tool invocation ran past its deadline.
	// Recovered inside the turn loop, never fatal on its own.
	ErrToolTimeout = errors.New("tool timeout")

	// ErrInvalidFlashcard means the flashcard arguments failed validation.
	ErrInvalidFlashcard = errors.New("invalid flashcard")

	// ErrInvalidQuery means the retrieval query arguments failed validation.
	ErrInvalidQuery = errors.New("invalid query")
)
