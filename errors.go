package scribe

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates an input failed validation (blank topic, empty text).
	ErrValidation = errors.New("validation error")

	// ErrNoSession indicates an operation that needs a bound session was
	// called before StartNewSession or LoadSession.
	ErrNoSession = errors.New("no active session")

	// ErrSessionNotFound indicates the requested session id does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoActivePhase indicates the current session has no current phase.
	ErrNoActivePhase = errors.New("no active phase")

	// ErrAlreadyFinal indicates a transition was requested from the final phase.
	ErrAlreadyFinal = errors.New("already in final phase")

	// ErrUnknownPhase indicates a phase name or value outside the fixed set.
	ErrUnknownPhase = errors.New("unknown phase")

	// ErrUnknownCommand indicates a slash command that is not in the command table.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrStoreUnavailable indicates the graph store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAnalyzerFailure indicates the external analyzer failed, timed out,
	// or returned output that could not be used.
	ErrAnalyzerFailure = errors.New("analyzer failure")
)
