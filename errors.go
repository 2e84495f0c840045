package simcore

import "errors"

// ErrInvalidHandle is returned when a PhaseHandle does not refer to a
// registered phase. Every phase-mutating method validates its handle
// before touching driver state.
var ErrInvalidHandle = errors.New("simcore: invalid phase handle")

// ErrRunning is returned by the task-registration calls made while Run
// is executing; AddPhase, which returns no error, panics with it
// instead. Phase topology is fixed once a run has started (spec §4.5).
var ErrRunning = errors.New("simcore: cannot modify phases while running")
