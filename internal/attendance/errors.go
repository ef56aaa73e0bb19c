package attendance

import (
	"errors"
	"fmt"
)

// ErrPlacementNotFound means the student has no active placement, or their
// community has no GPS-verified anchor yet. Fatal to the submission; the
// student must contact an administrator.
var ErrPlacementNotFound = errors.New("no verified community placement for this enrollment")

// ErrAlreadyRecorded means a record already exists for today. Online
// submissions treat this as a benign duplicate, not a failure.
var ErrAlreadyRecorded = errors.New("attendance already recorded for today")

// OutOfRangeError is a geofence violation. The distance travels back to the
// client so the UI can show how far off the student is.
type OutOfRangeError struct {
	Distance  float64
	Threshold float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out of range: %.0fm from community anchor (limit %.0fm)", e.Distance, e.Threshold)
}

// PersistenceError wraps a storage-layer failure. Retryable.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "attendance write failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
