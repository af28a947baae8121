package hazards

import "errors"

// Session and boundary errors. Classify itself never fails.
var (
	ErrDuplicateHazard = errors.New("hazard already present in session")
	ErrUnknownHazard   = errors.New("hazard not present in session")
	ErrInvalidQuestion = errors.New("question must be q1, q2, q3, or q4")
	ErrInvalidAnswer   = errors.New("answer must be yes, no, or unknown")
)
