package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrTimeout indicates an external fetch exceeded its wall-clock limit
	ErrTimeout = errors.New("fetch timed out")

	// ErrNotProduced indicates the fetch tool exited successfully but the
	// expected output file does not exist
	ErrNotProduced = errors.New("fetch produced no output file")

	// ErrNotEligible indicates a file is not a recognized video container
	ErrNotEligible = errors.New("not an eligible video file")
)
