package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrRunInProgress is returned when a refresh is requested while one is running
	ErrRunInProgress = errors.New("analysis refresh already in progress")

	// ErrRefreshTimeout is returned when a refresh exceeds its job timeout
	ErrRefreshTimeout = errors.New("analysis refresh timed out")
)
