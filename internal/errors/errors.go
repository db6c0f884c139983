package apperrors

import (
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the process.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess      = 0   // Indicates successful execution.
	ExitErrorGeneric = 1   // Indicates a generic error.
	ExitErrorConfig  = 4   // Indicates a configuration error.
	ExitErrorSignal  = 130 // Indicates the process was interrupted (e.g., SIGINT).
)

// ErrPoolClosed is returned when work is submitted to a worker pool that has
// already been shut down.
var ErrPoolClosed = errors.New("worker pool is closed")

// ErrOrchestratorClosed is returned when a job is submitted after the
// orchestrator has been shut down.
var ErrOrchestratorClosed = errors.New("orchestrator is closed")

// ConfigError represents a user configuration error, such as invalid flags or
// environment values. It indicates that the application cannot start due to
// incorrect input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// JobError encapsulates a failure of one compute job while preserving the
// original cause. The job ID is carried so the failure can be correlated with
// logs and metrics without exposing internal detail to HTTP clients.
type JobError struct {
	// JobID identifies the job that failed.
	JobID string
	// Cause is the underlying error that failed the job.
	Cause error
}

// Error returns a formatted message identifying the failed job.
func (e JobError) Error() string {
	return fmt.Sprintf("job %s failed: %v", e.JobID, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e JobError) Unwrap() error { return e.Cause }

// NewJobError wraps a cause as a JobError for the given job.
func NewJobError(jobID string, cause error) error {
	return JobError{JobID: jobID, Cause: cause}
}
