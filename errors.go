package freecap

import (
	"fmt"
	"time"
)

// ValidationError reports malformed caller input. It is raised before any
// network I/O and is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "freecap: validation: " + e.Message
}

// APIError reports a request the server rejected or a task it reported as
// failed. StatusCode is 0 when the failure was not tied to an HTTP status.
// Response carries the parsed body, if any, for diagnostics.
type APIError struct {
	Message    string
	StatusCode int
	Response   map[string]any
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("freecap: api: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "freecap: api: " + e.Message
}

func apiErrorf(statusCode int, response map[string]any, format string, args ...any) *APIError {
	return &APIError{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
		Response:   response,
	}
}

// TimeoutError reports that the solve deadline elapsed while the task was
// still non-terminal on the server.
type TimeoutError struct {
	TaskID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("freecap: task %s timed out after %s", e.TaskID, e.Timeout)
}
