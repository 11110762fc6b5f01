package nusmods

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCatalog is matched (errors.Is) by every catalog fetch failure
var ErrCatalog = errors.New("catalog fetch failed")

// ErrEmptyResponse is returned when the API answers with a JSON null
var ErrEmptyResponse = errors.New("empty response")

// StatusError reports an unexpected HTTP status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// retryable reports whether a request answered with this status may succeed later
func (e *StatusError) retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// NetworkError is a failed catalog fetch. It is fatal for a run.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching catalog %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes every NetworkError match ErrCatalog
func (e *NetworkError) Is(target error) bool { return target == ErrCatalog }

// FetchError is a failed fetch of one module's details. The module is treated as
// absent.
type FetchError struct {
	ModuleCode string
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching module %s: %v", e.ModuleCode, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Cause supports errors.Cause from github.com/pkg/errors
func (e *FetchError) Cause() error { return e.Err }
