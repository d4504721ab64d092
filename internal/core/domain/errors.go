package domain

import "fmt"

// BuildError means the model pipeline could not produce a usable result for
// this request. It is fatal: no partial archive is ever returned.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string { return e.Reason }

// NewBuildError formats a BuildError.
func NewBuildError(format string, args ...any) *BuildError {
	return &BuildError{Reason: fmt.Sprintf(format, args...)}
}

// FetchError is a failure in an upstream data service (Overpass, Nominatim).
// StatusCode is the HTTP status the API should answer with.
type FetchError struct {
	Message    string
	StatusCode int
}

func (e *FetchError) Error() string { return e.Message }

// NewFetchError builds a FetchError with the given response status.
func NewFetchError(statusCode int, format string, args ...any) *FetchError {
	return &FetchError{Message: fmt.Sprintf(format, args...), StatusCode: statusCode}
}
