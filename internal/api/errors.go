package api

import (
	"errors"
	"fmt"
)

// ErrorKind partitions classifier failures by how they should be
// handled: RateLimited and Transport are transient and safe to retry,
// Malformed and Unauthorized are not.
type ErrorKind string

const (
	KindRateLimited  ErrorKind = "rate_limited"
	KindTransport    ErrorKind = "transport"
	KindMalformed    ErrorKind = "malformed_response"
	KindUnauthorized ErrorKind = "unauthorized"
)

// ClassifierError represents a failed classification call.
type ClassifierError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int // 0 when the failure never reached HTTP status
}

func (e *ClassifierError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("classifier error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("classifier error (%s): %s", e.Kind, e.Message)
}

// Transient reports whether retrying the same call can succeed.
func (e *ClassifierError) Transient() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTransport
}

// IsTransient reports whether err is a transient classifier error.
func IsTransient(err error) bool {
	var ce *ClassifierError
	return errors.As(err, &ce) && ce.Transient()
}

// Kind returns the error kind of err, or "" if err is not a
// ClassifierError.
func Kind(err error) ErrorKind {
	var ce *ClassifierError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
