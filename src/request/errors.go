package request

import (
	"errors"
	"fmt"
)

var (
	// ErrStatus marks a response whose status is outside [200, 400).
	ErrStatus = errors.New("status error")
	// ErrNetwork marks a request that never produced a response.
	ErrNetwork = errors.New("network error")
)

// RequestError is what a rejected Future carries.
type RequestError struct {
	Method     string
	Reason     string
	StatusCode int
	Exchange   *Exchange
	Err        error
}

func statusError(method string, code int, exchange *Exchange) *RequestError {
	return &RequestError{
		Method:     method,
		Reason:     fmt.Sprintf("Status Error %d", code),
		StatusCode: code,
		Exchange:   exchange,
		Err:        ErrStatus,
	}
}

func networkError(method string, cause error, exchange *Exchange) *RequestError {
	return &RequestError{
		Method:   method,
		Reason:   "Network Error",
		Exchange: exchange,
		Err:      errors.Join(ErrNetwork, cause),
	}
}

func (e *RequestError) Error() string {
	return e.Method + ": " + e.Reason
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
