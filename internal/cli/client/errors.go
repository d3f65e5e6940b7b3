package client

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when no response arrived within the client timeout
	ErrTimeout = errors.New("request timeout")
	// ErrNetwork is returned when the request never produced a response
	ErrNetwork = errors.New("network error, please check your connection and try again")
	// ErrUnauthorized is returned for 401 responses; the stored token is already cleared
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRejected is returned when the backend answered with success:false or an error status
	ErrRejected = errors.New("request rejected")
)

// APIError annotates a failed call with the request that caused it
type APIError struct {
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show a user for err: the backend message
// verbatim when there is one, otherwise the error itself.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
