package providers

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NetworkError means the completion endpoint could not be reached or the
// request was abandoned before a response arrived.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseError means the endpoint answered but the answer was unusable:
// a non-2xx status, an undecodable body, or no generated text.
type ResponseError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ResponseError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ResponseError) Unwrap() error { return e.Err }

func missingResult(provider string) error {
	return &ResponseError{Provider: provider, Message: "response has no generated content"}
}

// classify maps an SDK error onto the provider error types. statusOf extracts
// the HTTP status from the SDK's API error type, returning 0 when err is not one.
func classify(provider string, err error, statusOf func(error) (int, string)) error {
	if status, msg := statusOf(err); status != 0 {
		return &ResponseError{Provider: provider, StatusCode: status, Message: msg, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &ResponseError{Provider: provider, Message: "malformed response body", Err: err}
	}
	return &NetworkError{Provider: provider, Err: err}
}
