package protocoltypes

import "fmt"

// GenerateRequest is one single-turn text generation call.
type GenerateRequest struct {
	Model  string
	System string
	Prompt string
	// JSON asks the backend to constrain the reply to a JSON document when
	// it supports that.
	JSON        bool
	Temperature *float64
}

// GenerateResponse carries the raw text reply.
type GenerateResponse struct {
	Content string
	Model   string
}

// StatusError is a non-success HTTP reply from a backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed (status=%d): %s", e.Provider, e.StatusCode, e.Message)
}

// HTTPStatus lets retry logic classify the error without importing this
// package.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }
