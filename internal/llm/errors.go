package llm

import "fmt"

// EmptyPromptError reports a request with no user prompt, typically an
// empty diff or commit log.
type EmptyPromptError struct{}

func (e *EmptyPromptError) Error() string { return "prompt is empty" }

// RetryExhaustedError reports that every generation attempt failed
// validation. Err is the last validation failure.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d retries: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }
