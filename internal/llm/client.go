// Package llm runs prompts against model providers. A Client is one
// provider connection bound to a concrete model; the Executor drives
// requests through it, streams output to the terminal, and retries
// generations whose results fail validation.
package llm

import "context"

// Client is a provider connection bound to a concrete model.
type Client interface {
	// Complete sends the prompts and returns the full completion.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// CompleteStream sends the prompts and returns channels of
	// incremental content deltas. Both channels are closed when the
	// stream ends; at most one error is delivered.
	CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan error)

	// ModelID returns the model identifier sent to the provider.
	ModelID() string

	// KeyEnvVar names the environment variable holding this
	// provider's credential, or "" when none is needed.
	KeyEnvVar() string
}
