package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitscribe/internal/render"
)

// Setting this to "1" echoes every prompt before it is sent.
const showPromptsEnv = "GITSCRIBE_SHOW_PROMPTS"

// Request is one generation request.
type Request struct {
	// Prompt is the user message, usually a diff or commit log.
	Prompt string

	// SystemPrompt carries the resolved prompt template.
	SystemPrompt string

	// Stream displays output incrementally as it arrives.
	Stream bool

	// Kind selects the highlighter for displayed output.
	Kind render.Kind
}

// Executor runs requests against one client and displays the output.
type Executor struct {
	client  Client
	display *render.Terminal
	logger  *zap.Logger
}

// NewExecutor builds an Executor.
func NewExecutor(client Client, display *render.Terminal, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{client: client, display: display, logger: logger}
}

// Execute runs the request and returns the full response text. A
// streaming request paints output while it arrives; a non-streaming
// one displays nothing. Provider errors are echoed with the prompts
// that produced them.
func (e *Executor) Execute(ctx context.Context, req Request) (string, error) {
	if req.Prompt == "" {
		return "", &EmptyPromptError{}
	}

	if os.Getenv(showPromptsEnv) == "1" {
		e.display.Header("Prompt:")
		e.display.Print(req.Prompt + "\n")
		e.display.Header("System Prompt:")
		e.display.Print(req.SystemPrompt + "\n")
	}

	session := uuid.New().String()[:8]
	e.logger.Debug("llm request",
		zap.String("session", session),
		zap.String("model", e.client.ModelID()),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("system_len", len(req.SystemPrompt)),
		zap.Bool("stream", req.Stream))

	var text string
	var err error
	if req.Stream {
		text, err = e.stream(ctx, req)
	} else {
		text, err = e.client.Complete(ctx, req.SystemPrompt, req.Prompt)
	}
	if err != nil {
		e.display.Error("prompt=" + req.Prompt)
		e.display.Error("system_prompt=" + req.SystemPrompt)
		e.display.Error(fmt.Sprintf("Error: %v", err))
		return "", err
	}

	e.logger.Debug("llm response",
		zap.String("session", session),
		zap.Int("response_len", len(text)))
	return text, nil
}

func (e *Executor) stream(ctx context.Context, req Request) (string, error) {
	contentChan, errChan := e.client.CompleteStream(ctx, req.SystemPrompt, req.Prompt)

	sink := e.display.Stream(req.Kind)
	var sb strings.Builder
	for fragment := range contentChan {
		sb.WriteString(fragment)
		sink.Write(fragment)
	}
	sink.Close()

	if err := <-errChan; err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WithRetry executes the request and passes the response through
// validate, regenerating on validation failure. Each retry appends the
// accumulated validation errors to the original prompt so the model
// can correct itself. Provider errors are returned immediately without
// retrying; when every attempt fails validation the result is a
// RetryExhaustedError wrapping the last failure.
func WithRetry[T any](ctx context.Context, e *Executor, req Request, validate func(string) (T, error), retries int) (T, error) {
	var zero T
	var errs []error
	originalPrompt := req.Prompt

	for i := 0; i < retries; i++ {
		req.Prompt = originalPrompt
		if len(errs) > 0 {
			errTexts := make([]string, len(errs))
			for j, err := range errs {
				errTexts[j] = err.Error()
			}
			req.Prompt = originalPrompt + "\n\nPrevious errors:\n```\n" + strings.Join(errTexts, "\n") + "\n```\n"
		}

		text, err := e.Execute(ctx, req)
		if err != nil {
			return zero, err
		}

		result, err := validate(text)
		if err == nil {
			return result, nil
		}
		e.display.Error(fmt.Sprintf("Error: %v, trying again", err))
		errs = append(errs, err)
	}

	return zero, &RetryExhaustedError{Attempts: retries, Err: errs[len(errs)-1]}
}
