package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"gitscribe/internal/config"
)

// ClaudeCLIClient runs prompts through a locally installed claude CLI
// instead of a provider API. Useful when the CLI holds the credentials
// or when requests must go through its session.
type ClaudeCLIClient struct {
	command string
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// claudeCLIResponse represents the JSON output of
// `claude -p --output-format json`.
type claudeCLIResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClaudeCLIClient creates a CLI-backed client from configuration.
func NewClaudeCLIClient(cfg config.ClaudeCLIConfig, logger *zap.Logger) *ClaudeCLIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	timeout := 300 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &ClaudeCLIClient{
		command: command,
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// ModelID returns the model passed to the CLI, or the CLI's own
// default when none is configured.
func (c *ClaudeCLIClient) ModelID() string {
	if c.model == "" {
		return "claude-cli"
	}
	return c.model
}

// KeyEnvVar returns "" because the CLI manages its own credentials.
func (c *ClaudeCLIClient) KeyEnvVar() string { return "" }

// Complete sends the prompts through the CLI and returns the full
// completion. The system prompt is folded into the -p argument since
// the CLI takes a single prompt.
func (c *ClaudeCLIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	combinedPrompt := userPrompt
	if strings.TrimSpace(systemPrompt) != "" {
		combinedPrompt = fmt.Sprintf("[System Instructions]\n%s\n\n[User Request]\n%s", systemPrompt, userPrompt)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-p", combinedPrompt,
		"--output-format", "json",
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}

	startTime := time.Now()
	c.logger.Debug("claude CLI starting",
		zap.String("command", c.command),
		zap.Int("prompt_len", len(combinedPrompt)))

	cmd := exec.CommandContext(ctx, c.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("claude CLI timed out after %v: %w", c.timeout, ctx.Err())
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("claude CLI execution canceled: %w", ctx.Err())
		}
		return "", fmt.Errorf("claude CLI execution failed: %w (stderr: %s)", err, stderr.String())
	}

	text, err := parseClaudeCLIResponse(stdout.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to parse claude CLI response: %w", err)
	}

	c.logger.Debug("claude CLI finished",
		zap.Duration("elapsed", time.Since(startTime)),
		zap.Int("response_len", len(text)))
	return text, nil
}

// CompleteStream runs the CLI to completion and delivers the whole
// response as a single fragment. The CLI's JSON output mode has no
// incremental form.
func (c *ClaudeCLIClient) CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan error) {
	contentChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		text, err := c.Complete(ctx, systemPrompt, userPrompt)
		if err != nil {
			errorChan <- err
			return
		}
		select {
		case contentChan <- text:
		case <-ctx.Done():
			errorChan <- ctx.Err()
		}
	}()

	return contentChan, errorChan
}

// parseClaudeCLIResponse extracts the assistant text from the CLI's
// JSON output.
func parseClaudeCLIResponse(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty response from claude CLI")
	}

	var resp claudeCLIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal JSON response: %w (raw: %s)", err, truncateString(string(data), 500))
	}

	if resp.Error != nil {
		return "", fmt.Errorf("claude CLI error: %s (type: %s)", resp.Error.Message, resp.Error.Type)
	}

	var result strings.Builder
	for _, content := range resp.Result.Content {
		if content.Type == "text" {
			result.WriteString(content.Text)
		}
	}

	text := strings.TrimSpace(result.String())
	if text == "" {
		return "", errors.New("no text content in claude CLI response")
	}

	return text, nil
}

// truncateString truncates a string to maxLen characters, adding "..."
// if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
