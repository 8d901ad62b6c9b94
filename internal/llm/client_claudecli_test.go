package llm

import (
	"context"
	"testing"
	"time"

	"gitscribe/internal/config"
)

func TestNewClaudeCLIClient(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.ClaudeCLIConfig
		wantCommand string
		wantModel   string
		wantTimeout time.Duration
	}{
		{
			name:        "zero config uses defaults",
			cfg:         config.ClaudeCLIConfig{},
			wantCommand: "claude",
			wantModel:   "",
			wantTimeout: 300 * time.Second,
		},
		{
			name: "custom command and model",
			cfg: config.ClaudeCLIConfig{
				Command:        "claude-dev",
				Model:          "opus",
				TimeoutSeconds: 60,
			},
			wantCommand: "claude-dev",
			wantModel:   "opus",
			wantTimeout: 60 * time.Second,
		},
		{
			name: "zero timeout uses default",
			cfg: config.ClaudeCLIConfig{
				Model: "haiku",
			},
			wantCommand: "claude",
			wantModel:   "haiku",
			wantTimeout: 300 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClaudeCLIClient(tt.cfg, nil)

			if client.command != tt.wantCommand {
				t.Errorf("command = %q, want %q", client.command, tt.wantCommand)
			}
			if client.model != tt.wantModel {
				t.Errorf("model = %q, want %q", client.model, tt.wantModel)
			}
			if client.timeout != tt.wantTimeout {
				t.Errorf("timeout = %v, want %v", client.timeout, tt.wantTimeout)
			}
		})
	}
}

func TestClaudeCLIModelID(t *testing.T) {
	if got := NewClaudeCLIClient(config.ClaudeCLIConfig{}, nil).ModelID(); got != "claude-cli" {
		t.Errorf("ModelID() = %q, want claude-cli", got)
	}
	if got := NewClaudeCLIClient(config.ClaudeCLIConfig{Model: "opus"}, nil).ModelID(); got != "opus" {
		t.Errorf("ModelID() = %q, want opus", got)
	}
}

func TestParseClaudeCLIResponse(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{
			name:    "valid response with text content",
			data:    []byte(`{"result":{"content":[{"type":"text","text":"Hello, world!"}]}}`),
			want:    "Hello, world!",
			wantErr: false,
		},
		{
			name: "multiple text blocks",
			data: []byte(`{"result":{"content":[
				{"type":"text","text":"First part. "},
				{"type":"text","text":"Second part."}
			]}}`),
			want:    "First part. Second part.",
			wantErr: false,
		},
		{
			name: "mixed content types",
			data: []byte(`{"result":{"content":[
				{"type":"text","text":"Important message"},
				{"type":"tool_use","text":"ignored"}
			]}}`),
			want:    "Important message",
			wantErr: false,
		},
		{
			name:    "empty data",
			data:    []byte{},
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			data:    []byte(`{not valid json}`),
			wantErr: true,
		},
		{
			name:    "error response",
			data:    []byte(`{"error":{"type":"invalid_request","message":"Something went wrong"}}`),
			wantErr: true,
		},
		{
			name:    "empty content array",
			data:    []byte(`{"result":{"content":[]}}`),
			wantErr: true,
		},
		{
			name:    "whitespace only text",
			data:    []byte(`{"result":{"content":[{"type":"text","text":"   \n\t  "}]}}`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClaudeCLIResponse(tt.data)

			if (err != nil) != tt.wantErr {
				t.Errorf("parseClaudeCLIResponse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("parseClaudeCLIResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClaudeCLICompleteMissingBinary(t *testing.T) {
	client := NewClaudeCLIClient(config.ClaudeCLIConfig{Command: "gitscribe-no-such-binary"}, nil)

	_, err := client.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("Complete() with a missing binary should fail")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", s: "hello", maxLen: 10, want: "hello"},
		{name: "exact length unchanged", s: "hello", maxLen: 5, want: "hello"},
		{name: "truncated with ellipsis", s: "hello world", maxLen: 8, want: "hello..."},
		{name: "empty string", s: "", maxLen: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

// Compile-time checks that every provider satisfies Client.
var (
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*GeminiClient)(nil)
	_ Client = (*ClaudeCLIClient)(nil)
)
