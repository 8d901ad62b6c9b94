package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTitleBody(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "title and body",
			text:      "feat: add parser\n\nAdds a streaming parser.\nHandles partial input.",
			wantTitle: "feat: add parser",
			wantBody:  "Adds a streaming parser.\nHandles partial input.",
		},
		{
			name:      "title only",
			text:      "fix: close file handles\n",
			wantTitle: "fix: close file handles",
			wantBody:  "",
		},
		{
			name:      "surrounding whitespace trimmed",
			text:      "\n\n  feat: tidy  \nbody text\n\n",
			wantTitle: "feat: tidy",
			wantBody:  "body text",
		},
		{
			name:      "empty input",
			text:      "   \n  ",
			wantTitle: "",
			wantBody:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := splitTitleBody(tt.text)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestCommentedPromptSection(t *testing.T) {
	got := commentedPromptSection("first line\nsecond line")

	want := "\n\n# ----- LLM PROMPT (WILL BE REMOVED) -----\n" +
		"# first line\n" +
		"# second line\n" +
		"# ----- END LLM PROMPT -----\n"
	assert.Equal(t, want, got)
}

func TestExtendSystemPrompt(t *testing.T) {
	assert.Equal(t, "base", extendSystemPrompt("base", ""))
	assert.Equal(t, "base", extendSystemPrompt("base", "  \n"))
	assert.Equal(t, "base\n\nmore", extendSystemPrompt("base", "more"))
}

func TestMetadataInstruction(t *testing.T) {
	got := metadataInstruction("claude-sonnet-4-20250514")
	assert.Contains(t, got, "Generated-by: gitscribe (claude-sonnet-4-20250514)")
}

func TestTempFileWithContent(t *testing.T) {
	path, err := tempFileWithContent("gitscribe-test-*.txt", "patch body\n")
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "patch body\n", string(data))
}
