package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req OpenAIRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			assert.True(t, req.Stream)
			if assert.NotNil(t, req.StreamOptions) {
				assert.True(t, req.StreamOptions.IncludeUsage)
			}
			// System prompt rides as the first chat message.
			if assert.Len(t, req.Messages, 2) {
				assert.Equal(t, OpenAIMessage{Role: "system", Content: "sys"}, req.Messages[0])
				assert.Equal(t, OpenAIMessage{Role: "user", Content: "user"}, req.Messages[1])
			}
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, data := range []string{
			`{"choices":[{"delta":{"content":"chore: "}}]}`,
			`{"choices":[{"delta":{"content":"tidy imports"}}]}`,
			`{"choices":[],"usage":{"prompt_tokens":10,"completion_tokens":5}}`,
			`[DONE]`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}))
	defer server.Close()

	client := NewOpenAIClient("sk-test", "gpt-4o", nil)
	client.baseURL = server.URL

	contentChan, errChan := client.CompleteStream(context.Background(), "sys", "user")
	got, err := drainStream(t, contentChan, errChan)
	require.NoError(t, err)
	assert.Equal(t, "chore: tidy imports", got)
}

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenAIRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			assert.False(t, req.Stream)
			// No system message when the system prompt is empty.
			if assert.Len(t, req.Messages, 1) {
				assert.Equal(t, "user", req.Messages[0].Role)
			}
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  branch-name-here \n"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient("sk-test", "gpt-4o", nil)
	client.baseURL = server.URL

	got, err := client.Complete(context.Background(), "", "user")
	require.NoError(t, err)
	assert.Equal(t, "branch-name-here", got)
}

func TestOpenAICompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"model not found","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewOpenAIClient("sk-test", "gpt-nonexistent", nil)
	client.baseURL = server.URL

	_, err := client.Complete(context.Background(), "", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}
