package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Complete(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":" Groceries "}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	client := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})

	got, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, " Groceries ", got)

	assert.Equal(t, defaultAnthropicModel, captured.Model)
	assert.Equal(t, anthropicMaxTokens, captured.MaxTokens)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "hello", captured.Messages[0].Content)
}

func TestAnthropicClient_Errors(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		body    string
		status  int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"type":"error"}`, wantErr: ErrAuth},
		{name: "overloaded", status: 529, body: `{"type":"error"}`, wantErr: ErrTransport},
		{name: "invalid json", status: http.StatusOK, body: `{`, wantErr: ErrMalformedResponse},
		{name: "empty content", status: http.StatusOK, body: `{"content":[]}`, wantErr: ErrMalformedResponse},
		{name: "no text block", status: http.StatusOK, body: `{"content":[{"type":"tool_use"}]}`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
			_, err := client.Complete(context.Background(), "hello")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnthropicClient_MissingKey(t *testing.T) {
	client := newAnthropicClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Complete(context.Background(), "hello")
	require.ErrorIs(t, err, ErrAuth)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		check    func(t *testing.T, c Client)
		name     string
		provider string
		wantErr  bool
	}{
		{
			name:     "openai",
			provider: "openai",
			check: func(t *testing.T, c Client) {
				_, ok := c.(*openAIClient)
				assert.True(t, ok)
			},
		},
		{
			name:     "anthropic mixed case",
			provider: "Anthropic",
			check: func(t *testing.T, c Client) {
				_, ok := c.(*anthropicClient)
				assert.True(t, ok)
			},
		},
		{name: "unsupported", provider: "claudecode", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(Config{Provider: tt.provider, APIKey: "k"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}

	c, err := NewClient(Config{Provider: "openai", RateLimit: 30})
	require.NoError(t, err)
	_, ok := c.(*rateLimitedClient)
	assert.True(t, ok)
}
