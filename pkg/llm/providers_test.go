package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSystemMessages(t *testing.T) {
	tests := []struct {
		name       string
		messages   []Message
		wantSystem string
		wantRest   []Message
	}{
		{
			name: "single system",
			messages: []Message{
				{Role: RoleSystem, Content: "S"},
				{Role: RoleUser, Content: "U"},
			},
			wantSystem: "S",
			wantRest:   []Message{{Role: RoleUser, Content: "U"}},
		},
		{
			name: "multiple systems joined with newline",
			messages: []Message{
				{Role: RoleSystem, Content: "A"},
				{Role: RoleUser, Content: "U"},
				{Role: RoleSystem, Content: "B"},
			},
			wantSystem: "A\nB",
			wantRest:   []Message{{Role: RoleUser, Content: "U"}},
		},
		{
			name:       "no system",
			messages:   []Message{{Role: RoleUser, Content: "U"}},
			wantSystem: "",
			wantRest:   []Message{{Role: RoleUser, Content: "U"}},
		},
		{
			name: "assistant preserved in order",
			messages: []Message{
				{Role: RoleUser, Content: "U"},
				{Role: RoleAssistant, Content: "{"},
			},
			wantSystem: "",
			wantRest: []Message{
				{Role: RoleUser, Content: "U"},
				{Role: RoleAssistant, Content: "{"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			system, rest := SplitSystemMessages(tc.messages)
			assert.Equal(t, tc.wantSystem, system)
			assert.Equal(t, tc.wantRest, rest)
		})
	}
}

func TestAnthropicPayloadNormalization(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "claude-test",
			"content": []any{map[string]any{"type": "text", "text": "reply"}},
			"usage":   map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(5*time.Second, WithBaseURL(srv.URL))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		APIKey: "test-key",
		Model:  "claude-test",
		Messages: []Message{
			{Role: RoleSystem, Content: "S"},
			{Role: RoleUser, Content: "U"},
		},
		MaxTokens: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "S", captured["system"])
	assert.Equal(t, float64(100), captured["max_tokens"])

	messages := captured["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])

	assert.Equal(t, "reply", resp.Content)
	assert.Equal(t, "claude-test", resp.Model)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestAnthropicOmitsSystemWhenAbsent(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "ok"}},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(5*time.Second, WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{
		APIKey:   "k",
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "U"}},
	})
	require.NoError(t, err)

	_, hasSystem := captured["system"]
	assert.False(t, hasSystem)
	// Default completion budget applies when unset.
	assert.Equal(t, float64(anthropicDefaultMaxTokens), captured["max_tokens"])
}

func TestAnthropicSystemSplitOverride(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "ok"}},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(5*time.Second, WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{
		APIKey: "k",
		Model:  "m",
		Messages: []Message{
			{Role: RoleSystem, Content: "S"},
			{Role: RoleUser, Content: "U"},
		},
		NormalizeSystemTopLevel: Bool(false),
	})
	require.NoError(t, err)

	// With normalization off the message list goes through verbatim.
	_, hasSystem := captured["system"]
	assert.False(t, hasSystem)
	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestOpenAIPayloadAndHeaders(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-test",
			"choices": []any{map[string]any{
				"message": map[string]any{"role": "assistant", "content": "reply"},
			}},
			"usage": map[string]any{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(5*time.Second, WithBaseURL(srv.URL))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		APIKey:      "test-key",
		Model:       "gpt-test",
		Messages:    []Message{{Role: RoleSystem, Content: "S"}, {Role: RoleUser, Content: "U"}},
		Temperature: Float64(0.2),
	})
	require.NoError(t, err)

	// System messages pass through verbatim for this vendor.
	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, 0.2, captured["temperature"])

	assert.Equal(t, "reply", resp.Content)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func collectStream(t *testing.T, stream <-chan string) []string {
	t.Helper()
	var fragments []string
	for {
		select {
		case fragment, ok := <-stream:
			if !ok {
				return fragments
			}
			fragments = append(fragments, fragment)
		case <-time.After(2 * time.Second):
			t.Fatal("stream did not close")
		}
	}
}

func TestOpenAIStreamComplete(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
				"data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(5*time.Second, WithBaseURL(srv.URL))
	stream, err := p.StreamComplete(context.Background(), CompletionRequest{
		APIKey:   "k",
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "U"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo"}, collectStream(t, stream))
	assert.Equal(t, true, captured["stream"])
}

func TestAnthropicStreamComplete(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"event: message_start\n" +
				"data: {\"type\":\"message_start\"}\n\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hel\"}}\n\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"lo\"}}\n\n" +
				"data: {\"type\":\"message_stop\"}\n\n"))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(5*time.Second, WithBaseURL(srv.URL))
	stream, err := p.StreamComplete(context.Background(), CompletionRequest{
		APIKey:   "k",
		Model:    "m",
		Messages: []Message{{Role: RoleSystem, Content: "S"}, {Role: RoleUser, Content: "U"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo"}, collectStream(t, stream))
	assert.Equal(t, true, captured["stream"])
	// Normalization applies on the streaming path too.
	assert.Equal(t, "S", captured["system"])
}

func TestStreamCompleteAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(5*time.Second, WithBaseURL(srv.URL))
	_, err := p.StreamComplete(context.Background(), CompletionRequest{APIKey: "bad", Model: "m"})
	require.Error(t, err)

	var authErr *AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{401, func(t *testing.T, err error) {
			var e *AuthenticationError
			assert.ErrorAs(t, err, &e)
		}},
		{429, func(t *testing.T, err error) {
			var e *RateLimitError
			assert.ErrorAs(t, err, &e)
		}},
		{500, func(t *testing.T, err error) {
			var e *UpstreamError
			assert.ErrorAs(t, err, &e)
		}},
		{503, func(t *testing.T, err error) {
			var e *UpstreamError
			assert.ErrorAs(t, err, &e)
		}},
		{400, func(t *testing.T, err error) {
			var e *ProviderError
			assert.ErrorAs(t, err, &e)
		}},
	}

	for _, tc := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		p := NewOpenAIProvider(5*time.Second, WithBaseURL(srv.URL))
		_, err := p.Complete(context.Background(), CompletionRequest{APIKey: "k", Model: "m"})
		require.Error(t, err, "status %d", tc.status)
		tc.check(t, err)
		srv.Close()
	}
}

func TestTimeoutMapsToTimeoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(50*time.Millisecond, WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{APIKey: "k", Model: "m"})
	require.Error(t, err)

	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestNetworkErrorMapping(t *testing.T) {
	p := NewOpenAIProvider(time.Second, WithBaseURL("http://127.0.0.1:1"))
	_, err := p.Complete(context.Background(), CompletionRequest{APIKey: "k", Model: "m"})
	require.Error(t, err)

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	p, err := f.Get("openai", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = f.Get("anthropic", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = f.Get("mistral", 10*time.Second)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	// Fresh adapter per call.
	a, _ := f.Get("openai", time.Second)
	b, _ := f.Get("openai", time.Second)
	assert.NotSame(t, a, b)
}
