package llm

import (
	"context"
	"fmt"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider talks to the OpenAI chat-completions API. Messages pass
// through verbatim: the API accepts system/user/assistant roles in the list.
type OpenAIProvider struct {
	baseURL string
	timeout time.Duration
}

// NewOpenAIProvider creates an adapter with the given per-request timeout.
func NewOpenAIProvider(timeout time.Duration, opts ...ProviderOption) *OpenAIProvider {
	p := &OpenAIProvider{baseURL: defaultOpenAIBaseURL, timeout: timeout}
	for _, opt := range opts {
		opt(&p.baseURL)
	}
	return p
}

func (p *OpenAIProvider) Name() string                  { return "openai" }
func (p *OpenAIProvider) SupportsStreaming() bool       { return true }
func (p *OpenAIProvider) SupportsFunctionCalling() bool { return true }

// requestBody assembles the chat-completions payload. The API takes
// system-role messages in the list, so NormalizeSystemTopLevel has no
// effect here.
func (p *OpenAIProvider) requestBody(req CompletionRequest) map[string]any {
	body := map[string]any{
		"model":    req.Model,
		"messages": req.Messages,
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.TopP != nil {
		body["top_p"] = *req.TopP
	}
	if req.FrequencyPenalty != nil {
		body["frequency_penalty"] = *req.FrequencyPenalty
	}
	if req.PresencePenalty != nil {
		body["presence_penalty"] = *req.PresencePenalty
	}
	if len(req.Stop) > 0 {
		body["stop"] = req.Stop
	}
	return body
}

func (p *OpenAIProvider) headers(req CompletionRequest) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + req.APIKey,
	}
}

// Complete sends one chat-completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	decoded, err := doJSON(ctx, p.Name(), req.Model, p.timeout, p.baseURL+"/chat/completions", p.headers(req), p.requestBody(req))
	if err != nil {
		return nil, err
	}

	content, err := openAIContent(decoded)
	if err != nil {
		return nil, err
	}

	resp := &CompletionResponse{Content: content, Raw: decoded}
	if model, ok := decoded["model"].(string); ok {
		resp.Model = model
	}
	resp.Usage = usageFromMap(decoded, "prompt_tokens", "completion_tokens")
	return resp, nil
}

// StreamComplete sends one chat-completion request with streaming
// enabled and yields the content deltas.
func (p *OpenAIProvider) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan string, error) {
	body := p.requestBody(req)
	body["stream"] = true

	stream, cancel, err := openStream(ctx, p.Name(), p.timeout, p.baseURL+"/chat/completions", p.headers(req), body)
	if err != nil {
		return nil, err
	}
	return streamSSE(stream, cancel, openAIDelta), nil
}

// openAIDelta extracts the content fragment from one stream chunk.
func openAIDelta(chunk map[string]any) string {
	choices, ok := chunk["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return ""
	}
	delta, ok := choice["delta"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := delta["content"].(string)
	return content
}

func openAIContent(decoded map[string]any) (string, error) {
	choices, ok := decoded["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("openai: response has no choices")
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("openai: malformed choice")
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("openai: choice has no message")
	}
	content, _ := message["content"].(string)
	return content, nil
}

func usageFromMap(decoded map[string]any, promptKey, completionKey string) *Usage {
	usage, ok := decoded["usage"].(map[string]any)
	if !ok {
		return nil
	}
	u := &Usage{}
	if v, ok := usage[promptKey].(float64); ok {
		u.PromptTokens = int(v)
	}
	if v, ok := usage[completionKey].(float64); ok {
		u.CompletionTokens = int(v)
	}
	if v, ok := usage["total_tokens"].(float64); ok {
		u.TotalTokens = int(v)
	} else {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

// ProviderOption customizes adapter construction (base URL override for
// tests and proxies).
type ProviderOption func(baseURL *string)

// WithBaseURL overrides the vendor endpoint base.
func WithBaseURL(url string) ProviderOption {
	return func(baseURL *string) { *baseURL = url }
}
