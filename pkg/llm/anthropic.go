package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicAPIVersion     = "2023-06-01"

	// The messages API requires an explicit completion budget.
	anthropicDefaultMaxTokens = 4096
)

// AnthropicProvider talks to the Anthropic messages API. The API takes the
// system prompt as a top-level field, not as a message, so Complete splits
// system-role messages out of the list before sending.
type AnthropicProvider struct {
	baseURL string
	timeout time.Duration
}

// NewAnthropicProvider creates an adapter with the given per-request timeout.
func NewAnthropicProvider(timeout time.Duration, opts ...ProviderOption) *AnthropicProvider {
	p := &AnthropicProvider{baseURL: defaultAnthropicBaseURL, timeout: timeout}
	for _, opt := range opts {
		opt(&p.baseURL)
	}
	return p
}

func (p *AnthropicProvider) Name() string                  { return "anthropic" }
func (p *AnthropicProvider) SupportsStreaming() bool       { return true }
func (p *AnthropicProvider) SupportsFunctionCalling() bool { return true }

// SplitSystemMessages separates system-role messages from the rest,
// concatenating their contents with newlines. Non-system messages keep
// their original order. Exposed so the passthrough proxy applies the same
// normalization.
func SplitSystemMessages(messages []Message) (system string, rest []Message) {
	var systemParts []string
	rest = make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(systemParts, "\n"), rest
}

// requestBody assembles the messages-API payload. System-role messages
// move to the top-level system field unless the request overrides the
// normalization.
func (p *AnthropicProvider) requestBody(req CompletionRequest) map[string]any {
	messages := req.Messages
	var system string
	if req.NormalizeSystemTopLevel == nil || *req.NormalizeSystemTopLevel {
		system, messages = SplitSystemMessages(req.Messages)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	body := map[string]any{
		"model":      req.Model,
		"messages":   messages,
		"max_tokens": maxTokens,
	}
	if system != "" {
		body["system"] = system
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		body["top_p"] = *req.TopP
	}
	if len(req.Stop) > 0 {
		body["stop_sequences"] = req.Stop
	}
	return body
}

func (p *AnthropicProvider) headers(req CompletionRequest) map[string]string {
	return map[string]string{
		"x-api-key":         req.APIKey,
		"anthropic-version": anthropicAPIVersion,
	}
}

// Complete sends one messages-API request.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	decoded, err := doJSON(ctx, p.Name(), req.Model, p.timeout, p.baseURL+"/messages", p.headers(req), p.requestBody(req))
	if err != nil {
		return nil, err
	}

	content, err := anthropicContent(decoded)
	if err != nil {
		return nil, err
	}

	resp := &CompletionResponse{Content: content, Raw: decoded}
	if model, ok := decoded["model"].(string); ok {
		resp.Model = model
	}
	resp.Usage = usageFromMap(decoded, "input_tokens", "output_tokens")
	return resp, nil
}

// StreamComplete sends one messages-API request with streaming enabled
// and yields the text deltas.
func (p *AnthropicProvider) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan string, error) {
	body := p.requestBody(req)
	body["stream"] = true

	stream, cancel, err := openStream(ctx, p.Name(), p.timeout, p.baseURL+"/messages", p.headers(req), body)
	if err != nil {
		return nil, err
	}
	return streamSSE(stream, cancel, anthropicDelta), nil
}

// anthropicDelta extracts the text fragment from a content_block_delta
// stream event; other event types carry no text.
func anthropicDelta(chunk map[string]any) string {
	if chunk["type"] != "content_block_delta" {
		return ""
	}
	delta, ok := chunk["delta"].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := delta["text"].(string)
	return text
}

func anthropicContent(decoded map[string]any) (string, error) {
	content, ok := decoded["content"].([]any)
	if !ok || len(content) == 0 {
		return "", fmt.Errorf("anthropic: response has no content")
	}
	part, ok := content[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("anthropic: malformed content part")
	}
	text, _ := part["text"].(string)
	return text, nil
}
