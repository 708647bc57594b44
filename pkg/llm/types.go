package llm

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of an LLM conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-agnostic input for one completion call.
// Optional numeric fields are pointers so "unset" can be distinguished
// from 0. The penalty fields only apply to providers that support them.
//
// NormalizeSystemTopLevel overrides whether system-role messages are
// pulled out of the list into the vendor's top-level system field. Unset
// means the adapter default: Anthropic splits, OpenAI sends the list
// verbatim. OpenAI has no top-level system field, so the flag only
// changes Anthropic behavior.
type CompletionRequest struct {
	APIKey                  string
	Model                   string
	Messages                []Message
	Temperature             *float64
	MaxTokens               int
	TopP                    *float64
	FrequencyPenalty        *float64
	PresencePenalty         *float64
	Stop                    []string
	NormalizeSystemTopLevel *bool
}

// Usage is the token accounting reported by the vendor, when available.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the provider-agnostic result of a completion call.
// Raw preserves the decoded vendor body for passthrough endpoints.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   *Usage
	Raw     map[string]any
}

// Provider is the uniform adapter contract. Adapters are stateless per
// call; the factory constructs a fresh one per request with an injected
// timeout, so no cross-request state exists.
type Provider interface {
	Name() string
	SupportsStreaming() bool
	SupportsFunctionCalling() bool
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// StreamComplete takes the same inputs as Complete and yields the
	// completion as text fragments. The channel closes when the vendor
	// stream ends.
	StreamComplete(ctx context.Context, req CompletionRequest) (<-chan string, error)
}

// Float64 returns a pointer to v, for the optional request fields.
func Float64(v float64) *float64 { return &v }

// Bool returns a pointer to v, for the optional request fields.
func Bool(v bool) *bool { return &v }
