package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted throughout the system.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Settings holds all runtime configuration, loaded once at startup from
// environment variables. Pass it explicitly to constructors; there is no
// package-level instance.
type Settings struct {
	// API
	APIPrefix string
	APIHost   string
	APIPort   int

	// Security
	SecretKey                string
	AccessTokenExpireMinutes int
	Algorithm                string

	// Default LLM backend
	LLMProvider    string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration

	// OpenAI
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIMaxTokens int
	OpenAITimeout   time.Duration

	// Anthropic
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int

	// Cheaper models used only for resume parsing
	PDFParsingModelAnthropic string
	PDFParsingModelOpenAI    string

	// Agentic framework
	AgenticMaxRetries        int
	AgenticReflectionEnabled bool

	// Plugin system
	PluginDirectory  string
	PluginAutoReload bool
	PluginTimeout    time.Duration
	PluginMaxRetries int

	// LinkedIn integration
	LinkedInCookie            string
	LinkedInExternalServerURL string

	// Deployment
	DockerEnv bool

	// CORS
	CORSOrigins []string
	CORSMethods []string
	CORSHeaders []string

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics
	EnableMetrics bool
}

// Load reads settings from the process environment, applying defaults for
// anything unset. It never fails: required values (API keys, cookies) are
// validated lazily by the components that need them so the server can start
// with a partial configuration.
func Load() *Settings {
	return &Settings{
		APIPrefix: getEnv("API_PREFIX", "/api/v1"),
		APIHost:   getEnv("API_HOST", "0.0.0.0"),
		APIPort:   getEnvInt("API_PORT", 8000),

		SecretKey:                getEnv("SECRET_KEY", "your-secret-key-here-change-in-production"),
		AccessTokenExpireMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		Algorithm:                getEnv("ALGORITHM", "HS256"),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMModel:       os.Getenv("LLM_MODEL"),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.0),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 0),
		LLMTimeout:     getEnvSeconds("LLM_TIMEOUT", 48),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-5-mini"),
		OpenAIMaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 4096),
		OpenAITimeout:   getEnvSeconds("OPENAI_TIMEOUT", 60),

		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-3-opus-20240229"),
		AnthropicMaxTokens: getEnvInt("ANTHROPIC_MAX_TOKENS", 4096),

		PDFParsingModelAnthropic: getEnv("PDF_PARSING_MODEL_ANTHROPIC", "claude-3-5-haiku-20241022"),
		PDFParsingModelOpenAI:    getEnv("PDF_PARSING_MODEL_OPENAI", "gpt-4o-mini"),

		AgenticMaxRetries:        getEnvInt("AGENTIC_MAX_RETRIES", 3),
		AgenticReflectionEnabled: getEnvBool("AGENTIC_REFLECTION_ENABLED", true),

		PluginDirectory:  getEnv("PLUGIN_DIRECTORY", "plugins"),
		PluginAutoReload: getEnvBool("PLUGIN_AUTO_RELOAD", false),
		PluginTimeout:    getEnvSeconds("PLUGIN_TIMEOUT", 30),
		PluginMaxRetries: getEnvInt("PLUGIN_MAX_RETRIES", 3),

		LinkedInCookie:            os.Getenv("LINKEDIN_COOKIE"),
		LinkedInExternalServerURL: os.Getenv("LINKEDIN_EXTERNAL_SERVER_URL"),

		DockerEnv: getEnvBool("DOCKER_ENV", false),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8000"}),
		CORSMethods: getEnvList("CORS_METHODS", []string{"*"}),
		CORSHeaders: getEnvList("CORS_HEADERS", []string{"*"}),

		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
	}
}

// GetAPIKey returns the API key for the given provider, or the default
// provider when name is empty.
func (s *Settings) GetAPIKey(provider string) (string, error) {
	switch normalizeProvider(provider, s.LLMProvider) {
	case ProviderOpenAI:
		if s.OpenAIAPIKey == "" {
			return "", NewConfigurationError("openai_api_key",
				"OpenAI API key not configured. Set OPENAI_API_KEY environment variable.")
		}
		return s.OpenAIAPIKey, nil
	case ProviderAnthropic:
		if s.AnthropicAPIKey == "" {
			return "", NewConfigurationError("anthropic_api_key",
				"Anthropic API key not configured. Set ANTHROPIC_API_KEY environment variable.")
		}
		return s.AnthropicAPIKey, nil
	}
	return "", NewConfigurationError("llm_provider", fmt.Sprintf("Unknown LLM provider: %s", provider))
}

// GetModel returns the model for the given provider. A generic LLM_MODEL
// overrides the provider-specific default.
func (s *Settings) GetModel(provider string) (string, error) {
	if s.LLMModel != "" {
		return s.LLMModel, nil
	}
	switch normalizeProvider(provider, s.LLMProvider) {
	case ProviderOpenAI:
		return s.OpenAIModel, nil
	case ProviderAnthropic:
		return s.AnthropicModel, nil
	}
	return "", NewConfigurationError("llm_provider", fmt.Sprintf("Unknown LLM provider: %s", provider))
}

// TimeoutFor returns the per-call timeout for a provider, falling back to
// the general LLM timeout.
func (s *Settings) TimeoutFor(provider string) time.Duration {
	if normalizeProvider(provider, s.LLMProvider) == ProviderOpenAI && s.OpenAITimeout > 0 {
		return s.OpenAITimeout
	}
	return s.LLMTimeout
}

// MaxTokensFor returns the completion budget for a provider. Provider
// settings win over the generic LLM_MAX_TOKENS; the final fallback is 4096.
func (s *Settings) MaxTokensFor(provider string) int {
	switch normalizeProvider(provider, s.LLMProvider) {
	case ProviderOpenAI:
		if s.OpenAIMaxTokens > 0 {
			return s.OpenAIMaxTokens
		}
	case ProviderAnthropic:
		if s.AnthropicMaxTokens > 0 {
			return s.AnthropicMaxTokens
		}
	}
	if s.LLMMaxTokens > 0 {
		return s.LLMMaxTokens
	}
	return 4096
}

// PDFParsingModel returns the cheap model used for resume parsing.
func (s *Settings) PDFParsingModel(provider string) string {
	if normalizeProvider(provider, s.LLMProvider) == ProviderOpenAI {
		return s.PDFParsingModelOpenAI
	}
	return s.PDFParsingModelAnthropic
}

func normalizeProvider(provider, fallback string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		p = fallback
	}
	return p
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
