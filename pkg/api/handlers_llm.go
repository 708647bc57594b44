package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/evaluation"
	"github.com/sparhub/sparrow/pkg/llm"
)

// handleOpenAIProxy forwards a completion request to OpenAI and returns
// the vendor response body untouched.
func (s *Server) handleOpenAIProxy(c *gin.Context) {
	var req OpenAIProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = proxyDefaultMaxTokens
	}

	provider, err := s.factory.Get(config.ProviderOpenAI, s.settings.TimeoutFor(config.ProviderOpenAI))
	if err != nil {
		s.abortError(c, err)
		return
	}

	resp, err := provider.Complete(c.Request.Context(), llm.CompletionRequest{
		APIKey:           req.APIKey,
		Model:            req.Model,
		Messages:         req.Messages,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Stop:             req.Stop,
	})
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.Raw)
}

// handleAnthropicProxy forwards a completion request to Anthropic and
// returns the vendor response body untouched.
func (s *Server) handleAnthropicProxy(c *gin.Context) {
	var req AnthropicProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = proxyDefaultMaxTokens
	}

	provider, err := s.factory.Get(config.ProviderAnthropic, s.settings.TimeoutFor(config.ProviderAnthropic))
	if err != nil {
		s.abortError(c, err)
		return
	}

	resp, err := provider.Complete(c.Request.Context(), llm.CompletionRequest{
		APIKey:      req.APIKey,
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.StopSequences,
	})
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.Raw)
}

// handleEvaluate runs a full applicant evaluation: optional plugin
// enrichment, prompt construction, provider call, score extraction.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req evaluation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}
	if err := validateEvaluationRequest(req); err != nil {
		s.abortValidation(c, err)
		return
	}

	resp, err := s.evaluator.Evaluate(c.Request.Context(), req)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// validateEvaluationRequest checks the fields an evaluation cannot run
// without.
func validateEvaluationRequest(req evaluation.Request) error {
	required := []struct{ field, value string }{
		{"api_key", req.APIKey},
		{"provider", req.Provider},
		{"model", req.Model},
		{"applicant_data", req.ApplicantData},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.field)
		}
	}
	return nil
}
