package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/sparrow/pkg/auth"
	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/mcp"
	"github.com/sparhub/sparrow/pkg/plugin"
	"github.com/sparhub/sparrow/pkg/routing"
)

// errorBody is the uniform error envelope every endpoint returns on
// failure. Details carries structured context when the error has any;
// Cause is the wrapped error's message when one exists.
type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
	Cause   string         `json:"cause,omitempty"`
}

// mapError translates domain errors into an HTTP status and error body.
// Unrecognized errors become an opaque 500 so internals never leak.
func mapError(err error) (int, errorBody) {
	body := errorBody{Message: err.Error()}
	if cause := errors.Unwrap(err); cause != nil {
		body.Cause = cause.Error()
	}

	var (
		pluginNotFound   *plugin.NotFoundError
		pluginInit       *plugin.InitializationError
		pluginExec       *plugin.ExecutionError
		pluginValidation *plugin.ValidationError
		pluginLoad       *plugin.LoadError

		mcpConnection *mcp.ConnectionError
		mcpSession    *mcp.SessionError
		mcpProtocol   *mcp.ProtocolError
		mcpTimeout    *mcp.TimeoutError
		mcpProcess    *mcp.ProcessError

		noPlugins     *routing.NoPluginsAvailableError
		routingFailed *routing.RoutingDecisionError
		multiStep     *routing.MultiStepExecutionError

		badCredentials *auth.InvalidCredentialsError
		badToken       *auth.InvalidTokenError
		inactiveUser   *auth.InactiveUserError
		noPermission   *auth.InsufficientPermissionsError
		userExists     *auth.UserExistsError

		configErr *config.ConfigurationError

		llmAuth      *llm.AuthenticationError
		llmRateLimit *llm.RateLimitError
		llmUpstream  *llm.UpstreamError
		llmProvider  *llm.ProviderError
		llmTimeout   *llm.TimeoutError
		llmNetwork   *llm.NetworkError
	)

	switch {
	case errors.As(err, &pluginNotFound):
		body.Error = "PluginNotFoundError"
		return http.StatusNotFound, body
	case errors.As(err, &pluginInit):
		body.Error = "PluginInitializationError"
		return http.StatusInternalServerError, body
	case errors.As(err, &pluginExec):
		body.Error = "PluginExecutionError"
		return http.StatusInternalServerError, body
	case errors.As(err, &pluginValidation):
		body.Error = "PluginValidationError"
		body.Details = pluginValidation.Details
		return http.StatusBadRequest, body
	case errors.As(err, &pluginLoad):
		body.Error = "PluginLoadError"
		return http.StatusInternalServerError, body

	case errors.As(err, &mcpConnection):
		body.Error = "MCPConnectionError"
		return http.StatusServiceUnavailable, body
	case errors.As(err, &mcpSession):
		body.Error = "MCPSessionError"
		return http.StatusInternalServerError, body
	case errors.As(err, &mcpProtocol):
		body.Error = "MCPProtocolError"
		return http.StatusBadGateway, body
	case errors.As(err, &mcpTimeout):
		body.Error = "MCPTimeoutError"
		return http.StatusGatewayTimeout, body
	case errors.As(err, &mcpProcess):
		body.Error = "ExternalProcessError"
		return http.StatusInternalServerError, body

	case errors.As(err, &noPlugins):
		body.Error = "NoPluginsAvailableError"
		return http.StatusServiceUnavailable, body
	case errors.As(err, &routingFailed):
		body.Error = "RoutingDecisionError"
		body.Details = routingFailed.Details
		return http.StatusInternalServerError, body
	case errors.As(err, &multiStep):
		body.Error = "MultiStepExecutionError"
		body.Details = multiStep.Details
		return http.StatusInternalServerError, body

	case errors.As(err, &badCredentials):
		body.Error = "InvalidCredentialsError"
		return http.StatusUnauthorized, body
	case errors.As(err, &badToken):
		body.Error = "InvalidTokenError"
		body.Message = "Could not validate credentials"
		return http.StatusUnauthorized, body
	case errors.As(err, &inactiveUser):
		body.Error = "InactiveUserError"
		return http.StatusForbidden, body
	case errors.As(err, &noPermission):
		body.Error = "InsufficientPermissionsError"
		return http.StatusForbidden, body
	case errors.As(err, &userExists):
		body.Error = "UserAlreadyExistsError"
		return http.StatusConflict, body

	case errors.As(err, &configErr):
		body.Error = "ConfigurationError"
		return http.StatusInternalServerError, body

	case errors.Is(err, llm.ErrUnknownProvider):
		body.Error = "ValidationError"
		return http.StatusBadRequest, body
	case errors.As(err, &llmAuth):
		body.Error = "LLMAuthenticationError"
		return http.StatusUnauthorized, body
	case errors.As(err, &llmRateLimit):
		body.Error = "LLMRateLimitError"
		return http.StatusTooManyRequests, body
	case errors.As(err, &llmUpstream):
		body.Error = "LLMUpstreamError"
		return llmUpstream.Status, body
	case errors.As(err, &llmProvider):
		body.Error = "LLMProviderError"
		return llmProvider.Status, body
	case errors.As(err, &llmTimeout):
		body.Error = "LLMTimeoutError"
		return http.StatusGatewayTimeout, body
	case errors.As(err, &llmNetwork):
		body.Error = "LLMNetworkError"
		return http.StatusServiceUnavailable, body
	}

	return http.StatusInternalServerError, errorBody{
		Error:   "InternalServerError",
		Message: "An unexpected error occurred",
		Details: map[string]any{"original_error": err.Error()},
	}
}

// abortError ends the request with the mapped status and error body.
// 401 responses carry the bearer challenge header.
func (s *Server) abortError(c *gin.Context, err error) {
	status, body := mapError(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

// abortValidation rejects a malformed request body.
func (s *Server) abortValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
		Error:   "ValidationError",
		Message: err.Error(),
	})
}
