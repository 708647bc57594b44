package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparhub/sparrow/pkg/auth"
	"github.com/sparhub/sparrow/pkg/config"
	"github.com/sparhub/sparrow/pkg/evaluation"
	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/mcp"
	"github.com/sparhub/sparrow/pkg/plugin"
	"github.com/sparhub/sparrow/pkg/routing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	content string
}

func (p *stubProvider) Name() string                  { return "stub" }
func (p *stubProvider) SupportsStreaming() bool       { return false }
func (p *stubProvider) SupportsFunctionCalling() bool { return false }

func (p *stubProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: p.content}, nil
}

func (p *stubProvider) StreamComplete(context.Context, llm.CompletionRequest) (<-chan string, error) {
	out := make(chan string, 1)
	out <- p.content
	close(out)
	return out, nil
}

type stubPlugin struct {
	meta plugin.Metadata
	resp *plugin.Response
}

func (p *stubPlugin) Initialize(context.Context, map[string]any) error { return nil }
func (p *stubPlugin) ValidateRequest(*plugin.Request) bool             { return true }
func (p *stubPlugin) Shutdown(context.Context) error                   { return nil }
func (p *stubPlugin) Metadata() plugin.Metadata                        { return p.meta }

func (p *stubPlugin) Execute(_ context.Context, req *plugin.Request) (*plugin.Response, error) {
	resp := *p.resp
	resp.RequestID = req.RequestID
	return &resp, nil
}

type testEnv struct {
	engine   *gin.Engine
	settings *config.Settings
	factory  *llm.Factory
	manager  *plugin.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	settings := &config.Settings{
		APIPrefix:                "/api/v1",
		SecretKey:                "test-secret",
		AccessTokenExpireMinutes: 30,
		LLMProvider:              "openai",
		LLMTimeout:               time.Second,
		OpenAITimeout:            time.Second,
		CORSOrigins:              []string{"*"},
		CORSMethods:              []string{"*"},
		CORSHeaders:              []string{"*"},
	}

	factory := llm.NewFactory()
	manager := plugin.NewManager(nil)
	manager.Register(func() plugin.Plugin {
		return &stubPlugin{
			meta: plugin.Metadata{
				Name:         "echo",
				Version:      "1.0.0",
				Description:  "Echoes input",
				Capabilities: []string{"echo"},
			},
			resp: plugin.NewSuccessResponse("", map[string]any{"echoed": true}),
		}
	})

	provider := &stubProvider{content: "{}"}
	router := routing.NewRouter(manager, provider, "key", "model")
	framework := routing.NewFramework(router, provider, "key", "model", 3)
	evaluator := evaluation.NewService(settings, factory, manager)
	authService := auth.NewService(settings, auth.NewStore())

	server := NewServer(settings, authService, factory, manager, router, framework, evaluator)
	return &testEnv{
		engine:   server.Routes(),
		settings: settings,
		factory:  factory,
		manager:  manager,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) token(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token auth.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	return token.AccessToken
}

func authedRequest(method, target, token string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "local", health.Environment)
	assert.Equal(t, 0, health.PluginsLoaded)
}

func TestTokenFlow(t *testing.T) {
	env := newTestEnv(t)

	token := env.token(t, "admin", "admin123")
	require.NotEmpty(t, token)

	rec := env.do(authedRequest(http.MethodGet, "/api/v1/auth/me", token, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var user auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "admin", user.Username)
	assert.Contains(t, user.Scopes, auth.ScopeAdmin)
}

func TestTokenBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InvalidCredentialsError", body.Error)
	assert.Equal(t, "Incorrect username or password", body.Message)
}

func TestMissingToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/plugins", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InvalidTokenError", body.Error)
	assert.Equal(t, "Could not validate credentials", body.Message)
}

func TestGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(authedRequest(http.MethodGet, "/api/v1/plugins", "not-a-jwt", ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListPlugins(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user", "user123")

	rec := env.do(authedRequest(http.MethodGet, "/api/v1/plugins", token, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Plugins []PluginInfo `json:"plugins"`
		Count   int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "echo", out.Plugins[0].Name)
	assert.False(t, out.Plugins[0].Loaded)
}

func TestPluginDetailNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user", "user123")

	rec := env.do(authedRequest(http.MethodGet, "/api/v1/plugins/nope", token, ""))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PluginNotFoundError", body.Error)
	assert.Equal(t, "Plugin 'nope' not found", body.Message)
}

func TestExecutePlugin(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user", "user123")

	rec := env.do(authedRequest(http.MethodPost, "/api/v1/plugins/echo/execute", token,
		`{"action":"echo","parameters":{"message":"hi"}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp plugin.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, plugin.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.RequestID)

	// Execution loads the plugin lazily.
	detail := env.do(authedRequest(http.MethodGet, "/api/v1/plugins/echo", token, ""))
	require.Equal(t, http.StatusOK, detail.Code)
	var info PluginDetail
	require.NoError(t, json.Unmarshal(detail.Body.Bytes(), &info))
	assert.True(t, info.Loaded)
}

func TestAdminScopeRequired(t *testing.T) {
	env := newTestEnv(t)

	userToken := env.token(t, "user", "user123")
	rec := env.do(authedRequest(http.MethodPost, "/api/v1/admin/plugins/reload", userToken, ""))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InsufficientPermissionsError", body.Error)
	assert.Equal(t, "Not enough permissions. Required scope: admin", body.Message)

	adminToken := env.token(t, "admin", "admin123")
	rec = env.do(authedRequest(http.MethodPost, "/api/v1/admin/plugins/reload", adminToken, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnloadPlugin(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, "admin", "admin123")

	// Load via execute first, then unload.
	rec := env.do(authedRequest(http.MethodPost, "/api/v1/plugins/echo/execute", adminToken, `{}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(authedRequest(http.MethodDelete, "/api/v1/admin/plugins/echo", adminToken, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.manager.LoadedPlugins())

	rec = env.do(authedRequest(http.MethodDelete, "/api/v1/admin/plugins/nope", adminToken, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, "admin", "admin123")

	rec := env.do(authedRequest(http.MethodPost, "/api/v1/auth/users", adminToken,
		`{"username":"carol","password":"secret"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, []string{auth.ScopeRead}, user.Scopes)

	rec = env.do(authedRequest(http.MethodPost, "/api/v1/auth/users", adminToken,
		`{"username":"carol","password":"secret"}`))
	require.Equal(t, http.StatusConflict, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UserAlreadyExistsError", body.Error)

	userToken := env.token(t, "user", "user123")
	rec = env.do(authedRequest(http.MethodPost, "/api/v1/auth/users", userToken,
		`{"username":"dave","password":"secret"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOpenAIProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, float64(500), body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}],"model":"gpt-4o"}`))
	}))
	defer upstream.Close()

	env := newTestEnv(t)
	env.factory.Register("openai", func(timeout time.Duration) llm.Provider {
		return llm.NewOpenAIProvider(timeout, llm.WithBaseURL(upstream.URL))
	})
	token := env.token(t, "user", "user123")

	rec := env.do(authedRequest(http.MethodPost, "/api/v1/llm/openai", token,
		`{"api_key":"sk-test","model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "choices")
}

func TestOpenAIProxyMissingKey(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user", "user123")

	rec := env.do(authedRequest(http.MethodPost, "/api/v1/llm/openai", token,
		`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ValidationError", body.Error)
}

func TestEvaluateValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user", "user123")

	rec := env.do(authedRequest(http.MethodPost, "/api/v1/llm/evaluate", token,
		`{"provider":"openai","model":"gpt-4o","applicant_data":"cv"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ValidationError", body.Error)
	assert.Equal(t, "api_key is required", body.Message)
}

func TestEvaluateUnknownProvider(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user", "user123")

	rec := env.do(authedRequest(http.MethodPost, "/api/v1/llm/evaluate", token,
		`{"api_key":"k","provider":"cohere","model":"m","applicant_data":"cv"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ValidationError", body.Error)
	assert.Contains(t, body.Message, "unknown LLM provider")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/query", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := env.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorName string
	}{
		{"plugin not found", &plugin.NotFoundError{Plugin: "x"}, http.StatusNotFound, "PluginNotFoundError"},
		{"plugin init", &plugin.InitializationError{Plugin: "x"}, http.StatusInternalServerError, "PluginInitializationError"},
		{"plugin exec", &plugin.ExecutionError{Plugin: "x"}, http.StatusInternalServerError, "PluginExecutionError"},
		{"plugin validation", &plugin.ValidationError{Plugin: "x"}, http.StatusBadRequest, "PluginValidationError"},
		{"mcp connection", &mcp.ConnectionError{ServerURL: "u"}, http.StatusServiceUnavailable, "MCPConnectionError"},
		{"mcp session", &mcp.SessionError{Message: "m"}, http.StatusInternalServerError, "MCPSessionError"},
		{"mcp protocol", &mcp.ProtocolError{Method: "m"}, http.StatusBadGateway, "MCPProtocolError"},
		{"mcp timeout", &mcp.TimeoutError{Method: "m"}, http.StatusGatewayTimeout, "MCPTimeoutError"},
		{"mcp process", &mcp.ProcessError{Command: "c"}, http.StatusInternalServerError, "ExternalProcessError"},
		{"no plugins", &routing.NoPluginsAvailableError{}, http.StatusServiceUnavailable, "NoPluginsAvailableError"},
		{"routing decision", &routing.RoutingDecisionError{Message: "m"}, http.StatusInternalServerError, "RoutingDecisionError"},
		{"multi step", &routing.MultiStepExecutionError{Message: "m"}, http.StatusInternalServerError, "MultiStepExecutionError"},
		{"bad credentials", &auth.InvalidCredentialsError{}, http.StatusUnauthorized, "InvalidCredentialsError"},
		{"bad token", &auth.InvalidTokenError{Reason: "r"}, http.StatusUnauthorized, "InvalidTokenError"},
		{"inactive user", &auth.InactiveUserError{Username: "u"}, http.StatusForbidden, "InactiveUserError"},
		{"no permission", &auth.InsufficientPermissionsError{Scope: "admin"}, http.StatusForbidden, "InsufficientPermissionsError"},
		{"user exists", &auth.UserExistsError{Username: "u"}, http.StatusConflict, "UserAlreadyExistsError"},
		{"configuration", config.NewConfigurationError("k", "r"), http.StatusInternalServerError, "ConfigurationError"},
		{"unknown provider", llm.ErrUnknownProvider, http.StatusBadRequest, "ValidationError"},
		{"llm auth", &llm.AuthenticationError{Provider: "openai"}, http.StatusUnauthorized, "LLMAuthenticationError"},
		{"llm rate limit", &llm.RateLimitError{Provider: "openai"}, http.StatusTooManyRequests, "LLMRateLimitError"},
		{"llm upstream", &llm.UpstreamError{Provider: "openai", Status: 502}, http.StatusBadGateway, "LLMUpstreamError"},
		{"llm timeout", &llm.TimeoutError{Provider: "openai"}, http.StatusGatewayTimeout, "LLMTimeoutError"},
		{"llm network", &llm.NetworkError{Provider: "openai"}, http.StatusServiceUnavailable, "LLMNetworkError"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "InternalServerError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.errorName, body.Error)
		})
	}
}

func TestMapErrorUnknownHidesMessage(t *testing.T) {
	_, body := mapError(errors.New("secret detail"))
	assert.Equal(t, "An unexpected error occurred", body.Message)
	assert.Equal(t, "secret detail", body.Details["original_error"])
}
