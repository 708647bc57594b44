package routing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/plugin"
)

type scriptedProvider struct {
	responses []string
	err       error
	calls     int
	requests  []llm.CompletionRequest
}

func (p *scriptedProvider) Name() string                  { return "scripted" }
func (p *scriptedProvider) SupportsStreaming() bool       { return false }
func (p *scriptedProvider) SupportsFunctionCalling() bool { return false }

func (p *scriptedProvider) StreamComplete(context.Context, llm.CompletionRequest) (<-chan string, error) {
	out := make(chan string)
	close(out)
	return out, nil
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	content := p.responses[p.calls%len(p.responses)]
	p.calls++
	return &llm.CompletionResponse{Content: content}, nil
}

type stubPlugin struct {
	name     string
	execErr  error
	response *plugin.Response
	requests []*plugin.Request
}

func (s *stubPlugin) Initialize(ctx context.Context, config map[string]any) error { return nil }

func (s *stubPlugin) Execute(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
	s.requests = append(s.requests, req)
	if s.execErr != nil {
		return nil, s.execErr
	}
	if s.response != nil {
		return s.response, nil
	}
	return plugin.NewSuccessResponse(req.RequestID, map[string]any{"ok": true}), nil
}

func (s *stubPlugin) ValidateRequest(req *plugin.Request) bool { return true }
func (s *stubPlugin) Shutdown(ctx context.Context) error       { return nil }

func (s *stubPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         s.name,
		Version:      "1.0.0",
		Description:  "stub",
		Capabilities: []string{"test"},
	}
}

func newTestRouter(t *testing.T, provider llm.Provider, stubs ...*stubPlugin) (*Router, *plugin.Manager) {
	t.Helper()
	manager := plugin.NewManager(nil)
	for _, s := range stubs {
		s := s
		manager.Register(func() plugin.Plugin { return s })
	}
	return NewRouter(manager, provider, "test-key", "test-model"), manager
}

func TestRouteParsesDecision(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"plugin": "echo", "confidence": 0.9, "reasoning": "echo request", "parameters": {"message": "hi"}}`,
	}}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "echo"})

	decision, err := router.Route(context.Background(), "echo hi")
	require.NoError(t, err)
	assert.Equal(t, "echo", decision.PluginName)
	assert.Equal(t, 0.9, decision.Confidence)
	assert.Equal(t, "echo request", decision.Reasoning)
	assert.Equal(t, "hi", decision.ExtractedParams["message"])

	// Routing runs deterministically at temperature 0.
	require.NotEmpty(t, provider.requests)
	require.NotNil(t, provider.requests[0].Temperature)
	assert.Equal(t, 0.0, *provider.requests[0].Temperature)
}

func TestRouteStripsCodeFence(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"```json\n{\"plugin\": \"echo\", \"confidence\": 0.8}\n```",
	}}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "echo"})

	decision, err := router.Route(context.Background(), "echo hi")
	require.NoError(t, err)
	assert.Equal(t, "echo", decision.PluginName)
	assert.Equal(t, "Selected based on query analysis", decision.Reasoning)
	assert.NotNil(t, decision.ExtractedParams)
}

func TestRouteNoPlugins(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"{}"}}
	router, _ := newTestRouter(t, provider)

	_, err := router.Route(context.Background(), "anything")
	var noPlugins *NoPluginsAvailableError
	require.ErrorAs(t, err, &noPlugins)
	assert.Equal(t, "No plugins available for routing", err.Error())
}

func TestRouteInvalidJSON(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"sorry, I cannot help with that"}}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "echo"})

	_, err := router.Route(context.Background(), "echo hi")
	var decisionErr *RoutingDecisionError
	require.ErrorAs(t, err, &decisionErr)
	assert.Contains(t, decisionErr.Message, "Failed to parse JSON")
}

func TestRouteProviderFailure(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("upstream down")}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "echo"})

	_, err := router.Route(context.Background(), "echo hi")
	var decisionErr *RoutingDecisionError
	require.ErrorAs(t, err, &decisionErr)
	assert.Equal(t, "Failed to determine appropriate plugin for query", decisionErr.Message)
}

func TestInferLinkedInCompanyAction(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"plugin": "linkedin_external", "confidence": 0.9, "parameters": {}}`,
	}}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "linkedin_external"})

	decision, err := router.Route(context.Background(), `Get info about the company "Acme Corp"`)
	require.NoError(t, err)
	assert.Equal(t, "get_company", decision.ExtractedParams["action"])
	assert.Equal(t, "Acme Corp", decision.ExtractedParams["company_name"])
}

func TestInferLinkedInProfileAction(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"plugin": "linkedin_external", "confidence": 0.9, "parameters": {"username": "janedoe"}}`,
	}}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "linkedin_external"})

	decision, err := router.Route(context.Background(), "Look up Jane Doe on LinkedIn")
	require.NoError(t, err)
	assert.Equal(t, "get_profile", decision.ExtractedParams["action"])
	assert.Equal(t, "janedoe", decision.ExtractedParams["linkedin_username"])
}

func TestExecuteSingleUsesActionParam(t *testing.T) {
	stub := &stubPlugin{name: "linkedin_external"}
	provider := &scriptedProvider{responses: []string{"{}"}}
	router, _ := newTestRouter(t, provider, stub)

	decision := &Decision{
		PluginName: "linkedin_external",
		ExtractedParams: map[string]any{
			"action":            "get_profile",
			"linkedin_username": "jane",
		},
	}
	resp, err := router.ExecuteSingle(context.Background(), "query", decision)
	require.NoError(t, err)
	assert.Equal(t, plugin.StatusSuccess, resp.Status)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "get_profile", stub.requests[0].Action)
	// Action moves out of the parameter map before the plugin sees it.
	_, hasAction := stub.requests[0].Parameters["action"]
	assert.False(t, hasAction)
	// The caller's decision keeps its params.
	assert.Equal(t, "get_profile", decision.ExtractedParams["action"])
}

func TestExecuteMultiStepRejectsForwardDependency(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"{}"}}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "echo"})

	plan := &Plan{Steps: []PlanStep{
		{PluginName: "echo", Parameters: map[string]any{}},
		{PluginName: "echo", Parameters: map[string]any{}, DependsOn: []int{2}},
		{PluginName: "echo", Parameters: map[string]any{}},
	}}

	_, err := router.ExecuteMultiStep(context.Background(), "query", plan)
	var decisionErr *RoutingDecisionError
	require.ErrorAs(t, err, &decisionErr)
	assert.Contains(t, decisionErr.Details["error"], "depends on unexecuted step 2")
}

func TestExecuteMultiStepRunsInOrder(t *testing.T) {
	stub := &stubPlugin{name: "echo"}
	provider := &scriptedProvider{responses: []string{"{}"}}
	router, _ := newTestRouter(t, provider, stub)

	plan := &Plan{Steps: []PlanStep{
		{PluginName: "echo", Parameters: map[string]any{"message": "first"}},
		{PluginName: "echo", Parameters: map[string]any{"message": "second"}, DependsOn: []int{0}},
	}}

	responses, err := router.ExecuteMultiStep(context.Background(), "query", plan)
	require.NoError(t, err)
	require.Len(t, responses, 2)

	require.Len(t, stub.requests, 2)
	assert.Equal(t, "first", stub.requests[0].Parameters["message"])
	assert.Equal(t, "second", stub.requests[1].Parameters["message"])

	stepCtx := stub.requests[1].Parameters["_context"].(map[string]any)
	assert.Equal(t, 1, stepCtx["step_index"])
	assert.Equal(t, 2, stepCtx["total_steps"])
}

func TestAnalyzeComplexityDefaultsToSimpleOnError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("timeout")}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "echo"})

	isComplex, reasoning := router.AnalyzeComplexity(context.Background(), "anything")
	assert.False(t, isComplex)
	assert.Contains(t, reasoning, "Defaulting to simple execution")
}

func TestAnalyzeComplexityParsesAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"is_complex: true\nreasoning: needs two plugins",
	}}
	router, _ := newTestRouter(t, provider, &stubPlugin{name: "echo"})

	isComplex, reasoning := router.AnalyzeComplexity(context.Background(), "fetch then compute")
	assert.True(t, isComplex)
	assert.Contains(t, reasoning, "needs two plugins")
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence with prose", "Sure:\n```json\n{\"a\": 1}\n```\nDone", `{"a": 1}`},
		{"unclosed fence", "```json\n{\"a\": 1}", "```json\n{\"a\": 1}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripCodeFence(tc.input))
		})
	}
}

func TestFormatPluginsInfo(t *testing.T) {
	plugins := map[string]plugin.Metadata{
		"calculator": {
			Description:    "Performs math",
			Capabilities:   []string{"calculate", "math"},
			RequiredParams: map[string]string{"expression": "Expression to evaluate"},
			Examples: []map[string]any{
				{"query": "Calculate 2 + 2"},
				{"query": "What is 15% of 200?"},
				{"query": "never shown"},
			},
		},
		"echo": {
			Description:  "Echoes input",
			Capabilities: []string{"echo"},
		},
	}

	info := FormatPluginsInfo(plugins)
	assert.Contains(t, info, "Plugin: calculator")
	assert.Contains(t, info, "Required params: expression: Expression to evaluate")
	assert.Contains(t, info, "Calculate 2 + 2")
	assert.NotContains(t, info, "never shown")
	// Sorted by name, calculator before echo.
	assert.Less(t, strings.Index(info, "calculator"), strings.Index(info, "Plugin: echo"))
}

func TestProcessWithReflectionStopsWhenGoalAchieved(t *testing.T) {
	stub := &stubPlugin{name: "echo"}
	// Scripted turn order: goal extraction, complexity, routing, reflection.
	provider := &scriptedProvider{responses: []string{
		`{"description": "echo the message", "success_criteria": ["message echoed"]}`,
		"is_complex: false",
		`{"plugin": "echo", "confidence": 1.0, "parameters": {"message": "hi"}}`,
		`{"goal_achieved": true, "quality_assessment": "good", "needs_retry": false}`,
	}}
	router, _ := newTestRouter(t, provider, stub)
	framework := NewFramework(router, provider, "test-key", "test-model", 3)

	result, attempts := framework.ProcessWithReflection(context.Background(), "echo hi", 3)
	assert.Equal(t, "success", result.Status)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Reflection.GoalAchieved)
	assert.Equal(t, 1, result.StepsCompleted)
}

func TestProcessWithReflectionRetries(t *testing.T) {
	stub := &stubPlugin{name: "echo", response: &plugin.Response{Status: plugin.StatusError, Error: "boom"}}
	// Every reflection asks for a retry; the loop must stop at the budget.
	provider := &scriptedProvider{responses: []string{
		`{"description": "goal"}`,
		"is_complex: false",
		`{"plugin": "echo", "confidence": 1.0, "parameters": {}}`,
		`{"goal_achieved": false, "quality_assessment": "bad", "needs_retry": true, "retry_strategy": "rephrase", "suggested_improvements": ["be specific"]}`,
		"improved query",
	}}
	router, _ := newTestRouter(t, provider, stub)
	framework := NewFramework(router, provider, "test-key", "test-model", 2)

	result, attempts := framework.ProcessWithReflection(context.Background(), "echo hi", 2)
	assert.Equal(t, "failed", result.Status)
	assert.Len(t, attempts, 2)
}
