// Package routing selects plugins for natural-language queries. A Router
// asks the configured LLM which plugin fits a query, extracts parameters,
// and executes single plugins or multi-step plans through the plugin
// manager. The Framework in framework.go adds a reflection loop on top.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/plugin"
)

// Decision is the router's answer for a single query.
type Decision struct {
	PluginName      string         `json:"plugin_name"`
	Confidence      float64        `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	ExtractedParams map[string]any `json:"extracted_params"`
}

// PlanStep is one plugin call inside a multi-step plan. DependsOn holds
// indices of earlier steps whose output this step consumes.
type PlanStep struct {
	PluginName string         `json:"plugin_name"`
	Parameters map[string]any `json:"parameters"`
	DependsOn  []int          `json:"depends_on,omitempty"`
}

// Plan is an ordered multi-step execution plan.
type Plan struct {
	Steps     []PlanStep `json:"steps"`
	Reasoning string     `json:"reasoning"`
}

const routingSystemPrompt = `You are a semantic router that analyzes user queries and routes them to appropriate plugins.

Your task is to:
1. Understand the user's intent from their query
2. Select the most appropriate plugin from available options
3. Extract relevant parameters from the query
4. Provide a confidence score (0-1) for your routing decision

You MUST respond with ONLY a JSON object (no additional text, no markdown formatting).

Example response format:
{
    "plugin": "linkedin_external",
    "confidence": 0.95,
    "reasoning": "User is asking for LinkedIn profile information",
    "parameters": {
        "username": "johndoe"
    }
}

Important:
- Response must be valid JSON only
- Use "plugin" not "plugin_name"
- Use "parameters" not "extracted_params"
- Do not wrap in markdown code blocks
- Do not include any text before or after the JSON
`

const planningSystemPrompt = `You are a task planner that creates multi-step execution plans for complex queries.

Your task is to:
1. Analyze if the query requires multiple steps
2. Break down complex tasks into individual plugin calls
3. Identify dependencies between steps
4. Create an efficient execution plan

You MUST respond with ONLY a JSON object of the form:
{
    "steps": [
        {"plugin_name": "...", "parameters": {...}, "depends_on": [0]}
    ],
    "reasoning": "..."
}

Consider:
- Some steps may depend on outputs from previous steps
- Steps should be as atomic as possible
- Use available plugin capabilities effectively
- Provide clear reasoning for your plan`

const complexitySystemPrompt = `Analyze if this query requires multiple steps or can be handled by a single plugin.

Consider it multi-step if it:
- Requires data from one plugin to feed into another
- Asks for multiple distinct operations
- Needs sequential processing
- Combines results from different sources

Respond with:
- is_complex: true/false
- reasoning: brief explanation`

// Router routes queries to plugins via LLM analysis.
type Router struct {
	manager     *plugin.Manager
	provider    llm.Provider
	apiKey      string
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewRouter constructs a router. Routing calls run at temperature 0 so the
// same query routes the same way.
func NewRouter(manager *plugin.Manager, provider llm.Provider, apiKey, model string) *Router {
	return &Router{
		manager:     manager,
		provider:    provider,
		apiKey:      apiKey,
		model:       model,
		temperature: 0.0,
		logger:      slog.Default().With("component", "semantic_router"),
	}
}

// Route decides which plugin should handle the query.
func (r *Router) Route(ctx context.Context, query string) (*Decision, error) {
	r.logger.Info("routing query", "query", query)

	plugins := r.manager.AllMetadata()
	if len(plugins) == 0 {
		return nil, &NoPluginsAvailableError{}
	}

	content, err := r.complete(ctx, routingSystemPrompt,
		fmt.Sprintf("%s\n\nAvailable plugins:\n%s", query, FormatPluginsInfo(plugins)))
	if err != nil {
		return nil, &RoutingDecisionError{
			Message: "Failed to determine appropriate plugin for query",
			Details: map[string]any{"query": query, "error": err.Error()},
			Err:     err,
		}
	}

	var raw struct {
		Plugin     string         `json:"plugin"`
		Confidence float64        `json:"confidence"`
		Reasoning  string         `json:"reasoning"`
		Parameters map[string]any `json:"parameters"`
	}
	stripped := StripCodeFence(content)
	if err := json.Unmarshal([]byte(stripped), &raw); err != nil {
		r.logger.Error("JSON parsing failed", "error", err, "content", stripped)
		return nil, &RoutingDecisionError{
			Message: fmt.Sprintf("Failed to parse JSON from LLM response: %v", err),
			Details: map[string]any{"response": content, "error": err.Error()},
			Err:     err,
		}
	}

	decision := &Decision{
		PluginName:      raw.Plugin,
		Confidence:      raw.Confidence,
		Reasoning:       raw.Reasoning,
		ExtractedParams: raw.Parameters,
	}
	if decision.Reasoning == "" {
		decision.Reasoning = "Selected based on query analysis"
	}
	if decision.ExtractedParams == nil {
		decision.ExtractedParams = map[string]any{}
	}

	r.inferPluginAction(query, decision)

	r.logger.Info("routing decision made",
		"plugin", decision.PluginName, "confidence", decision.Confidence)
	return decision, nil
}

var quotedNamePattern = regexp.MustCompile(`"([^"]*)"`)

// inferPluginAction fills in plugin-specific actions the model tends to
// omit. The LinkedIn plugin needs get_profile or get_company plus the
// matching identifier parameter.
func (r *Router) inferPluginAction(query string, decision *Decision) {
	if decision.PluginName != "linkedin_external" {
		return
	}

	queryLower := strings.ToLower(query)
	action := "get_profile"
	if strings.Contains(queryLower, "company") || strings.Contains(queryLower, "companies") ||
		strings.Contains(queryLower, "organization") || strings.Contains(queryLower, "firm") {
		action = "get_company"
		if _, ok := decision.ExtractedParams["company_name"]; !ok {
			if match := quotedNamePattern.FindStringSubmatch(query); match != nil {
				decision.ExtractedParams["company_name"] = match[1]
			}
		}
	} else {
		if _, ok := decision.ExtractedParams["linkedin_username"]; !ok {
			if username, ok := decision.ExtractedParams["username"]; ok {
				decision.ExtractedParams["linkedin_username"] = username
			} else if profile, ok := decision.ExtractedParams["profile"]; ok {
				decision.ExtractedParams["linkedin_username"] = profile
			}
		}
	}

	decision.ExtractedParams["action"] = action
	r.logger.Info("inferred action for LinkedIn plugin", "action", action)
}

// PlanMultiStep asks the model for an ordered plan.
func (r *Router) PlanMultiStep(ctx context.Context, query string) (*Plan, error) {
	r.logger.Info("planning multi-step execution", "query", query)

	plugins := r.manager.AllMetadata()
	if len(plugins) == 0 {
		return nil, &NoPluginsAvailableError{}
	}

	content, err := r.complete(ctx, planningSystemPrompt,
		fmt.Sprintf("%s\n\nAvailable plugins:\n%s", query, FormatPluginsInfo(plugins)))
	if err != nil {
		return nil, &MultiStepExecutionError{
			Message: "Failed to create execution plan",
			Details: map[string]any{"query": query, "error": err.Error()},
			Err:     err,
		}
	}

	var plan Plan
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &plan); err != nil {
		return nil, &MultiStepExecutionError{
			Message: "Failed to create execution plan",
			Details: map[string]any{"query": query, "error": err.Error()},
			Err:     err,
		}
	}
	return &plan, nil
}

// ExecuteSingle runs the plugin the decision names. The action comes from
// the extracted "action" parameter when present, otherwise the plugin name
// doubles as the action.
func (r *Router) ExecuteSingle(ctx context.Context, query string, decision *Decision) (*plugin.Response, error) {
	if decision == nil {
		var err error
		decision, err = r.Route(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	action := decision.PluginName
	params := make(map[string]any, len(decision.ExtractedParams))
	for k, v := range decision.ExtractedParams {
		params[k] = v
	}
	if a, ok := params["action"].(string); ok && a != "" {
		action = a
		delete(params, "action")
	}

	req := plugin.NewRequest(action, params)
	req.RequestID = fmt.Sprintf("req_%d", time.Now().UnixMilli())

	return r.manager.Execute(ctx, decision.PluginName, req)
}

// ExecuteMultiStep runs a plan in order. A step may only depend on steps
// with a smaller index; forward or self dependencies reject the plan.
func (r *Router) ExecuteMultiStep(ctx context.Context, query string, plan *Plan) ([]*plugin.Response, error) {
	if plan == nil {
		var err error
		plan, err = r.PlanMultiStep(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	responses := make([]*plugin.Response, 0, len(plan.Steps))
	for i, step := range plan.Steps {
		for _, dep := range step.DependsOn {
			if dep >= i {
				return nil, &RoutingDecisionError{
					Message: fmt.Sprintf("Step %d", i),
					Details: map[string]any{
						"error": fmt.Sprintf("Invalid dependency: step %d depends on unexecuted step %d", i, dep),
					},
				}
			}
		}

		params := make(map[string]any, len(step.Parameters)+1)
		for k, v := range step.Parameters {
			params[k] = v
		}
		params["_context"] = map[string]any{
			"previous_results": responses,
			"step_index":       i,
			"total_steps":      len(plan.Steps),
		}

		req := plugin.NewRequest(step.PluginName, params)
		req.RequestID = fmt.Sprintf("req_%d_step_%d", time.Now().UnixMilli(), i)

		resp, err := r.manager.Execute(ctx, step.PluginName, req)
		if err != nil {
			return responses, &MultiStepExecutionError{
				Step:    i + 1,
				Total:   len(plan.Steps),
				Message: err.Error(),
				Err:     err,
			}
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// AnalyzeComplexity reports whether the query needs a multi-step plan.
// Analysis failures default to simple execution.
func (r *Router) AnalyzeComplexity(ctx context.Context, query string) (bool, string) {
	content, err := r.complete(ctx, complexitySystemPrompt, query)
	if err != nil {
		r.logger.Warn("failed to analyze complexity", "error", err)
		return false, "Defaulting to simple execution due to analysis error"
	}

	lower := strings.ToLower(content)
	firstLine, _, _ := strings.Cut(lower, "\n")
	isComplex := strings.Contains(lower, "is_complex: true") || strings.Contains(firstLine, "true")
	return isComplex, strings.TrimSpace(content)
}

// ProcessQuery routes and executes end to end, choosing single or
// multi-step execution from the complexity analysis.
func (r *Router) ProcessQuery(ctx context.Context, query string) (map[string]any, error) {
	r.logger.Info("processing query", "query", query)

	isComplex, reasoning := r.AnalyzeComplexity(ctx, query)

	if isComplex {
		plan, err := r.PlanMultiStep(ctx, query)
		if err != nil {
			return nil, err
		}
		responses, err := r.ExecuteMultiStep(ctx, query, plan)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type":      "multi_step",
			"plan":      plan,
			"responses": responses,
			"reasoning": reasoning,
		}, nil
	}

	decision, err := r.Route(ctx, query)
	if err != nil {
		return nil, err
	}
	response, err := r.ExecuteSingle(ctx, query, decision)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":      "single_step",
		"routing":   decision,
		"response":  response,
		"reasoning": reasoning,
	}, nil
}

func (r *Router) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		APIKey:      r.apiKey,
		Model:       r.model,
		Temperature: llm.Float64(r.temperature),
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// FormatPluginsInfo renders plugin metadata for the routing prompt, sorted
// by name so prompts are stable across runs.
func FormatPluginsInfo(plugins map[string]plugin.Metadata) string {
	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	var blocks []string
	for _, name := range names {
		meta := plugins[name]
		var b strings.Builder
		fmt.Fprintf(&b, "Plugin: %s\n", name)
		fmt.Fprintf(&b, "  Description: %s\n", meta.Description)
		fmt.Fprintf(&b, "  Capabilities: %s\n", strings.Join(meta.Capabilities, ", "))
		if len(meta.RequiredParams) > 0 {
			fmt.Fprintf(&b, "  Required params: %s\n", formatParams(meta.RequiredParams))
		}
		if len(meta.OptionalParams) > 0 {
			fmt.Fprintf(&b, "  Optional params: %s\n", formatParams(meta.OptionalParams))
		}
		if len(meta.Examples) > 0 {
			b.WriteString("  Examples:\n")
			// Two examples keep the prompt compact.
			for _, example := range meta.Examples[:min(len(meta.Examples), 2)] {
				query, _ := example["query"].(string)
				if query == "" {
					query = "No description"
				}
				fmt.Fprintf(&b, "    - %s\n", query)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, params[k]))
	}
	return strings.Join(parts, "; ")
}

// StripCodeFence removes a surrounding markdown code fence, with or
// without a json language tag, from model output.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)

	if idx := strings.Index(content, "```json"); idx >= 0 {
		start := idx + len("```json")
		if end := strings.Index(content[start:], "```"); end > 0 {
			return strings.TrimSpace(content[start : start+end])
		}
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		start := idx + len("```")
		if end := strings.Index(content[start:], "```"); end > 0 {
			return strings.TrimSpace(content[start : start+end])
		}
	}
	return content
}
