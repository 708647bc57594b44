package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sparhub/sparrow/pkg/llm"
	"github.com/sparhub/sparrow/pkg/plugin"
)

// TaskGoal is what the user is trying to achieve, extracted from the query.
type TaskGoal struct {
	Description     string   `json:"description"`
	SuccessCriteria []string `json:"success_criteria"`
	Constraints     []string `json:"constraints"`
}

// ExecutionResult is the outcome of one attempt.
type ExecutionResult struct {
	Status         string    `json:"status"` // success, partial, or failed
	Data           any       `json:"data"`
	StepsCompleted int       `json:"steps_completed"`
	TotalSteps     int       `json:"total_steps"`
	Errors         []string  `json:"errors"`
	Timestamp      time.Time `json:"timestamp"`
}

// ReflectionAnalysis is the model's judgment of an execution result.
type ReflectionAnalysis struct {
	GoalAchieved          bool     `json:"goal_achieved"`
	MissingAspects        []string `json:"missing_aspects"`
	QualityAssessment     string   `json:"quality_assessment"`
	SuggestedImprovements []string `json:"suggested_improvements"`
	NeedsRetry            bool     `json:"needs_retry"`
	RetryStrategy         string   `json:"retry_strategy,omitempty"`
}

// AttemptRecord captures one pass through the plan/execute/reflect loop.
type AttemptRecord struct {
	Attempt    int                `json:"attempt"`
	Plan       map[string]any     `json:"plan"`
	Result     ExecutionResult    `json:"result"`
	Reflection ReflectionAnalysis `json:"reflection"`
}

const goalExtractionPrompt = `Extract the goal and success criteria from the user query.

Identify:
1. The main goal/objective
2. Specific success criteria (what would make this successful)
3. Any constraints or limitations mentioned

Format as JSON with:
- description: main goal
- success_criteria: list of criteria
- constraints: list of constraints`

const reflectionPrompt = `Analyze the execution result against the original goal.

Consider:
1. Was the goal achieved?
2. What aspects are missing or incomplete?
3. How good is the quality of the result?
4. What improvements could be made?
5. Should we retry with a different approach?

Format as JSON with:
- goal_achieved: boolean
- missing_aspects: list of what's missing
- quality_assessment: brief assessment
- suggested_improvements: list of improvements
- needs_retry: boolean
- retry_strategy: strategy if retry needed`

// Framework runs the plan, execute, reflect loop on top of the router,
// retrying with model-improved queries until the goal is achieved or the
// attempt budget runs out.
type Framework struct {
	router      *Router
	provider    llm.Provider
	apiKey      string
	model       string
	maxRetries  int
	temperature float64
	logger      *slog.Logger
}

// NewFramework constructs the reflection loop around a router.
func NewFramework(router *Router, provider llm.Provider, apiKey, model string, maxRetries int) *Framework {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Framework{
		router:      router,
		provider:    provider,
		apiKey:      apiKey,
		model:       model,
		maxRetries:  maxRetries,
		temperature: 0.0,
		logger:      slog.Default().With("component", "agentic_framework"),
	}
}

// ExtractGoal pulls the goal out of the query. Extraction failures fall
// back to treating the verbatim query as the goal.
func (f *Framework) ExtractGoal(ctx context.Context, query string) TaskGoal {
	f.logger.Info("extracting goal from query", "query", query)

	content, err := f.complete(ctx, goalExtractionPrompt, query)
	if err != nil {
		f.logger.Error("failed to extract goal", "error", err)
		return TaskGoal{
			Description:     query,
			SuccessCriteria: []string{"Complete the requested task"},
		}
	}

	var goal TaskGoal
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &goal); err != nil {
		f.logger.Warn("failed to parse goal extraction", "error", err)
		return TaskGoal{Description: query}
	}
	if goal.Description == "" {
		goal.Description = query
	}
	return goal
}

// Plan chooses single or multi-step execution for the query.
func (f *Framework) Plan(ctx context.Context, query string, goal TaskGoal) (map[string]any, error) {
	f.logger.Info("creating execution plan", "goal", goal.Description)

	isComplex, reasoning := f.router.AnalyzeComplexity(ctx, query)
	if isComplex {
		plan, err := f.router.PlanMultiStep(ctx, query)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type":                 "multi_step",
			"plan":                 plan,
			"complexity_reasoning": reasoning,
		}, nil
	}

	decision, err := f.router.Route(ctx, query)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":                 "single_step",
		"routing":              decision,
		"complexity_reasoning": reasoning,
	}, nil
}

// Execute runs the plan. Failures become a failed result instead of an
// error so the reflection step can see them.
func (f *Framework) Execute(ctx context.Context, query string, plan map[string]any) ExecutionResult {
	f.logger.Info("executing plan", "plan_type", plan["type"])

	if plan["type"] == "multi_step" {
		multiPlan, _ := plan["plan"].(*Plan)
		responses, err := f.router.ExecuteMultiStep(ctx, query, multiPlan)
		if err != nil {
			return failedResult(err)
		}

		allData := make([]any, 0, len(responses))
		var errors []string
		allSucceeded := true
		for _, resp := range responses {
			if resp.Status == plugin.StatusSuccess {
				allData = append(allData, resp.Data)
			} else {
				allSucceeded = false
			}
			if resp.Error != "" {
				errors = append(errors, resp.Error)
			}
		}

		status := "partial"
		if allSucceeded {
			status = "success"
		}
		totalSteps := len(responses)
		if multiPlan != nil {
			totalSteps = len(multiPlan.Steps)
		}
		return ExecutionResult{
			Status:         status,
			Data:           allData,
			StepsCompleted: len(responses),
			TotalSteps:     totalSteps,
			Errors:         errors,
			Timestamp:      time.Now().UTC(),
		}
	}

	decision, _ := plan["routing"].(*Decision)
	response, err := f.router.ExecuteSingle(ctx, query, decision)
	if err != nil {
		return failedResult(err)
	}

	status := "failed"
	if response.Status == plugin.StatusSuccess {
		status = "success"
	}
	var errors []string
	if response.Error != "" {
		errors = append(errors, response.Error)
	}
	return ExecutionResult{
		Status:         status,
		Data:           response.Data,
		StepsCompleted: 1,
		TotalSteps:     1,
		Errors:         errors,
		Timestamp:      time.Now().UTC(),
	}
}

func failedResult(err error) ExecutionResult {
	return ExecutionResult{
		Status:    "failed",
		Errors:    []string{err.Error()},
		Timestamp: time.Now().UTC(),
	}
}

// Reflect judges the result against the goal. Reflection failures produce
// a conservative default that never triggers a retry.
func (f *Framework) Reflect(ctx context.Context, goal TaskGoal, result ExecutionResult) ReflectionAnalysis {
	f.logger.Info("reflecting on execution", "status", result.Status)

	summary, _ := json.MarshalIndent(map[string]any{
		"status":     result.Status,
		"data":       result.Data,
		"errors":     result.Errors,
		"completion": fmt.Sprintf("%d/%d", result.StepsCompleted, result.TotalSteps),
	}, "", "  ")

	user := fmt.Sprintf("Goal: %s\nSuccess Criteria: %s\nResult: %s",
		goal.Description, strings.Join(goal.SuccessCriteria, "\n"), summary)

	content, err := f.complete(ctx, reflectionPrompt, user)
	if err != nil {
		f.logger.Error("failed to reflect on result", "error", err)
		return ReflectionAnalysis{
			GoalAchieved:      result.Status == "success",
			QualityAssessment: "Unable to analyze",
		}
	}

	var analysis ReflectionAnalysis
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &analysis); err != nil {
		f.logger.Warn("failed to parse reflection", "error", err)
		return ReflectionAnalysis{
			GoalAchieved:      result.Status == "success",
			QualityAssessment: "Unable to parse detailed reflection",
		}
	}
	return analysis
}

// ProcessWithReflection runs the full loop: extract goal, then plan,
// execute, and reflect up to maxAttempts times, improving the query
// between attempts when the reflection asks for a retry. Returns the final
// result plus the per-attempt records.
func (f *Framework) ProcessWithReflection(ctx context.Context, query string, maxAttempts int) (ExecutionResult, []AttemptRecord) {
	if maxAttempts <= 0 {
		maxAttempts = f.maxRetries
	}

	goal := f.ExtractGoal(ctx, query)

	currentQuery := query
	var attempts []AttemptRecord

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		f.logger.Info("processing attempt", "attempt", attempt, "max_attempts", maxAttempts)

		plan, err := f.Plan(ctx, currentQuery, goal)
		var result ExecutionResult
		if err != nil {
			result = failedResult(err)
		} else {
			result = f.Execute(ctx, currentQuery, plan)
		}

		reflection := f.Reflect(ctx, goal, result)
		attempts = append(attempts, AttemptRecord{
			Attempt:    attempt,
			Plan:       plan,
			Result:     result,
			Reflection: reflection,
		})

		if reflection.GoalAchieved || !reflection.NeedsRetry {
			break
		}
		if attempt < maxAttempts {
			currentQuery = f.improveQuery(ctx, query, reflection.RetryStrategy, reflection.SuggestedImprovements)
			f.logger.Info("retrying with improved query", "new_query", currentQuery)
		}
	}

	return attempts[len(attempts)-1].Result, attempts
}

// improveQuery asks the model to rewrite the query using the reflection
// feedback; on failure the original query is reused.
func (f *Framework) improveQuery(ctx context.Context, originalQuery, strategy string, improvements []string) string {
	user := fmt.Sprintf("Original query: %s\nStrategy: %s\nImprovements: %s\n\nGenerate an improved query.",
		originalQuery, strategy, strings.Join(improvements, ", "))

	content, err := f.complete(ctx, "You are an AI that improves queries based on reflection feedback.", user)
	if err != nil {
		f.logger.Error("failed to improve query", "error", err)
		return originalQuery
	}
	return strings.TrimSpace(content)
}

func (f *Framework) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := f.provider.Complete(ctx, llm.CompletionRequest{
		APIKey:      f.apiKey,
		Model:       f.model,
		Temperature: llm.Float64(f.temperature),
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
