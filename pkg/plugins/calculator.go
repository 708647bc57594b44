package plugins

import (
	"context"
	"log/slog"
	"math"

	"github.com/sparhub/sparrow/pkg/plugin"
)

// CalculatorPlugin evaluates arithmetic expressions through the safe
// whitelist evaluator. Action failures come back as error-status
// responses, never as Go errors.
type CalculatorPlugin struct {
	logger *slog.Logger
	meta   plugin.Metadata
}

// NewCalculator constructs the calculator plugin.
func NewCalculator() plugin.Plugin {
	return &CalculatorPlugin{
		logger: slog.Default().With("plugin", "calculator"),
		meta: plugin.Metadata{
			Name:         "calculator",
			Version:      "1.0.0",
			Description:  "Performs mathematical calculations and evaluations",
			Author:       "MCP Team",
			Capabilities: []string{"calculate", "math", "arithmetic", "evaluate"},
			RequiredParams: map[string]string{
				"expression": "Mathematical expression to evaluate",
			},
			OptionalParams: map[string]string{
				"precision": "Number of decimal places for the result",
				"format":    "Output format: 'number', 'scientific', or 'fraction'",
			},
			Examples: []map[string]any{
				{
					"query":      "Calculate 2 + 2",
					"parameters": map[string]any{"expression": "2 + 2"},
				},
				{
					"query":      "What is 15% of 200?",
					"parameters": map[string]any{"expression": "200 * 0.15"},
				},
				{
					"query":      "Calculate the area of a circle with radius 5",
					"parameters": map[string]any{"expression": "3.14159 * 5**2"},
				},
			},
		},
	}
}

func (p *CalculatorPlugin) Initialize(ctx context.Context, config map[string]any) error {
	p.logger.Info("initializing calculator plugin")
	return nil
}

func (p *CalculatorPlugin) Execute(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
	expression := stringParam(req.Parameters, "expression")
	if expression == "" {
		return plugin.NewErrorResponse(req.RequestID, "No expression provided"), nil
	}

	p.logger.Info("evaluating expression", "expression", expression)

	value, err := evaluateExpression(expression)
	if err != nil {
		p.logger.Error("calculator execution failed", "error", err)
		return plugin.NewErrorResponse(req.RequestID, err.Error()), nil
	}

	// Integral results surface as ints, mirroring how a calculator would
	// print them.
	var result any = value
	resultType := "float"
	if value == math.Trunc(value) && !math.IsInf(value, 0) {
		result = int(value)
		resultType = "int"
	}

	resp := plugin.NewSuccessResponse(req.RequestID, map[string]any{
		"expression": expression,
		"result":     result,
		"type":       resultType,
	})
	return resp, nil
}

func (p *CalculatorPlugin) ValidateRequest(req *plugin.Request) bool {
	return plugin.HasRequiredParams(p.meta, req)
}

func (p *CalculatorPlugin) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down calculator plugin")
	return nil
}

func (p *CalculatorPlugin) Metadata() plugin.Metadata { return p.meta }
