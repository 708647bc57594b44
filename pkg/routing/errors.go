package routing

import "fmt"

// NoPluginsAvailableError reports that routing was attempted with an empty
// plugin registry.
type NoPluginsAvailableError struct{}

func (e *NoPluginsAvailableError) Error() string {
	return "No plugins available for routing"
}

// RoutingDecisionError reports that a routing decision could not be made or
// was invalid. Details carry diagnostic context for the API error body.
type RoutingDecisionError struct {
	Message string
	Details map[string]any
	Err     error
}

func (e *RoutingDecisionError) Error() string { return e.Message }

func (e *RoutingDecisionError) Unwrap() error { return e.Err }

// NewRoutingDecisionError builds a RoutingDecisionError with context.
func NewRoutingDecisionError(message string, details map[string]any) *RoutingDecisionError {
	return &RoutingDecisionError{Message: message, Details: details}
}

// MultiStepExecutionError reports a failure inside a multi-step plan.
type MultiStepExecutionError struct {
	Step    int
	Total   int
	Message string
	Details map[string]any
	Err     error
}

func (e *MultiStepExecutionError) Error() string {
	if e.Total > 0 {
		return fmt.Sprintf("Multi-step execution failed at step %d/%d: %s", e.Step, e.Total, e.Message)
	}
	return e.Message
}

func (e *MultiStepExecutionError) Unwrap() error { return e.Err }
