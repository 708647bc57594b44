package plugin

import "fmt"

// NotFoundError indicates the named plugin is not registered.
type NotFoundError struct {
	Plugin string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Plugin '%s' not found", e.Plugin)
}

// InitializationError indicates a plugin failed to initialize.
type InitializationError struct {
	Plugin string
	Reason string
	Err    error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("Failed to initialize plugin '%s': %s", e.Plugin, e.Reason)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ExecutionError indicates a plugin's Execute call failed.
type ExecutionError struct {
	Plugin string
	Action string
	Reason string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Plugin '%s' failed to execute action '%s': %s", e.Plugin, e.Action, e.Reason)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ValidationError indicates a request did not satisfy a plugin's
// parameter requirements.
type ValidationError struct {
	Plugin  string
	Details map[string]any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation failed for plugin '%s'", e.Plugin)
}

// LoadError indicates a plugin could not be constructed or registered.
type LoadError struct {
	Plugin string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("Failed to load plugin '%s': %s", e.Plugin, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }
