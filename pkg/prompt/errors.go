package prompt

import "errors"

// ErrNoAxes is returned when a multi-axis template has an empty axis list.
var ErrNoAxes = errors.New("multi-axis template must have at least one axis")

// ErrUnknownTemplate is returned by lookups for template ids that do not exist.
var ErrUnknownTemplate = errors.New("unknown prompt template")
