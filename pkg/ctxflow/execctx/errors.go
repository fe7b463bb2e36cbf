// Package execctx – errors.go defines the error taxonomy surfaced by the
// context runtime: configuration, snapshot, and execution failures.
package execctx

import (
	"errors"
	"fmt"
)

// ErrNotFound signals a lookup miss (stored context, registry entry).
var ErrNotFound = errors.New("not found")

// ConfigError reports an invalid configuration value, such as a
// non-positive budget or malformed constraint.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SnapshotError reports a malformed or schema-violating snapshot during
// reconstruction.
type SnapshotError struct {
	Reason string
	Cause  error
}

func (e *SnapshotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid snapshot: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid snapshot: %s", e.Reason)
}

func (e *SnapshotError) Unwrap() error { return e.Cause }

// ExecError reports a provider call failure, carrying enough detail for a
// logging collaborator to persist a failure record even when no result was
// produced.
type ExecError struct {
	Provider string
	Model    string
	Cause    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execution failed on %s/%s: %v", e.Provider, e.Model, e.Cause)
}

func (e *ExecError) Unwrap() error { return e.Cause }
