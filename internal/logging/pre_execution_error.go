package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrorType classifies failures that stop luna before any command runs
type ErrorType string

// Pre-execution error types
const (
	ErrorTypeConfigInvalid           ErrorType = "config_invalid"
	ErrorTypeLogFileOpen             ErrorType = "log_file_open_failed"
	ErrorTypeEnvironmentLoad         ErrorType = "environment_load_failed"
	ErrorTypePlanInvalid             ErrorType = "plan_invalid"
	ErrorTypeRequiredArgumentMissing ErrorType = "required_argument_missing"
	ErrorTypeGatewaySetup            ErrorType = "gateway_setup_failed"
	ErrorTypeUserInterrupted         ErrorType = "user_interrupted"
)

// PreExecutionError is returned by startup steps
type PreExecutionError struct {
	Type      ErrorType
	Message   string
	Component string
	RunID     string
	Err       error
}

// NewPreExecutionError creates a PreExecutionError wrapping err
func NewPreExecutionError(typ ErrorType, component, message string, err error) *PreExecutionError {
	return &PreExecutionError{Type: typ, Component: component, Message: message, Err: err}
}

func (e *PreExecutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Type, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if e.Component != "" {
		fmt.Fprintf(&sb, " (component: %s)", e.Component)
	}
	return sb.String()
}

// Unwrap returns the wrapped error
func (e *PreExecutionError) Unwrap() error {
	return e.Err
}

// AsPreExecutionError extracts a PreExecutionError from an error chain
func AsPreExecutionError(err error) (*PreExecutionError, bool) {
	var pre *PreExecutionError
	if errors.As(err, &pre) {
		return pre, true
	}
	return nil, false
}

// ReportPreExecutionError writes a short block to w and logs the error
// through the default logger, which may still be the bootstrap logger
func ReportPreExecutionError(w io.Writer, e *PreExecutionError) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", e.Type)
	if e.Component != "" {
		fmt.Fprintf(&sb, "  Component: %s\n", e.Component)
	}
	details := e.Message
	if e.Err != nil {
		details += ": " + e.Err.Error()
	}
	fmt.Fprintf(&sb, "  Details: %s\n", details)
	if e.RunID != "" {
		fmt.Fprintf(&sb, "  Run ID: %s\n", e.RunID)
	}
	_, _ = io.WriteString(w, sb.String())

	slog.Error("Pre-execution error",
		slog.String("error_type", string(e.Type)),
		slog.String("component", e.Component),
		slog.String("run_id", e.RunID),
		slog.Any("error", e))
}
