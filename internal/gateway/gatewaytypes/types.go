// Package gatewaytypes defines the data model shared by the command execution
// gateway: the request handed in by callers, the safety verdict, the advisory
// risk level and the terminal execution result.
package gatewaytypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRiskLevel is returned when a risk level string cannot be parsed
var ErrInvalidRiskLevel = errors.New("invalid risk level")

// CommandRequest is the immutable input to one gateway execution.
type CommandRequest struct {
	// Text is the shell command line, interpreted by the configured shell.
	Text string `json:"text" yaml:"text"`

	// TimeoutSeconds is the wall-clock budget. Zero or negative selects the
	// configured default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`

	// ForceElevation requests elevated rights even when the command text
	// does not match any elevation pattern.
	ForceElevation bool `json:"force_elevation,omitempty" yaml:"force_elevation,omitempty"`
}

// HazardCategory names the class of hazard a blocked command belongs to
type HazardCategory string

// Hazard categories reported by the safety validator
const (
	HazardNone             HazardCategory = ""
	HazardRecursiveDelete  HazardCategory = "recursive_delete"
	HazardBlockDeviceWrite HazardCategory = "block_device_write"
	HazardFilesystemFormat HazardCategory = "filesystem_format"
	HazardForkBomb         HazardCategory = "fork_bomb"
	HazardReverseShell     HazardCategory = "reverse_shell"
)

// SafetyVerdict is the outcome of validating one command.
// Reason is empty when the command is allowed.
type SafetyVerdict struct {
	Allowed  bool           `json:"allowed"`
	Category HazardCategory `json:"category,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// Allow returns a verdict permitting execution
func Allow() SafetyVerdict {
	return SafetyVerdict{Allowed: true}
}

// Block returns a verdict rejecting execution for the given hazard
func Block(category HazardCategory, reason string) SafetyVerdict {
	return SafetyVerdict{Allowed: false, Category: category, Reason: reason}
}

// RiskLevel is the advisory impact classification of a command.
// It never gates execution on its own.
type RiskLevel int

const (
	// RiskLevelModerate is the default for commands matching neither table
	RiskLevelModerate RiskLevel = iota

	// RiskLevelSafe indicates read-only commands (listing, status, version queries)
	RiskLevelSafe

	// RiskLevelDangerous indicates commands that delete, change permissions,
	// terminate processes, manage services or escalate privileges
	RiskLevelDangerous
)

const (
	// SafeRiskLevelString represents a safe risk level.
	SafeRiskLevelString = "safe"
	// ModerateRiskLevelString represents a moderate risk level.
	ModerateRiskLevelString = "moderate"
	// DangerousRiskLevelString represents a dangerous risk level.
	DangerousRiskLevelString = "dangerous"
)

// String returns a string representation of RiskLevel
func (r RiskLevel) String() string {
	switch r {
	case RiskLevelSafe:
		return SafeRiskLevelString
	case RiskLevelDangerous:
		return DangerousRiskLevelString
	default:
		return ModerateRiskLevelString
	}
}

// ParseRiskLevel converts a string to RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch s {
	case SafeRiskLevelString:
		return RiskLevelSafe, nil
	case ModerateRiskLevelString, "":
		return RiskLevelModerate, nil
	case DangerousRiskLevelString:
		return RiskLevelDangerous, nil
	default:
		return RiskLevelModerate, fmt.Errorf("%w: %s (supported: safe, moderate, dangerous)", ErrInvalidRiskLevel, s)
	}
}

// MarshalJSON implements json.Marshaler interface
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON implements json.Unmarshaler interface
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// ErrorCategory classifies why an execution did not succeed
type ErrorCategory string

// Error categories surfaced on ExecutionResult
const (
	CategoryNone            ErrorCategory = ""
	CategoryBlocked         ErrorCategory = "blocked"
	CategoryElevationDenied ErrorCategory = "elevation_denied"
	CategoryTimeout         ErrorCategory = "timeout"
	CategoryExecutionFault  ErrorCategory = "execution_fault"
	CategoryNonZeroExit     ErrorCategory = "non_zero_exit"
)

// ExecutionResult is the terminal value returned for one CommandRequest.
// Failures detected before a process exists carry their description in Stderr
// and have a nil ExitCode.
type ExecutionResult struct {
	Success  bool          `json:"success"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode *int          `json:"exit_code,omitempty"`
	Category ErrorCategory `json:"category,omitempty"`
	Risk     RiskLevel     `json:"risk"`
	Duration time.Duration `json:"duration_ns"`

	// Err carries the underlying error for errors.Is checks. Not serialized.
	Err error `json:"-"`
}

// Failed builds a failed result without a process exit code
func Failed(category ErrorCategory, err error) ExecutionResult {
	return ExecutionResult{
		Success:  false,
		Stderr:   err.Error(),
		Category: category,
		Err:      err,
	}
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
