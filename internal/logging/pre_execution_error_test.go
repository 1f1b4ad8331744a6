package logging

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreExecutionError_Error(t *testing.T) {
	cause := errors.New("unknown field \"shel\"")

	tests := []struct {
		name string
		err  *PreExecutionError
		want string
	}{
		{
			name: "full",
			err:  NewPreExecutionError(ErrorTypeConfigInvalid, "config", "failed to load configuration", cause),
			want: `config_invalid: failed to load configuration: unknown field "shel" (component: config)`,
		},
		{
			name: "no cause or component",
			err:  &PreExecutionError{Type: ErrorTypeRequiredArgumentMissing, Message: "no command given"},
			want: "required_argument_missing: no command given",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPreExecutionError_Chain(t *testing.T) {
	cause := errors.New("permission denied")
	wrapped := fmt.Errorf("startup: %w", NewPreExecutionError(ErrorTypeLogFileOpen, "logging", "cannot open run log", cause))

	assert.ErrorIs(t, wrapped, cause)

	pre, ok := AsPreExecutionError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeLogFileOpen, pre.Type)

	_, ok = AsPreExecutionError(cause)
	assert.False(t, ok)
}

func TestReportPreExecutionError(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	err := NewPreExecutionError(ErrorTypePlanInvalid, "sequence", "failed to load plan", errors.New("plan has no steps"))
	err.RunID = "run-1"

	ReportPreExecutionError(&out, err)

	assert.Equal(t,
		"Error: plan_invalid\n  Component: sequence\n  Details: failed to load plan: plan has no steps\n  Run ID: run-1\n",
		out.String())
	assert.Contains(t, logs.String(), `"error_type":"plan_invalid"`)
	assert.Contains(t, logs.String(), `"run_id":"run-1"`)
}
