// Package sequence runs an ordered plan of command steps through the gateway
// and aggregates their results. Execution stops at the first failed step and
// nothing already applied is rolled back.
package sequence

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

// Error definitions
var (
	ErrEmptyPlan        = errors.New("plan has no steps")
	ErrEmptyStepCommand = errors.New("step command cannot be empty")
	ErrDuplicateStepID  = errors.New("duplicate step id")
)

// Step is one command of a plan. ID is assigned by the caller; steps loaded
// without one get a ULID.
type Step struct {
	ID             string `yaml:"id,omitempty" json:"id"`
	Command        string `yaml:"command" json:"command"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	ForceElevation bool   `yaml:"sudo,omitempty" json:"sudo,omitempty"`
}

// Request converts the step into a gateway request
func (s Step) Request() gatewaytypes.CommandRequest {
	return gatewaytypes.CommandRequest{
		Text:           s.Command,
		TimeoutSeconds: s.TimeoutSeconds,
		ForceElevation: s.ForceElevation,
	}
}

// Plan is an ordered list of steps
type Plan struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// LoadPlan reads and validates a YAML plan file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path) // #nosec G304 - plan path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a YAML plan. Unknown fields are rejected.
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyPlan
		}
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	if err := plan.Normalize(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// NewPlan builds a plan from bare commands
func NewPlan(name string, commands ...string) (*Plan, error) {
	plan := &Plan{Name: name}
	for _, c := range commands {
		plan.Steps = append(plan.Steps, Step{Command: c})
	}
	if err := plan.Normalize(); err != nil {
		return nil, err
	}
	return plan, nil
}

// Normalize assigns missing step IDs and validates the plan
func (p *Plan) Normalize() error {
	if len(p.Steps) == 0 {
		return ErrEmptyPlan
	}

	seen := make(map[string]struct{}, len(p.Steps))
	for i := range p.Steps {
		step := &p.Steps[i]
		step.ID = strings.TrimSpace(step.ID)
		if step.ID == "" {
			step.ID = ulid.Make().String()
		}
		if strings.TrimSpace(step.Command) == "" {
			return fmt.Errorf("step %d (%s): %w", i+1, step.ID, ErrEmptyStepCommand)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}
