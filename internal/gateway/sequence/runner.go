package sequence

import (
	"context"
	"log/slog"
	"time"

	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
)

// Status is the aggregate outcome of a plan
type Status string

// Plan statuses
const (
	// StatusCompleted means every step succeeded
	StatusCompleted Status = "completed"
	// StatusFailed means the first step failed, so nothing was applied
	StatusFailed Status = "failed"
	// StatusPartial means at least one step succeeded before a failure
	StatusPartial Status = "partial"
)

// CommandRunner executes one request. *gateway.Gateway implements it.
type CommandRunner interface {
	Run(ctx context.Context, req gatewaytypes.CommandRequest) gatewaytypes.ExecutionResult
}

// StepResult pairs a step with its verbatim gateway result
type StepResult struct {
	StepID  string                       `json:"step_id"`
	Command string                       `json:"command"`
	Result  gatewaytypes.ExecutionResult `json:"result"`
}

// Report is the outcome of a plan run
type Report struct {
	Plan     string        `json:"plan,omitempty"`
	Status   Status        `json:"status"`
	Steps    []StepResult  `json:"steps"`
	Skipped  []string      `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Runner executes plans step by step
type Runner struct {
	gateway CommandRunner
	logger  *slog.Logger
}

// NewRunner creates a runner on top of gateway
func NewRunner(gateway CommandRunner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{gateway: gateway, logger: logger}
}

// Run executes the plan in order and stops at the first failed step. Steps
// after the failure are listed as skipped. A cancelled context stops the
// plan before the next step.
func (r *Runner) Run(ctx context.Context, plan *Plan) Report {
	started := time.Now()
	report := Report{Plan: plan.Name, Steps: make([]StepResult, 0, len(plan.Steps))}

	for i, step := range plan.Steps {
		if ctx.Err() != nil {
			r.logger.Warn("Plan interrupted", slog.String("step_id", step.ID), slog.Any("error", ctx.Err()))
			report.Skipped = skippedIDs(plan.Steps[i:])
			break
		}

		r.logger.Info("Step started",
			slog.String("step_id", step.ID),
			slog.Int("index", i+1),
			slog.Int("total", len(plan.Steps)))

		result := r.gateway.Run(ctx, step.Request())
		report.Steps = append(report.Steps, StepResult{StepID: step.ID, Command: step.Command, Result: result})

		if !result.Success {
			r.logger.Warn("Step failed, stopping plan",
				slog.String("step_id", step.ID),
				slog.String("category", string(result.Category)))
			report.Skipped = skippedIDs(plan.Steps[i+1:])
			break
		}
		r.logger.Info("Step completed", slog.String("step_id", step.ID))
	}

	report.Status = Aggregate(report.Steps, len(plan.Steps))
	report.Duration = time.Since(started)
	r.logger.Info("Plan finished", slog.String("status", string(report.Status)))
	return report
}

// Aggregate derives the plan status from the results of the steps that ran
func Aggregate(results []StepResult, total int) Status {
	if len(results) == 0 || !results[0].Result.Success {
		return StatusFailed
	}
	for _, r := range results {
		if !r.Result.Success {
			return StatusPartial
		}
	}
	if len(results) < total {
		return StatusPartial
	}
	return StatusCompleted
}

func skippedIDs(steps []Step) []string {
	if len(steps) == 0 {
		return nil
	}
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}
