// Package gateway is the single choke point between a command planner and
// the host shell. Every request is validated, classified, elevated when
// required, given a non-interactive environment and run under a timeout.
// The outcome is always returned as data; Run never fails across its boundary.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/luna-agent/luna/internal/gateway/environment"
	"github.com/luna-agent/luna/internal/gateway/executor"
	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
	"github.com/luna-agent/luna/internal/gateway/privilege"
	"github.com/luna-agent/luna/internal/gateway/risk"
	"github.com/luna-agent/luna/internal/gateway/safety"
)

// Error definitions
var (
	ErrCommandBlocked = errors.New("command blocked")
	ErrNonZeroExit    = errors.New("command exited with non-zero status")
)

// DefaultTimeout applies when a request carries no timeout of its own
const DefaultTimeout = 300 * time.Second

// ElevationManager negotiates elevated rights. *privilege.Manager implements it.
type ElevationManager interface {
	EnsureAccess(ctx context.Context) error
}

// Gateway runs command requests
type Gateway struct {
	validator      *safety.Validator
	classifier     risk.Classifier
	needsElevation func(string) bool
	elevation      ElevationManager
	shaper         *environment.Shaper
	executor       executor.CommandExecutor
	baseEnv        map[string]string
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	logger         *slog.Logger
}

// Option configures a Gateway during construction
type Option func(*Gateway)

// WithExecutor sets the process executor
func WithExecutor(exec executor.CommandExecutor) Option {
	return func(g *Gateway) {
		g.executor = exec
	}
}

// WithElevationManager sets the elevation manager
func WithElevationManager(m ElevationManager) Option {
	return func(g *Gateway) {
		g.elevation = m
	}
}

// WithLogger sets the logger receiving progress lines
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithBaseEnv sets the base environment. Without it the host environment is
// loaded once at construction.
func WithBaseEnv(env map[string]string) Option {
	return func(g *Gateway) {
		g.baseEnv = env
	}
}

// WithDefaultTimeout sets the timeout used when a request has none
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.defaultTimeout = timeout
	}
}

// WithMaxTimeout caps request timeouts; zero means no cap
func WithMaxTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.maxTimeout = timeout
	}
}

// WithClassifier sets the risk classifier
func WithClassifier(c risk.Classifier) Option {
	return func(g *Gateway) {
		g.classifier = c
	}
}

// WithShaper sets the environment shaper
func WithShaper(s *environment.Shaper) Option {
	return func(g *Gateway) {
		g.shaper = s
	}
}

// New creates a gateway. A failure to load the host environment is returned
// as an error and must abort startup.
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		validator:      safety.NewValidator(),
		classifier:     risk.NewStandardClassifier(),
		needsElevation: privilege.NeedsElevation,
		shaper:         environment.NewShaper(nil),
		defaultTimeout: DefaultTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.defaultTimeout <= 0 {
		return nil, fmt.Errorf("invalid default timeout: %s", g.defaultTimeout)
	}
	if g.baseEnv == nil {
		env, err := environment.LoadBase()
		if err != nil {
			return nil, fmt.Errorf("failed to load base environment: %w", err)
		}
		g.baseEnv = env
	}
	if g.executor == nil {
		g.executor = executor.NewDefaultExecutor("")
	}
	if g.elevation == nil {
		m, err := privilege.NewManager(privilege.WithLogger(g.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create elevation manager: %w", err)
		}
		g.elevation = m
	}

	return g, nil
}

// Assessment is the pre-execution view of a command
type Assessment struct {
	Verdict        gatewaytypes.SafetyVerdict `json:"verdict"`
	Risk           gatewaytypes.RiskLevel     `json:"risk"`
	NeedsElevation bool                       `json:"needs_elevation"`
	Overlays       []string                   `json:"overlays,omitempty"`
}

// Assess validates and classifies text without side effects
func (g *Gateway) Assess(text string) Assessment {
	a := Assessment{
		Verdict:        g.validator.Validate(text),
		Risk:           g.classifier.Classify(text),
		NeedsElevation: g.needsElevation(text),
	}
	for _, o := range g.shaper.Detect(text) {
		a.Overlays = append(a.Overlays, o.Name)
	}
	return a
}

// Run executes one request. Checks run in order and the first failure
// short-circuits: validation, elevation, environment, execution.
func (g *Gateway) Run(ctx context.Context, req gatewaytypes.CommandRequest) (result gatewaytypes.ExecutionResult) {
	started := time.Now()
	logger := g.logger.With(slog.String("command", req.Text))

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", executor.ErrExecutionFault, r)
			logger.Error("Command panicked", slog.Any("error", err))
			result = gatewaytypes.Failed(gatewaytypes.CategoryExecutionFault, err)
		}
		result.Duration = time.Since(started)
	}()

	if strings.TrimSpace(req.Text) == "" {
		return gatewaytypes.Failed(gatewaytypes.CategoryExecutionFault, executor.ErrEmptyCommand)
	}

	level := g.classifier.Classify(req.Text)

	verdict := g.validator.Validate(req.Text)
	if !verdict.Allowed {
		err := fmt.Errorf("%w: %s", ErrCommandBlocked, verdict.Reason)
		logger.Warn("Command blocked",
			slog.String("hazard", string(verdict.Category)),
			slog.String("reason", verdict.Reason))
		result = gatewaytypes.Failed(gatewaytypes.CategoryBlocked, err)
		result.Risk = level
		return result
	}

	if req.ForceElevation || g.needsElevation(req.Text) {
		logger.Info("Elevation required", slog.Bool("forced", req.ForceElevation))
		if err := g.elevation.EnsureAccess(ctx); err != nil {
			if !errors.Is(err, privilege.ErrElevationDenied) {
				err = fmt.Errorf("%w: %w", privilege.ErrElevationDenied, err)
			}
			logger.Warn("Command not run", slog.Any("error", err))
			result = gatewaytypes.Failed(gatewaytypes.CategoryElevationDenied, err)
			result.Risk = level
			return result
		}
	}

	env := g.shaper.Build(req.Text, g.baseEnv)
	timeout := g.timeoutFor(req, logger)

	logger.Info("Command started",
		slog.String("risk", level.String()),
		slog.Duration("timeout", timeout))

	res, err := g.executor.Execute(ctx, req.Text, env, timeout)
	result = g.toResult(res, err)
	result.Risk = level

	attrs := []any{slog.String("category", string(result.Category))}
	if result.ExitCode != nil {
		attrs = append(attrs, slog.Int("exit_code", *result.ExitCode))
	}
	if result.Success {
		logger.Info("Command completed", attrs...)
	} else {
		logger.Warn("Command failed", append(attrs, slog.Any("error", result.Err))...)
	}

	return result
}

func (g *Gateway) toResult(res *executor.Result, err error) gatewaytypes.ExecutionResult {
	switch {
	case errors.Is(err, executor.ErrTimeout):
		return gatewaytypes.Failed(gatewaytypes.CategoryTimeout, err)
	case err != nil:
		if !errors.Is(err, executor.ErrExecutionFault) {
			err = fmt.Errorf("%w: %w", executor.ErrExecutionFault, err)
		}
		return gatewaytypes.Failed(gatewaytypes.CategoryExecutionFault, err)
	case res == nil:
		return gatewaytypes.Failed(gatewaytypes.CategoryExecutionFault,
			fmt.Errorf("%w: no result", executor.ErrExecutionFault))
	}

	result := gatewaytypes.ExecutionResult{
		Success:  res.ExitCode == 0,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: gatewaytypes.IntPtr(res.ExitCode),
	}
	if !result.Success {
		result.Category = gatewaytypes.CategoryNonZeroExit
		result.Err = fmt.Errorf("%w: exit status %d", ErrNonZeroExit, res.ExitCode)
	}
	return result
}

// timeoutFor resolves the request timeout against the configured default and cap
func (g *Gateway) timeoutFor(req gatewaytypes.CommandRequest, logger *slog.Logger) time.Duration {
	timeout := g.defaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	if g.maxTimeout > 0 && timeout > g.maxTimeout {
		logger.Warn("Timeout capped",
			slog.Duration("requested", timeout),
			slog.Duration("max", g.maxTimeout))
		timeout = g.maxTimeout
	}
	return timeout
}
