package bootstrap

import (
	"errors"
	"log/slog"

	"github.com/luna-agent/luna/internal/gateway"
	"github.com/luna-agent/luna/internal/gateway/config"
	"github.com/luna-agent/luna/internal/gateway/environment"
	"github.com/luna-agent/luna/internal/gateway/executor"
	"github.com/luna-agent/luna/internal/gateway/privilege"
	"github.com/luna-agent/luna/internal/logging"
)

// GatewayOptions carries the runtime pieces NewGateway cannot read from config
type GatewayOptions struct {
	Logger *slog.Logger

	// Output receives live command output; nil disables streaming
	Output executor.OutputWriter

	// BaseEnv replaces the host environment; used by tests
	BaseEnv map[string]string

	// Authorizer replaces the platform authorizer; used by tests
	Authorizer privilege.Authorizer

	RunID string
}

// NewGateway builds the elevation manager, executor and gateway from cfg.
// Failures are returned as *logging.PreExecutionError.
func NewGateway(cfg *config.Config, opts GatewayOptions) (*gateway.Gateway, *privilege.Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authorizer := opts.Authorizer
	if authorizer == nil {
		authorizer = privilege.NewPlatformAuthorizer(privilege.AuthorizerConfig{
			SudoPath: cfg.Elevation.SudoPath,
			Askpass:  cfg.Elevation.Askpass,
			Logger:   logger,
		})
	}

	manager, err := privilege.NewManager(
		privilege.WithAuthorizer(authorizer),
		privilege.WithCacheWindow(cfg.Elevation.CacheWindow()),
		privilege.WithCredentialTTL(cfg.Elevation.CredentialTTL()),
		privilege.WithPromptTimeout(cfg.Elevation.PromptTimeout()),
		privilege.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, setupError(logging.ErrorTypeConfigInvalid, "privilege", "invalid elevation settings", err, opts.RunID)
	}

	exec := executor.NewDefaultExecutor(cfg.Gateway.Shell)
	exec.Out = opts.Output
	exec.OutputLimit = cfg.Gateway.OutputSizeLimit

	gwOpts := []gateway.Option{
		gateway.WithExecutor(exec),
		gateway.WithElevationManager(manager),
		gateway.WithLogger(logger),
		gateway.WithDefaultTimeout(cfg.Gateway.DefaultTimeout()),
		gateway.WithMaxTimeout(cfg.Gateway.MaxTimeout()),
	}
	if opts.BaseEnv != nil {
		gwOpts = append(gwOpts, gateway.WithBaseEnv(opts.BaseEnv))
	}

	gw, err := gateway.New(gwOpts...)
	if err != nil {
		typ := logging.ErrorTypeGatewaySetup
		if errors.Is(err, environment.ErrEmptyEnvironment) || errors.Is(err, environment.ErrHomeUnresolved) {
			typ = logging.ErrorTypeEnvironmentLoad
		}
		return nil, nil, setupError(typ, "gateway", "failed to create gateway", err, opts.RunID)
	}
	return gw, manager, nil
}

func setupError(typ logging.ErrorType, component, message string, err error, runID string) *logging.PreExecutionError {
	pre := logging.NewPreExecutionError(typ, component, message, err)
	pre.RunID = runID
	return pre
}
