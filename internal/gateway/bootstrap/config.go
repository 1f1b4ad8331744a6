package bootstrap

import (
	"github.com/luna-agent/luna/internal/gateway/config"
	"github.com/luna-agent/luna/internal/logging"
)

// LoadConfig loads the gateway configuration and reports failures as
// *logging.PreExecutionError
func LoadConfig(path, runID string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, setupError(logging.ErrorTypeConfigInvalid, "config", "failed to load configuration", err, runID)
	}
	return cfg, nil
}
