//go:build darwin || linux

package privilege

import (
	"context"

	"golang.org/x/sys/unix"
)

// sudoAuthorizer negotiates elevation through sudo's timestamp cache.
// Prompt is provided per platform.
type sudoAuthorizer struct {
	cfg AuthorizerConfig
}

// NewPlatformAuthorizer returns the authorizer for the host platform
func NewPlatformAuthorizer(cfg AuthorizerConfig) Authorizer {
	return &sudoAuthorizer{cfg: cfg}
}

func isRoot() bool {
	return unix.Geteuid() == 0
}

// Probe validates the cached sudo credential without prompting
func (a *sudoAuthorizer) Probe(ctx context.Context) error {
	if isRoot() {
		return nil
	}
	return runQuiet(ctx, nil, nil, a.cfg.sudoPath(), "-n", "-v")
}

// Extend restarts sudo's timestamp so the credential lives for its full timeout
func (a *sudoAuthorizer) Extend(ctx context.Context) error {
	if isRoot() {
		return nil
	}
	return runQuiet(ctx, nil, nil, a.cfg.sudoPath(), "-n", "-v")
}
