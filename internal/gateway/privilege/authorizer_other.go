//go:build !darwin && !linux

package privilege

import "context"

type unsupportedAuthorizer struct{}

// NewPlatformAuthorizer returns an authorizer that always fails on this platform
func NewPlatformAuthorizer(_ AuthorizerConfig) Authorizer {
	return unsupportedAuthorizer{}
}

func (unsupportedAuthorizer) Probe(_ context.Context) error  { return ErrElevationUnsupported }
func (unsupportedAuthorizer) Prompt(_ context.Context) error { return ErrElevationUnsupported }
func (unsupportedAuthorizer) Extend(_ context.Context) error { return ErrElevationUnsupported }
