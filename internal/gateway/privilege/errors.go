// Package privilege negotiates elevated execution rights for the gateway and
// caches a successful grant for a bounded window so the operator is not asked
// again for every command.
package privilege

import "errors"

// Standard errors
var (
	// ErrElevationDenied is returned when elevation failed, timed out or was refused by the operator
	ErrElevationDenied = errors.New("elevation denied")
	// ErrElevationUnsupported is returned on platforms without an elevation mechanism
	ErrElevationUnsupported = errors.New("elevation not supported on this platform")
	// ErrNoPromptAvailable is returned when no interactive authorization prompt can be shown
	ErrNoPromptAvailable = errors.New("no interactive authorization prompt available")
	// ErrPromptCancelled is returned when the operator dismissed the authorization prompt
	ErrPromptCancelled = errors.New("authorization prompt cancelled")
	// ErrInvalidCacheWindow is returned when the cache window is not strictly inside the credential lifetime
	ErrInvalidCacheWindow = errors.New("cache window must be positive and shorter than the platform credential lifetime")
	// ErrInvalidPromptTimeout is returned for a non-positive prompt timeout
	ErrInvalidPromptTimeout = errors.New("prompt timeout must be positive")
)
