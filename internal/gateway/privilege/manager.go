package privilege

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Defaults for the elevation cache
const (
	// DefaultCacheWindow is how long a grant is reused without asking again
	DefaultCacheWindow = 240 * time.Second
	// DefaultCredentialTTL is sudo's default timestamp_timeout
	DefaultCredentialTTL = 300 * time.Second
	// DefaultPromptTimeout bounds the wait for the operator
	DefaultPromptTimeout = 120 * time.Second
)

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// State is the elevation cache. A zero LastGrantedAt means no grant was
// ever obtained.
type State struct {
	LastGrantedAt time.Time     `json:"last_granted_at"`
	CacheWindow   time.Duration `json:"cache_window"`
}

// AuthorizedAt reports whether a grant is still valid at now
func (s State) AuthorizedAt(now time.Time) bool {
	if s.LastGrantedAt.IsZero() {
		return false
	}
	return now.Sub(s.LastGrantedAt) < s.CacheWindow
}

// Option configures a Manager during construction
type Option func(*Manager)

// WithClock sets the time source
func WithClock(clock Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithAuthorizer sets the platform authorizer
func WithAuthorizer(authorizer Authorizer) Option {
	return func(m *Manager) {
		m.authorizer = authorizer
	}
}

// WithCacheWindow sets how long a grant is reused
func WithCacheWindow(window time.Duration) Option {
	return func(m *Manager) {
		m.state.CacheWindow = window
	}
}

// WithCredentialTTL sets the platform credential lifetime the cache window must stay below
func WithCredentialTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.credentialTTL = ttl
	}
}

// WithPromptTimeout bounds the interactive prompt
func WithPromptTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.promptTimeout = timeout
	}
}

// WithLogger sets the logger for elevation progress lines
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager owns the process-wide elevation state. All negotiation runs under
// one mutex so concurrent callers never open duplicate prompts.
type Manager struct {
	mu            sync.Mutex
	state         State
	clock         Clock
	authorizer    Authorizer
	credentialTTL time.Duration
	promptTimeout time.Duration
	logger        *slog.Logger
	metrics       Metrics
}

// NewManager creates a manager in the Unauthorized state
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		state:         State{CacheWindow: DefaultCacheWindow},
		clock:         systemClock{},
		credentialTTL: DefaultCredentialTTL,
		promptTimeout: DefaultPromptTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.state.CacheWindow <= 0 || m.state.CacheWindow >= m.credentialTTL {
		return nil, fmt.Errorf("%w: window %s, credential lifetime %s",
			ErrInvalidCacheWindow, m.state.CacheWindow, m.credentialTTL)
	}
	if m.promptTimeout <= 0 {
		return nil, ErrInvalidPromptTimeout
	}
	if m.authorizer == nil {
		m.authorizer = NewPlatformAuthorizer(AuthorizerConfig{Logger: m.logger})
	}

	return m, nil
}

// EnsureAccess returns nil when elevated execution is authorized. A cached
// grant is reused without prompting; otherwise the non-interactive probe is
// tried before the interactive prompt. Any failure wraps ErrElevationDenied.
func (m *Manager) EnsureAccess(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.AuthorizedAt(m.clock.Now()) {
		m.metrics.RecordCacheHit()
		m.logger.Debug("Elevation reused from cache",
			slog.Time("last_granted_at", m.state.LastGrantedAt))
		return nil
	}

	probeErr := m.authorizer.Probe(ctx)
	if probeErr == nil {
		now := m.clock.Now()
		m.grant(now)
		m.metrics.RecordProbeGrant(now)
		m.logger.Info("Elevation granted", slog.String("via", "probe"))
		return nil
	}
	m.logger.Debug("Non-interactive elevation probe failed", slog.Any("error", probeErr))

	m.logger.Info("Elevation requested", slog.Duration("prompt_timeout", m.promptTimeout))

	started := m.clock.Now()
	promptCtx, cancel := context.WithTimeout(ctx, m.promptTimeout)
	defer cancel()

	if err := m.authorizer.Prompt(promptCtx); err != nil {
		if errors.Is(promptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: authorization prompt timed out after %s", ErrElevationDenied, m.promptTimeout)
		} else {
			err = fmt.Errorf("%w: %w", ErrElevationDenied, err)
		}
		m.metrics.RecordDenial(err)
		m.logger.Warn("Elevation denied", slog.Any("error", err))
		return err
	}

	if err := m.authorizer.Extend(ctx); err != nil {
		m.logger.Warn("Failed to extend platform credential", slog.Any("error", err))
	}

	now := m.clock.Now()
	m.grant(now)
	m.metrics.RecordPromptGrant(now, now.Sub(started))
	m.logger.Info("Elevation granted", slog.String("via", "prompt"))
	return nil
}

// grant records a successful grant; LastGrantedAt never moves backwards
func (m *Manager) grant(at time.Time) {
	if at.After(m.state.LastGrantedAt) {
		m.state.LastGrantedAt = at
	}
}

// IsAuthorized reports whether a cached grant is still valid. It never prompts.
func (m *Manager) IsAuthorized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.AuthorizedAt(m.clock.Now())
}

// State returns a copy of the elevation state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// GetMetrics returns a snapshot of the negotiation metrics
func (m *Manager) GetMetrics() MetricsSnapshot {
	return m.metrics.GetSnapshot()
}
