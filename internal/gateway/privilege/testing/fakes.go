// Package testing provides shared test doubles for elevation management.
package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luna-agent/luna/internal/gateway/privilege"
)

// Test error definitions
var (
	ErrFakeProbeFailed = errors.New("fake probe: no cached credential")
	ErrFakeDenied      = errors.New("fake prompt: operator refused")
)

// FakeAuthorizer returns canned outcomes and counts calls
type FakeAuthorizer struct {
	mu sync.Mutex

	// ProbeErr is returned by Probe
	ProbeErr error
	// PromptFunc runs for Prompt; nil accepts immediately
	PromptFunc func(ctx context.Context) error
	// ExtendErr is returned by Extend
	ExtendErr error

	probes  int
	prompts int
	extends int
}

var _ privilege.Authorizer = (*FakeAuthorizer)(nil)

// NewAcceptingAuthorizer fails the probe and accepts the prompt
func NewAcceptingAuthorizer() *FakeAuthorizer {
	return &FakeAuthorizer{ProbeErr: ErrFakeProbeFailed}
}

// NewDenyingAuthorizer fails the probe and refuses the prompt
func NewDenyingAuthorizer() *FakeAuthorizer {
	return &FakeAuthorizer{
		ProbeErr: ErrFakeProbeFailed,
		PromptFunc: func(context.Context) error {
			return ErrFakeDenied
		},
	}
}

// NewHangingAuthorizer fails the probe and never answers the prompt until ctx is done
func NewHangingAuthorizer() *FakeAuthorizer {
	return &FakeAuthorizer{
		ProbeErr: ErrFakeProbeFailed,
		PromptFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
}

// Probe implements privilege.Authorizer
func (f *FakeAuthorizer) Probe(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probes++
	return f.ProbeErr
}

// Prompt implements privilege.Authorizer
func (f *FakeAuthorizer) Prompt(ctx context.Context) error {
	f.mu.Lock()
	f.prompts++
	fn := f.PromptFunc
	f.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Extend implements privilege.Authorizer
func (f *FakeAuthorizer) Extend(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.extends++
	return f.ExtendErr
}

// ProbeCalls returns the number of Probe calls
func (f *FakeAuthorizer) ProbeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

// PromptCalls returns the number of Prompt calls
func (f *FakeAuthorizer) PromptCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts
}

// ExtendCalls returns the number of Extend calls
func (f *FakeAuthorizer) ExtendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extends
}

// FakeClock is a manually advanced clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ privilege.Clock = (*FakeClock)(nil)

// NewFakeClock creates a clock frozen at start
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now implements privilege.Clock
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
