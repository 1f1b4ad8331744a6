// Package testing provides testify-based mock implementations for executor interfaces.
package testing

import (
	"context"
	"time"

	"github.com/luna-agent/luna/internal/gateway/executor"
	"github.com/stretchr/testify/mock"
)

// MockExecutor provides a mock implementation of executor.CommandExecutor for testing.
// A nil result from the mock is returned as nil without panicking.
type MockExecutor struct {
	mock.Mock
}

var _ executor.CommandExecutor = (*MockExecutor)(nil)

// NewMockExecutor creates a new MockExecutor instance.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// Execute implements executor.CommandExecutor.Execute.
func (m *MockExecutor) Execute(ctx context.Context, text string, env map[string]string, timeout time.Duration) (*executor.Result, error) {
	args := m.Called(ctx, text, env, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*executor.Result), args.Error(1)
}
