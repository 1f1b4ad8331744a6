package privilege

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Authorizer abstracts the host platform's elevation mechanism
type Authorizer interface {
	// Probe succeeds when a previously granted platform credential is still
	// valid. It must never block on the operator.
	Probe(ctx context.Context) error
	// Prompt shows the platform-native authorization dialog and blocks until
	// the operator answers or ctx is done.
	Prompt(ctx context.Context) error
	// Extend refreshes the platform credential to its full lifetime.
	Extend(ctx context.Context) error
}

// AuthorizerConfig configures the platform authorizer
type AuthorizerConfig struct {
	// SudoPath overrides the sudo binary; empty means "sudo" from PATH.
	SudoPath string
	// Askpass is the graphical password helper used on Linux. Empty means
	// SUDO_ASKPASS or the first known helper found in PATH.
	Askpass string
	Logger  *slog.Logger
}

func (c AuthorizerConfig) sudoPath() string {
	if c.SudoPath == "" {
		return "sudo"
	}
	return c.SudoPath
}

func (c AuthorizerConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// runQuiet runs a command and folds its stderr into the returned error
func runQuiet(ctx context.Context, stdin io.Reader, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	if env != nil {
		cmd.Env = env
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
