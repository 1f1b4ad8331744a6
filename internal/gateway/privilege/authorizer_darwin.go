//go:build darwin

package privilege

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

const passwordDialog = `display dialog "Luna needs administrator access to run a system command." & return & return & "Enter your password:" ` +
	`default answer "" with hidden answer with title "Luna" with icon caution buttons {"Cancel", "OK"} default button "OK"`

// Prompt asks for the password with an AppleScript dialog and hands it to
// sudo on stdin. The password is never logged or kept.
func (a *sudoAuthorizer) Prompt(ctx context.Context) error {
	if isRoot() {
		return nil
	}

	cmd := exec.CommandContext(ctx, "osascript",
		"-e", passwordDialog,
		"-e", "text returned of result")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	password, err := cmd.Output()
	defer clear(password)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && bytes.Contains(stderr.Bytes(), []byte("-128")) {
			return ErrPromptCancelled
		}
		return fmt.Errorf("osascript: %w", err)
	}

	password = bytes.TrimRight(password, "\r\n")
	input := make([]byte, 0, len(password)+1)
	input = append(input, password...)
	input = append(input, '\n')
	defer clear(input)

	a.cfg.logger().Debug("Validating credential with sudo", slog.String("sudo", a.cfg.sudoPath()))
	return runQuiet(ctx, bytes.NewReader(input), nil, a.cfg.sudoPath(), "-S", "-v", "-p", "")
}
