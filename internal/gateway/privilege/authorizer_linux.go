//go:build linux

package privilege

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
)

// knownAskpassHelpers are graphical password helpers shipped by common desktops
var knownAskpassHelpers = []string{
	"ssh-askpass",
	"ksshaskpass",
	"lxqt-openssh-askpass",
	"x11-ssh-askpass",
	"/usr/lib/ssh/ssh-askpass",
	"/usr/libexec/openssh/gnome-ssh-askpass",
}

// Prompt runs sudo with a graphical askpass helper
func (a *sudoAuthorizer) Prompt(ctx context.Context) error {
	if isRoot() {
		return nil
	}

	askpass, err := resolveAskpass(a.cfg.Askpass)
	if err != nil {
		return err
	}

	a.cfg.logger().Debug("Prompting through askpass helper", slog.String("askpass", askpass))
	env := append(os.Environ(), "SUDO_ASKPASS="+askpass)
	return runQuiet(ctx, nil, env, a.cfg.sudoPath(), "-A", "-v")
}

// resolveAskpass picks the configured helper, then SUDO_ASKPASS, then the
// first known helper present on the host
func resolveAskpass(configured string) (string, error) {
	candidates := make([]string, 0, len(knownAskpassHelpers)+2)
	if configured != "" {
		candidates = append(candidates, configured)
	}
	if env := os.Getenv("SUDO_ASKPASS"); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, knownAskpassHelpers...)

	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", ErrNoPromptAvailable
}
