//go:build linux

package privilege

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho secret\n"), 0o755))
	return path
}

func TestResolveAskpass(t *testing.T) {
	t.Run("configured helper wins", func(t *testing.T) {
		dir := t.TempDir()
		configured := writeExecutable(t, dir, "my-askpass")
		writeExecutable(t, dir, "ssh-askpass")
		t.Setenv("PATH", dir)
		t.Setenv("SUDO_ASKPASS", "")

		path, err := resolveAskpass(configured)
		require.NoError(t, err)
		assert.Equal(t, configured, path)
	})

	t.Run("SUDO_ASKPASS before known helpers", func(t *testing.T) {
		dir := t.TempDir()
		fromEnv := writeExecutable(t, dir, "env-askpass")
		writeExecutable(t, dir, "ssh-askpass")
		t.Setenv("PATH", dir)
		t.Setenv("SUDO_ASKPASS", fromEnv)

		path, err := resolveAskpass("")
		require.NoError(t, err)
		assert.Equal(t, fromEnv, path)
	})

	t.Run("known helper from PATH", func(t *testing.T) {
		dir := t.TempDir()
		helper := writeExecutable(t, dir, "ksshaskpass")
		t.Setenv("PATH", dir)
		t.Setenv("SUDO_ASKPASS", "")

		path, err := resolveAskpass(filepath.Join(dir, "missing"))
		require.NoError(t, err)
		assert.Equal(t, helper, path)
	})

	t.Run("no helper available", func(t *testing.T) {
		for _, h := range knownAskpassHelpers {
			if filepath.IsAbs(h) {
				if _, err := os.Stat(h); err == nil {
					t.Skipf("host provides %s", h)
				}
			}
		}
		t.Setenv("PATH", t.TempDir())
		t.Setenv("SUDO_ASKPASS", "")

		_, err := resolveAskpass("")
		assert.ErrorIs(t, err, ErrNoPromptAvailable)
	})
}
