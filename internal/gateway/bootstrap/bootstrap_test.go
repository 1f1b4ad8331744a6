package bootstrap

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/luna-agent/luna/internal/gateway/config"
	"github.com/luna-agent/luna/internal/gateway/executor"
	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
	privtesting "github.com/luna-agent/luna/internal/gateway/privilege/testing"
	"github.com/luna-agent/luna/internal/logging"
	"github.com/luna-agent/luna/internal/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "", want: slog.LevelInfo},
		{input: "debug", want: slog.LevelDebug},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestSetupLogger_ConsoleOnly(t *testing.T) {
	restoreDefaultLogger(t)
	var console bytes.Buffer

	l, err := SetupLogger(LoggerConfig{
		Level:         slog.LevelInfo,
		RunID:         "run-1",
		ConsoleWriter: &console,
		Capabilities:  terminal.Static{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	assert.Empty(t, l.LogPath)
	assert.Same(t, l.Logger, slog.Default())

	slog.Info("Command started", slog.String("command", "echo pw | sudo -S true"))
	assert.Contains(t, console.String(), "echo [REDACTED] | sudo -S true")
}

func TestSetupLogger_RunLog(t *testing.T) {
	restoreDefaultLogger(t)
	var console bytes.Buffer
	dir := t.TempDir()

	l, err := SetupLogger(LoggerConfig{
		Level:         slog.LevelDebug,
		LogDir:        dir,
		RunID:         "run-2",
		ConsoleWriter: &console,
		Capabilities:  terminal.Static{Interactive: true},
	})
	require.NoError(t, err)

	l.Logger.Warn("Command failed", slog.String("password", "hunter2"))
	l.Logger.Error("Command panicked")
	require.NoError(t, l.Close())

	assert.Equal(t, dir, filepath.Dir(l.LogPath))

	f, err := os.Open(l.LogPath)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	// Logger initialized, Command failed, Command panicked
	require.Len(t, entries, 3)
	assert.Equal(t, "run-2", entries[1]["run_id"])
	assert.Equal(t, "[REDACTED]", entries[1]["password"])

	// The hint points at the error's own line in the run log
	assert.Contains(t, console.String(), "HINT: see "+l.LogPath+":3")
}

func TestSetupLogger_BadLogDir(t *testing.T) {
	restoreDefaultLogger(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := SetupLogger(LoggerConfig{LogDir: file, RunID: "r", ConsoleWriter: &bytes.Buffer{}, Capabilities: terminal.Static{}})

	pre, ok := logging.AsPreExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, logging.ErrorTypeLogFileOpen, pre.Type)
	assert.Equal(t, "r", pre.RunID)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")

	cfg, err := LoadConfig("", "r")
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Gateway.DefaultTimeoutSeconds)

	path := filepath.Join(t.TempDir(), "luna.toml")
	require.NoError(t, os.WriteFile(path, []byte("[gateway]\nshel = \"/bin/zsh\"\n"), 0o600))

	_, err = LoadConfig(path, "r")
	pre, ok := logging.AsPreExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, logging.ErrorTypeConfigInvalid, pre.Type)
	assert.Equal(t, "config", pre.Component)
}

func TestNewGateway_InvalidElevationSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Elevation.CacheWindowSeconds = cfg.Elevation.PlatformCredentialTTLSeconds

	_, _, err := NewGateway(cfg, GatewayOptions{Authorizer: privtesting.NewAcceptingAuthorizer(), BaseEnv: map[string]string{"HOME": "/tmp"}})

	pre, ok := logging.AsPreExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "privilege", pre.Component)
}

func TestNewGateway_WiresConfig(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	cfg := config.Default()
	cfg.Gateway.DefaultTimeoutSeconds = 1
	cfg.Gateway.MaxTimeoutSeconds = 2

	auth := privtesting.NewDenyingAuthorizer()
	gw, manager, err := NewGateway(cfg, GatewayOptions{
		Logger:     slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Authorizer: auth,
		BaseEnv:    map[string]string{"PATH": os.Getenv("PATH"), "HOME": t.TempDir()},
	})
	require.NoError(t, err)
	assert.Equal(t, 240*time.Second, manager.State().CacheWindow)

	res := gw.Run(context.Background(), gatewaytypes.CommandRequest{Text: "echo wired"})
	assert.True(t, res.Success)
	assert.Equal(t, "wired\n", res.Stdout)

	res = gw.Run(context.Background(), gatewaytypes.CommandRequest{Text: "sleep 5", TimeoutSeconds: 30})
	assert.Equal(t, gatewaytypes.CategoryTimeout, res.Category)
	assert.Equal(t, "command timed out after 2 seconds", res.Stderr)

	res = gw.Run(context.Background(), gatewaytypes.CommandRequest{Text: "apt-get install -y jq"})
	assert.Equal(t, gatewaytypes.CategoryElevationDenied, res.Category)
	assert.Equal(t, 1, auth.PromptCalls())
}

func TestNewGateway_OutputSizeLimit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	cfg := config.Default()
	cfg.Gateway.OutputSizeLimit = 8

	gw, _, err := NewGateway(cfg, GatewayOptions{
		Logger:     slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Authorizer: privtesting.NewDenyingAuthorizer(),
		BaseEnv:    map[string]string{"PATH": os.Getenv("PATH"), "HOME": t.TempDir()},
	})
	require.NoError(t, err)

	res := gw.Run(context.Background(), gatewaytypes.CommandRequest{Text: "yes | head -c 1000"})
	require.True(t, res.Success, res.Stderr)
	assert.Equal(t, "y\ny\ny\ny\n"+fmt.Sprintf(executor.TruncationMarker, 8), res.Stdout)
}
