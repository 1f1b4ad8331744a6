// Package bootstrap wires configuration, logging and the gateway together
// for the command line entry point.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/luna-agent/luna/internal/logging"
	"github.com/luna-agent/luna/internal/redaction"
	"github.com/luna-agent/luna/internal/terminal"
)

// LoggerConfig holds all configuration for logger setup
type LoggerConfig struct {
	Level  slog.Level
	LogDir string
	RunID  string

	// ConsoleWriter receives human readable lines; nil means os.Stderr
	ConsoleWriter io.Writer
	Terminal      terminal.Options

	// Capabilities overrides terminal detection; used by tests
	Capabilities terminal.Capabilities
}

// Logging is the result of SetupLogger
type Logging struct {
	Logger  *slog.Logger
	LogPath string
	file    *os.File
}

// Close flushes and closes the run log, if one was opened
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// ParseLevel accepts debug, info, warn and error in any case
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// SetupLogger builds the console handler, the optional per-run JSON file and
// the redacting wrapper, then installs the result as slog.Default.
//
// It must be called once during startup before any command runs.
func SetupLogger(cfg LoggerConfig) (*Logging, error) {
	console := cfg.ConsoleWriter
	if console == nil {
		console = os.Stderr
	}
	caps := cfg.Capabilities
	if caps == nil {
		caps = terminal.Detect(cfg.Terminal)
	}

	result := &Logging{}
	tracker := logging.NewLineTracker()
	var handlers []slog.Handler

	if cfg.LogDir != "" {
		f, err := logging.OpenLogFile(cfg.LogDir, cfg.RunID)
		if err != nil {
			pre := logging.NewPreExecutionError(logging.ErrorTypeLogFileOpen, "logging", "failed to open run log", err)
			pre.RunID = cfg.RunID
			return nil, pre
		}
		result.file = f
		result.LogPath = f.Name()

		hostname, _ := os.Hostname()
		jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level}).WithAttrs([]slog.Attr{
			slog.String("hostname", hostname),
			slog.Int("pid", os.Getpid()),
			slog.String("run_id", cfg.RunID),
		})
		handlers = append(handlers, logging.NewTrackingHandler(jsonHandler, tracker))
	}

	consoleHandler, err := logging.NewConsoleHandler(logging.ConsoleOptions{
		Writer:       console,
		Level:        cfg.Level,
		Capabilities: caps,
		LogPath:      result.LogPath,
		Tracker:      tracker,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create console handler: %w", err), result.Close())
	}
	handlers = append(handlers, consoleHandler)

	result.Logger = slog.New(redaction.NewRedactingHandler(logging.NewMultiHandler(handlers...), nil))
	slog.SetDefault(result.Logger)

	result.Logger.Debug("Logger initialized",
		slog.String("level", cfg.Level.String()),
		slog.String("log_file", result.LogPath),
		slog.String("run_id", cfg.RunID),
		slog.Bool("interactive", caps.IsInteractive()),
		slog.Bool("color", caps.SupportsColor()))

	return result, nil
}
