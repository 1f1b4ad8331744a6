// Package main is the luna command line entry point. It runs one command,
// or a YAML plan of commands, through the gateway and prints the result as
// JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/luna-agent/luna/internal/gateway"
	"github.com/luna-agent/luna/internal/gateway/bootstrap"
	"github.com/luna-agent/luna/internal/gateway/config"
	"github.com/luna-agent/luna/internal/gateway/executor"
	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
	"github.com/luna-agent/luna/internal/gateway/sequence"
	"github.com/luna-agent/luna/internal/logging"
	"github.com/luna-agent/luna/internal/terminal"
	"github.com/spf13/pflag"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
)

// ErrNoCommand is returned when no command text follows the flags
var ErrNoCommand = errors.New("no command given")

type options struct {
	configPath  string
	logLevel    string
	logDir      string
	timeout     int
	sudo        bool
	plan        string
	classify    bool
	checkTool   string
	stream      bool
	interactive bool
	quiet       bool
	noColor     bool
	help        bool
	command     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	runID := logging.GenerateRunID()

	opts, flagSet, err := parseFlags(args, stderr)
	if err != nil {
		return reportStartupError(stderr, logging.NewPreExecutionError(
			logging.ErrorTypeRequiredArgumentMissing, "cli", "invalid arguments", err), runID)
	}
	if opts.help {
		printHelp(stderr, flagSet)
		return exitOK
	}

	if opts.checkTool != "" {
		installed := executor.ToolInstalled(opts.checkTool)
		writeJSON(stdout, map[string]any{"tool": opts.checkTool, "installed": installed})
		return exitCode(installed)
	}

	cfg, err := bootstrap.LoadConfig(opts.configPath, runID)
	if err != nil {
		return reportStartupError(stderr, err, runID)
	}
	applyOverrides(cfg, opts)

	level, err := bootstrap.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return reportStartupError(stderr, logging.NewPreExecutionError(
			logging.ErrorTypeConfigInvalid, "logging", "invalid log level", err), runID)
	}

	logs, err := bootstrap.SetupLogger(bootstrap.LoggerConfig{
		Level:         level,
		LogDir:        cfg.Logging.LogDir,
		RunID:         runID,
		ConsoleWriter: stderr,
		Terminal: terminal.Options{
			ForceInteractive:    opts.interactive,
			ForceNonInteractive: opts.quiet,
			DisableColor:        opts.noColor,
		},
	})
	if err != nil {
		return reportStartupError(stderr, err, runID)
	}
	defer func() {
		if err := logs.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to close run log: %v\n", err)
		}
	}()

	gwOpts := bootstrap.GatewayOptions{Logger: logs.Logger, RunID: runID}
	if opts.stream {
		gwOpts.Output = executor.NewConsoleWriter(stderr, stderr)
	}
	gw, _, err := bootstrap.NewGateway(cfg, gwOpts)
	if err != nil {
		return reportStartupError(stderr, err, runID)
	}

	switch {
	case opts.plan != "":
		return runPlan(ctx, gw, opts.plan, stdout, stderr, runID, logs.Logger)
	case opts.classify:
		if opts.command == "" {
			return reportStartupError(stderr, logging.NewPreExecutionError(
				logging.ErrorTypeRequiredArgumentMissing, "cli", "--classify needs a command", ErrNoCommand), runID)
		}
		assessment := gw.Assess(opts.command)
		writeJSON(stdout, assessment)
		return exitCode(assessment.Verdict.Allowed)
	case opts.command == "":
		return reportStartupError(stderr, logging.NewPreExecutionError(
			logging.ErrorTypeRequiredArgumentMissing, "cli", "usage: luna [flags] -- <command>", ErrNoCommand), runID)
	}

	result := gw.Run(ctx, gatewaytypes.CommandRequest{
		Text:           opts.command,
		TimeoutSeconds: opts.timeout,
		ForceElevation: opts.sudo,
	})
	writeJSON(stdout, result)
	return exitCode(result.Success)
}

func parseFlags(args []string, stderr io.Writer) (*options, *pflag.FlagSet, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet("luna", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)

	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file (default: $"+config.EnvConfigPath+")")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&opts.logDir, "log-dir", "", "directory for the per-run JSON log")
	flagSet.IntVarP(&opts.timeout, "timeout", "t", 0, "timeout in seconds (default from config)")
	flagSet.BoolVar(&opts.sudo, "sudo", false, "acquire elevated rights before running")
	flagSet.StringVarP(&opts.plan, "plan", "p", "", "run a YAML plan of steps")
	flagSet.BoolVar(&opts.classify, "classify", false, "print verdict, risk and elevation need without running")
	flagSet.StringVar(&opts.checkTool, "check-tool", "", "report whether a tool is on PATH")
	flagSet.BoolVar(&opts.stream, "stream", false, "copy command output to stderr as it arrives")
	flagSet.BoolVar(&opts.interactive, "interactive", false, "force interactive console output")
	flagSet.BoolVarP(&opts.quiet, "quiet", "q", false, "force plain console output")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			opts.help = true
			return opts, flagSet, nil
		}
		return nil, flagSet, err
	}
	if opts.timeout < 0 {
		return nil, flagSet, fmt.Errorf("invalid timeout: %d", opts.timeout)
	}

	opts.command = strings.TrimSpace(strings.Join(flagSet.Args(), " "))
	return opts, flagSet, nil
}

// applyOverrides lets command line flags win over the config file
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logDir != "" {
		cfg.Logging.LogDir = opts.logDir
	}
}

func runPlan(ctx context.Context, gw *gateway.Gateway, path string, stdout, stderr io.Writer, runID string, logger *slog.Logger) int {
	plan, err := sequence.LoadPlan(path)
	if err != nil {
		return reportStartupError(stderr, logging.NewPreExecutionError(
			logging.ErrorTypePlanInvalid, "sequence", "failed to load plan", err), runID)
	}
	report := sequence.NewRunner(gw, logger).Run(ctx, plan)
	writeJSON(stdout, report)
	return exitCode(report.Status == sequence.StatusCompleted)
}

func reportStartupError(stderr io.Writer, err error, runID string) int {
	pre, ok := logging.AsPreExecutionError(err)
	if !ok {
		pre = logging.NewPreExecutionError(logging.ErrorTypeGatewaySetup, "main", "startup failed", err)
	}
	if pre.RunID == "" {
		pre.RunID = runID
	}
	logging.ReportPreExecutionError(stderr, pre)
	return exitFailure
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("Failed to write result", slog.Any("error", err))
	}
}

func exitCode(ok bool) int {
	if ok {
		return exitOK
	}
	return exitFailure
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `luna runs shell commands through a safety gateway.

Usage:
  luna [flags] -- <command>
  luna --plan plan.yaml
  luna --classify -- <command>
  luna --check-tool <name>

Flags:
%s`, flagSet.FlagUsages())
}
