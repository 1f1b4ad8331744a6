// Package terminal decides whether console output goes to a person at a
// terminal and whether that terminal should receive ANSI colors.
//
// Results are written to stdout as JSON and are usually piped, so only
// stderr, which carries progress lines, is checked for a terminal.
package terminal

import (
	"os"
	"slices"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars mark a CI runner; any of them disables interactive output
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"BUILDKITE",
	"CIRCLECI",
	"JENKINS_URL",
	"TF_BUILD",
}

// colorTerms are TERM values, or prefixes before a '-', known to render ANSI colors
var colorTerms = []string{"xterm", "screen", "tmux", "rxvt", "vt100", "vt220", "ansi", "linux", "alacritty", "kitty"}

// Options are command line overrides. Force and Disable of the same
// setting are resolved in favour of Force.
type Options struct {
	ForceInteractive    bool
	ForceNonInteractive bool
	ForceColor          bool
	DisableColor        bool
}

// Capabilities reports the console traits used by log handlers
type Capabilities interface {
	IsInteractive() bool
	SupportsColor() bool
}

// Static is a fixed Capabilities value
type Static struct {
	Interactive bool
	Color       bool
}

// IsInteractive implements Capabilities
func (s Static) IsInteractive() bool { return s.Interactive }

// SupportsColor implements Capabilities
func (s Static) SupportsColor() bool { return s.Color }

// Detect inspects the process environment and stderr once
func Detect(opts Options) Capabilities {
	return detect(opts, os.LookupEnv, term.IsTerminal(int(os.Stderr.Fd())))
}

func detect(opts Options, lookup func(string) (string, bool), stderrTTY bool) Static {
	interactive := isInteractive(opts, lookup, stderrTTY)
	return Static{
		Interactive: interactive,
		Color:       supportsColor(opts, lookup, interactive),
	}
}

func isInteractive(opts Options, lookup func(string) (string, bool), stderrTTY bool) bool {
	switch {
	case opts.ForceInteractive:
		return true
	case opts.ForceNonInteractive:
		return false
	case isCI(lookup):
		return false
	default:
		return stderrTTY
	}
}

// supportsColor applies, in order: flags, CLICOLOR_FORCE, NO_COLOR, then
// CLICOLOR and TERM for interactive sessions only
func supportsColor(opts Options, lookup func(string) (string, bool), interactive bool) bool {
	if opts.ForceColor {
		return true
	}
	if opts.DisableColor {
		return false
	}
	if v, ok := lookup("CLICOLOR_FORCE"); ok && isTruthy(v) {
		return true
	}
	if _, ok := lookup("NO_COLOR"); ok {
		return false
	}
	if !interactive || !colorTerm(lookup) {
		return false
	}
	if v, ok := lookup("CLICOLOR"); ok && v != "" {
		return isTruthy(v)
	}
	return true
}

func isCI(lookup func(string) (string, bool)) bool {
	for _, name := range ciEnvVars {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		// CI=false is how some runners opt out
		if name == "CI" {
			return !isFalsy(v)
		}
		return true
	}
	return false
}

func colorTerm(lookup func(string) (string, bool)) bool {
	v, _ := lookup("TERM")
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "dumb" {
		return false
	}
	if i := strings.IndexByte(v, '-'); i > 0 {
		v = v[:i]
	}
	return slices.Contains(colorTerms, v)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func isFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no":
		return true
	}
	return false
}
