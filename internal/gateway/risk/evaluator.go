// Package risk provides advisory command risk classification for the gateway.
// The level is surfaced to callers for confirmation UX; it never blocks
// execution on its own (blocking is the safety package's job).
package risk

import (
	"strings"

	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
)

// MatchKind selects how a pattern is compared with a command
type MatchKind int

const (
	// MatchPrefix matches when the command starts with the pattern followed
	// by end of text or whitespace
	MatchPrefix MatchKind = iota
	// MatchToken matches when the pattern appears as a whitespace-delimited word
	MatchToken
	// MatchSuffix matches when the command ends with the pattern as its last word(s)
	MatchSuffix
)

// Pattern is one entry of a classification table
type Pattern struct {
	Kind MatchKind
	Text string
}

// Matches reports whether the normalized command matches the pattern
func (p Pattern) Matches(normalized string, words []string) bool {
	switch p.Kind {
	case MatchPrefix:
		return normalized == p.Text || strings.HasPrefix(normalized, p.Text+" ")
	case MatchToken:
		for _, w := range words {
			if w == p.Text {
				return true
			}
		}
		return false
	case MatchSuffix:
		return normalized == p.Text || strings.HasSuffix(normalized, " "+p.Text)
	default:
		return false
	}
}

func prefix(texts ...string) []Pattern { return patterns(MatchPrefix, texts) }
func token(texts ...string) []Pattern  { return patterns(MatchToken, texts) }
func suffix(texts ...string) []Pattern { return patterns(MatchSuffix, texts) }

func patterns(kind MatchKind, texts []string) []Pattern {
	out := make([]Pattern, 0, len(texts))
	for _, t := range texts {
		out = append(out, Pattern{Kind: kind, Text: t})
	}
	return out
}

// safePatterns lists read-only commands: listing, status and version queries
var safePatterns = concat(
	prefix(
		// listing
		"ls", "ll", "la", "dir", "tree", "pwd",
		"brew list", "brew info", "brew search", "brew doctor",
		"npm list", "npm ls", "pip list", "pip show", "pip3 list", "pip3 show",
		"pyenv versions", "nvm ls", "nvm list",
		"docker images", "docker image ls", "docker container ls",
		// status
		"git status", "git log", "git diff", "git branch", "git remote -v", "git show",
		"docker ps", "docker info", "docker stats --no-stream",
		"systemctl status", "service --status-all", "launchctl list",
		"whoami", "id", "uname", "hostname", "uptime", "date", "df", "free",
		"printenv",
		// version queries
		"go version", "docker version", "docker --version", "kubectl version",
		"brew --version", "node -v", "npm -v",
		"sw_vers", "lsb_release",
		// lookup
		"which", "where", "type", "command -v",
	),
	suffix("--version"),
)

// dangerousPatterns lists deletion, permission and ownership changes,
// process termination, service managers and explicit elevation
var dangerousPatterns = concat(
	token(
		"sudo", "su", "doas",
		"rm", "rmdir", "shred", "unlink",
		"chmod", "chown", "chgrp",
		"kill", "killall", "pkill",
		"systemctl", "service", "launchctl",
		"shutdown", "reboot", "halt",
	),
)

func concat(lists ...[]Pattern) []Pattern {
	var out []Pattern
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Classifier classifies command text into a risk level
type Classifier interface {
	Classify(text string) gatewaytypes.RiskLevel
}

// StandardClassifier implements risk classification using predefined pattern tables
type StandardClassifier struct {
	safe      []Pattern
	dangerous []Pattern
}

// NewStandardClassifier creates a new standard risk classifier
func NewStandardClassifier() *StandardClassifier {
	return &StandardClassifier{
		safe:      safePatterns,
		dangerous: dangerousPatterns,
	}
}

var defaultClassifier = NewStandardClassifier()

// Classify classifies text with the built-in tables
func Classify(text string) gatewaytypes.RiskLevel {
	return defaultClassifier.Classify(text)
}

// Classify analyzes a command and returns its risk level.
// The safe table is consulted before the dangerous table; the order is part
// of the contract.
func (c *StandardClassifier) Classify(text string) gatewaytypes.RiskLevel {
	words := strings.Fields(strings.ToLower(text))
	normalized := strings.Join(words, " ")

	for _, p := range c.safe {
		if p.Matches(normalized, words) {
			return gatewaytypes.RiskLevelSafe
		}
	}

	for _, p := range c.dangerous {
		if p.Matches(normalized, words) {
			return gatewaytypes.RiskLevelDangerous
		}
	}

	return gatewaytypes.RiskLevelModerate
}
