// Package redaction masks credentials in command text and log attributes
// before they reach a console or log file.
package redaction

import (
	"regexp"
	"strings"
)

// Placeholder replaces every redacted value
const Placeholder = "[REDACTED]"

// textRule rewrites one shape of secret inside free text
type textRule struct {
	name        string
	re          *regexp.Regexp
	replacement string
}

// Patterns holds the compiled key and text rules
type Patterns struct {
	keys  []*regexp.Regexp
	rules []textRule
}

// DefaultPatterns returns the rules applied to every gateway log line
func DefaultPatterns() *Patterns {
	return &Patterns{
		keys: []*regexp.Regexp{
			regexp.MustCompile(`(?i)passw(or)?d`),
			regexp.MustCompile(`(?i)secret`),
			regexp.MustCompile(`(?i)token`),
			regexp.MustCompile(`(?i)api[_-]?key`),
			regexp.MustCompile(`(?i)credential`),
			regexp.MustCompile(`(?i)private[_-]?key`),
			regexp.MustCompile(`(?i)^authorization$`),
			regexp.MustCompile(`(?i)^askpass_answer$`),
		},
		rules: []textRule{
			{
				// echo hunter2 | sudo -S ...
				name:        "sudo-stdin",
				re:          regexp.MustCompile(`(?i)(\becho\s+)('[^']*'|"[^"]*"|\S+)(\s*\|\s*sudo\s+(?:-\w+\s+)*-S\b)`),
				replacement: "${1}" + Placeholder + "${3}",
			},
			{
				name:        "authorization-header",
				re:          regexp.MustCompile(`(?i)(authorization\s*:\s*)(?:(bearer|basic|token)\s+)?[^\s'"]+`),
				replacement: "${1}${2} " + Placeholder,
			},
			{
				name:        "bearer",
				re:          regexp.MustCompile(`(?i)\b(bearer)\s+[A-Za-z0-9._~+/=-]+`),
				replacement: "${1} " + Placeholder,
			},
			{
				name:        "url-userinfo",
				re:          regexp.MustCompile(`(://[^/\s:@]+:)[^@\s/]+@`),
				replacement: "${1}" + Placeholder + "@",
			},
			{
				name:        "key-value",
				re:          regexp.MustCompile(`(?i)(\b[\w.-]*(?:passw(?:or)?d|secret|token|api[_-]?key)[\w.-]*\s*[=:]\s*)('[^']*'|"[^"]*"|[^\s&;|]+)`),
				replacement: "${1}" + Placeholder,
			},
			{
				name:        "flag-value",
				re:          regexp.MustCompile(`(?i)(--(?:passw(?:or)?d|token|api[_-]?key|secret)[=\s]+)('[^']*'|"[^"]*"|\S+)`),
				replacement: "${1}" + Placeholder,
			},
			{
				name:        "github-token",
				re:          regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
				replacement: Placeholder,
			},
			{
				name:        "aws-access-key",
				re:          regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
				replacement: Placeholder,
			},
		},
	}
}

// IsSensitiveKey reports whether an attribute key names a secret
func (p *Patterns) IsSensitiveKey(key string) bool {
	for _, re := range p.keys {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// RedactText masks every recognised secret in text
func (p *Patterns) RedactText(text string) string {
	if text == "" {
		return text
	}
	for _, rule := range p.rules {
		text = rule.re.ReplaceAllString(text, rule.replacement)
	}
	// authorization-header may leave a double space when no scheme was present
	return strings.ReplaceAll(text, ":  "+Placeholder, ": "+Placeholder)
}

// RuleNames returns the text rule names in evaluation order
func (p *Patterns) RuleNames() []string {
	names := make([]string, len(p.rules))
	for i, rule := range p.rules {
		names[i] = rule.name
	}
	return names
}

// IsSensitiveEnvVar reports whether an environment variable name holds a secret.
// SUDO_ASKPASS points at a helper program, not a secret, and is kept.
func (p *Patterns) IsSensitiveEnvVar(name string) bool {
	if strings.EqualFold(name, "SUDO_ASKPASS") {
		return false
	}
	return p.IsSensitiveKey(name)
}
