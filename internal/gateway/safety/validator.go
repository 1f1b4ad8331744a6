// Package safety rejects catastrophic shell commands before they reach a
// shell. Validation is pure text analysis and fails closed: any denylist match
// blocks the command regardless of risk level or caller intent.
//
// Piping a remote install script into an interpreter (curl ... | bash) is
// allowed.
package safety

import (
	"strings"

	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
)

// Validator checks commands against the hazard denylist and the structural
// recursive-delete rule.
type Validator struct {
	rules []hazardRule
}

// NewValidator creates a validator using the built-in denylist
func NewValidator() *Validator {
	return &Validator{rules: denylist}
}

var defaultValidator = NewValidator()

// Validate checks text with the built-in denylist
func Validate(text string) gatewaytypes.SafetyVerdict {
	return defaultValidator.Validate(text)
}

// Validate returns a blocking verdict for the first matching hazard, or an
// allowing verdict when nothing matches.
func (v *Validator) Validate(text string) gatewaytypes.SafetyVerdict {
	normalized := normalize(text)

	for _, rule := range v.rules {
		if rule.Match(normalized) {
			return gatewaytypes.Block(rule.Category, rule.Reason)
		}
	}

	if isRecursiveRootDelete(text) {
		return gatewaytypes.Block(gatewaytypes.HazardRecursiveDelete, ReasonRecursiveDelete)
	}

	return gatewaytypes.Allow()
}

// RuleNames returns the names of all denylist entries, in evaluation order
func (v *Validator) RuleNames() []string {
	names := make([]string, 0, len(v.rules))
	for _, r := range v.rules {
		names = append(names, r.Name)
	}
	return names
}

// normalize lower-cases text and collapses whitespace runs to one space
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
