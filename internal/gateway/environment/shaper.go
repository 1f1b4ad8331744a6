// Package environment builds the per-request execution environment. It
// starts from a snapshot of the host environment and overlays flags that make
// known installers run without waiting for operator input.
package environment

import (
	"maps"
	"os"
	"path"
	"strings"
)

// Overlay describes one installer family and the variables that make it
// non-interactive. A family is detected when any of its Commands appears as a
// word of the command line, or any of its URLs appears as a substring.
type Overlay struct {
	Name     string
	Commands []string
	URLs     []string

	// Set is applied unconditionally when the family is detected.
	Set map[string]string

	// SetIfAbsent is applied only for variables missing from the base
	// environment. Values are expanded against the base environment; an
	// entry whose expansion references an unset variable is skipped.
	SetIfAbsent map[string]string
}

// Family names
const (
	FamilyHomebrew = "homebrew"
	FamilyNVM      = "nvm"
	FamilyPyenv    = "pyenv"
	FamilyApt      = "apt"
)

// DefaultOverlays is the built-in installer family table
var DefaultOverlays = []Overlay{
	{
		Name:     FamilyHomebrew,
		Commands: []string{"brew"},
		URLs:     []string{"homebrew/install"},
		Set: map[string]string{
			"NONINTERACTIVE":          "1",
			"HOMEBREW_NO_AUTO_UPDATE": "1",
			"CI":                      "1",
		},
	},
	{
		Name:     FamilyNVM,
		Commands: []string{"nvm"},
		URLs:     []string{"nvm-sh/nvm"},
		Set: map[string]string{
			"NVM_NONINTERACTIVE": "1",
			"NONINTERACTIVE":     "1",
		},
	},
	{
		Name:     FamilyPyenv,
		Commands: []string{"pyenv"},
		URLs:     []string{"pyenv.run", "pyenv/pyenv-installer"},
		SetIfAbsent: map[string]string{
			"PYENV_ROOT": "${HOME}/.pyenv",
		},
	},
	{
		Name:     FamilyApt,
		Commands: []string{"apt", "apt-get"},
		Set: map[string]string{
			"DEBIAN_FRONTEND": "noninteractive",
		},
	},
}

// Shaper applies overlays to a base environment
type Shaper struct {
	overlays []Overlay
}

// NewShaper creates a shaper for the given overlay table.
// A nil table selects DefaultOverlays.
func NewShaper(overlays []Overlay) *Shaper {
	if overlays == nil {
		overlays = DefaultOverlays
	}
	return &Shaper{overlays: overlays}
}

var defaultShaper = NewShaper(nil)

// Build shapes the environment for text with the default overlays
func Build(text string, base map[string]string) map[string]string {
	return defaultShaper.Build(text, base)
}

// Build returns a fresh copy of base with every matching family overlay
// applied. base is never modified.
func (s *Shaper) Build(text string, base map[string]string) map[string]string {
	env := maps.Clone(base)
	if env == nil {
		env = make(map[string]string)
	}

	for _, family := range s.Detect(text) {
		for k, v := range family.Set {
			env[k] = v
		}
		for k, tmpl := range family.SetIfAbsent {
			if _, exists := base[k]; exists {
				continue
			}
			if value, ok := expand(tmpl, base); ok {
				env[k] = value
			}
		}
	}

	return env
}

// Detect returns the overlays whose family appears in text. Families are
// detected independently of each other.
func (s *Shaper) Detect(text string) []Overlay {
	lower := strings.ToLower(text)
	words := commandWords(lower)

	var matched []Overlay
	for _, family := range s.overlays {
		if family.matches(lower, words) {
			matched = append(matched, family)
		}
	}
	return matched
}

func (o Overlay) matches(lower string, words map[string]struct{}) bool {
	for _, c := range o.Commands {
		if _, ok := words[c]; ok {
			return true
		}
	}
	for _, u := range o.URLs {
		if strings.Contains(lower, u) {
			return true
		}
	}
	return false
}

// commandWords splits a command line on whitespace and shell control
// characters and records each word and its path basename.
func commandWords(text string) map[string]struct{} {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', ';', '&', '|', '(', ')', '"', '\'', '`':
			return true
		}
		return false
	})
	words := make(map[string]struct{}, len(fields)*2)
	for _, f := range fields {
		words[f] = struct{}{}
		words[path.Base(f)] = struct{}{}
	}
	return words
}

// expand substitutes ${VAR} and $VAR references from env. It reports false
// when any referenced variable is unset or empty.
func expand(tmpl string, env map[string]string) (string, bool) {
	ok := true
	value := os.Expand(tmpl, func(name string) string {
		v := env[name]
		if v == "" {
			ok = false
		}
		return v
	})
	return value, ok
}
