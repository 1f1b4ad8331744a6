package environment

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Error definitions
var (
	// ErrEmptyEnvironment is returned when the host environment has no entries
	ErrEmptyEnvironment = errors.New("host environment is empty")
	// ErrHomeUnresolved is returned when the invoking user's home directory cannot be determined
	ErrHomeUnresolved = errors.New("cannot determine home directory")
)

// Constants
const (
	envSeparatorParts = 2
)

// ParseEnviron converts KEY=VALUE entries into a map. Entries without a
// separator or with an empty key are skipped; later entries win.
func ParseEnviron(entries []string) map[string]string {
	result := make(map[string]string, len(entries))

	for _, env := range entries {
		parts := strings.SplitN(env, "=", envSeparatorParts)
		if len(parts) != envSeparatorParts || parts[0] == "" {
			continue
		}
		result[parts[0]] = parts[1]
	}

	return result
}

// LoadBase snapshots the host process environment. It is called once at
// startup; an error here must abort the agent rather than a single request.
// HOME is filled in from the user database when the variable is missing.
func LoadBase() (map[string]string, error) {
	return loadBase(os.Environ(), os.UserHomeDir)
}

func loadBase(entries []string, homeDir func() (string, error)) (map[string]string, error) {
	env := ParseEnviron(entries)
	if len(env) == 0 {
		return nil, ErrEmptyEnvironment
	}

	if env["HOME"] == "" {
		home, err := homeDir()
		if err != nil || home == "" {
			return nil, fmt.Errorf("%w: %v", ErrHomeUnresolved, err)
		}
		env["HOME"] = home
	}

	return env, nil
}

// ToList renders an environment map as KEY=VALUE entries for exec.Cmd.Env
func ToList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	return list
}
