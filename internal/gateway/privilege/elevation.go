package privilege

import (
	"regexp"
	"strings"
)

// elevationPattern is one entry of the table of operations that conventionally
// need elevated rights. Patterns run against lower-cased text with collapsed
// whitespace.
type elevationPattern struct {
	name string
	re   *regexp.Regexp
}

const (
	// commandStart anchors a pattern at the start of any simple command in a chain
	commandStart = `(?:^|[;&|(]\s*)`
	// systemBinDir matches the system binary directories
	systemBinDir = `/(?:usr/(?:local/)?)?s?bin(?:/|\s|$)`
)

func pattern(name, expr string) elevationPattern {
	return elevationPattern{name: name, re: regexp.MustCompile(expr)}
}

// elevationPatterns lists operations requiring elevation. New entries are one line.
var elevationPatterns = []elevationPattern{
	pattern("sudo-prefix", commandStart+`sudo(?:\s|$)`),

	// system package managers
	pattern("apt", commandStart+`(?:\S*/)?apt(?:-get)?\s+(?:-\S+\s+)*(?:install|reinstall|update|upgrade|dist-upgrade|full-upgrade|remove|purge|autoremove)\b`),
	pattern("yum-dnf", commandStart+`(?:\S*/)?(?:yum|dnf)\s+(?:-\S+\s+)*(?:install|reinstall|update|upgrade|remove|erase|autoremove)\b`),
	pattern("pacman", commandStart+`(?:\S*/)?pacman\s+-(?:s|u|r)\S*`),
	pattern("zypper", commandStart+`(?:\S*/)?zypper\s+(?:-\S+\s+)*(?:install|in|update|up|dist-upgrade|dup|remove|rm|refresh|ref)\b`),
	pattern("apk", commandStart+`(?:\S*/)?apk\s+(?:-\S+\s+)*(?:add|del|update|upgrade)\b`),
	pattern("snap", commandStart+`(?:\S*/)?snap\s+(?:install|remove|refresh)\b`),

	// global node packages
	pattern("npm-global", commandStart+`npm\s+(?:install|i|add|uninstall|update)\b.*\s(?:-g|--global)(?:\s|$)`),
	pattern("npm-global-first", commandStart+`npm\s+(?:-g|--global)\s+(?:install|i|add|uninstall|update)\b`),

	// writes into system binary directories
	pattern("redirect-to-system-bin", `>>?\s*`+systemBinDir),
	pattern("tee-to-system-bin", `\btee\s+(?:-a\s+)?`+systemBinDir),
	pattern("copy-to-system-bin", commandStart+`(?:cp|mv|install|ln)\s.*\s`+systemBinDir),

	// service and daemon managers (state-changing verbs only)
	pattern("systemctl", commandStart+`systemctl\s+(?:--\S+\s+)*(?:start|stop|restart|reload|try-restart|enable|disable|mask|unmask|daemon-reload|edit|kill|isolate|set-default)\b`),
	pattern("service", commandStart+`service\s+\S+\s+(?:start|stop|restart|reload|force-reload)\b`),
	pattern("launchctl", commandStart+`launchctl\s+(?:load|unload|bootstrap|bootout|enable|disable|kickstart|kill)\b`),

	// package manager bootstrap installer
	pattern("homebrew-installer", `homebrew/install`),
}

// NeedsElevation reports whether text is prefixed with sudo or matches an
// operation that conventionally requires elevated rights.
func NeedsElevation(text string) bool {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if normalized == "" {
		return false
	}
	for _, p := range elevationPatterns {
		if p.re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// ElevationPatternNames returns the names of the elevation table in order
func ElevationPatternNames() []string {
	names := make([]string, len(elevationPatterns))
	for i, p := range elevationPatterns {
		names[i] = p.name
	}
	return names
}
