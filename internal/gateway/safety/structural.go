package safety

import (
	"path"
	"strings"
)

// protectedDeleteTargets are rm targets that are always blocked with a
// recursive flag, compared after lower-casing.
var protectedDeleteTargets = map[string]struct{}{
	"/":          {},
	"/*":         {},
	"/.*":        {},
	"~":          {},
	"~/":         {},
	"~/*":        {},
	"~/.*":       {},
	"$home":      {},
	"$home/":     {},
	"$home/*":    {},
	"$home/.*":   {},
	"${home}":    {},
	"${home}/":   {},
	"${home}/*":  {},
	"${home}/.*": {},
}

// systemDirectories are top-level directories whose recursive deletion
// disables the host. Compared lower-cased after trimming "/" and "/*".
var systemDirectories = map[string]struct{}{
	"/bin":          {},
	"/boot":         {},
	"/dev":          {},
	"/etc":          {},
	"/home":         {},
	"/lib":          {},
	"/lib32":        {},
	"/lib64":        {},
	"/opt":          {},
	"/proc":         {},
	"/root":         {},
	"/sbin":         {},
	"/srv":          {},
	"/sys":          {},
	"/usr":          {},
	"/var":          {},
	"/applications": {},
	"/library":      {},
	"/system":       {},
	"/users":        {},
	"/volumes":      {},
	"/private":      {},
}

// commandWrappers are prefixes that run the following word as the command.
var commandWrappers = map[string]struct{}{
	"sudo":    {},
	"doas":    {},
	"command": {},
	"exec":    {},
	"nohup":   {},
	"env":     {},
	"time":    {},
	"nice":    {},
	"builtin": {},
}

// wrapperArgFlags lists, per wrapper, the flags that consume the next word
// (e.g. sudo -u root).
var wrapperArgFlags = map[string]map[string]struct{}{
	"sudo": {"-u": {}, "-g": {}, "-p": {}, "-C": {}, "-D": {}, "-h": {}},
	"doas": {"-u": {}, "-C": {}},
	"env":  {"-u": {}, "-C": {}, "-S": {}},
	"nice": {"-n": {}},
}

// isRecursiveRootDelete reports whether any simple command in text is an rm
// invocation with a recursive flag targeting the root, a root glob, a
// top-level system directory or the home directory. Flag order and spelling do not matter.
func isRecursiveRootDelete(text string) bool {
	for _, words := range splitSimpleCommands(text) {
		args := stripWrappers(words)
		if len(args) == 0 || path.Base(args[0]) != "rm" {
			continue
		}
		if rmTargetsProtected(args[1:]) {
			return true
		}
	}
	return false
}

func rmTargetsProtected(args []string) bool {
	recursive := false
	var targets []string
	endOfFlags := false
	for _, arg := range args {
		switch {
		case endOfFlags:
			targets = append(targets, arg)
		case arg == "--":
			endOfFlags = true
		case arg == "--recursive":
			recursive = true
		case strings.HasPrefix(arg, "--"):
			// other long options
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			if strings.ContainsAny(arg[1:], "rR") {
				recursive = true
			}
		default:
			targets = append(targets, arg)
		}
	}
	if !recursive {
		return false
	}
	for _, target := range targets {
		if isProtectedTarget(target) {
			return true
		}
	}
	return false
}

func isProtectedTarget(target string) bool {
	lower := strings.ToLower(target)
	if _, ok := protectedDeleteTargets[lower]; ok {
		return true
	}
	if !strings.HasPrefix(lower, "/") {
		return false
	}
	// "//", "/./", "/.." and friends all clean to the root
	if path.Clean(lower) == "/" {
		return true
	}
	_, ok := systemDirectories[path.Clean(strings.TrimSuffix(lower, "/*"))]
	return ok
}

// stripWrappers drops leading privilege wrappers, their flags and
// VAR=value assignments so that words[0] is the real command.
func stripWrappers(words []string) []string {
	i := 0
	for i < len(words) {
		w := path.Base(words[i])
		if _, ok := commandWrappers[w]; ok {
			i++
			for i < len(words) && strings.HasPrefix(words[i], "-") {
				if _, takesArg := wrapperArgFlags[w][words[i]]; takesArg {
					i++
				}
				i++
			}
			continue
		}
		if isAssignment(words[i]) {
			i++
			continue
		}
		break
	}
	return words[i:]
}

func isAssignment(word string) bool {
	eq := strings.IndexByte(word, '=')
	if eq <= 0 {
		return false
	}
	for _, c := range word[:eq] {
		if c != '_' && (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// splitSimpleCommands splits a shell line into the word lists of its simple
// commands. It honours single and double quotes and backslash escapes and
// treats ; & | && || and newlines as command separators. It does not expand
// anything; $HOME and ~ stay literal.
func splitSimpleCommands(text string) [][]string {
	var (
		commands [][]string
		words    []string
		current  strings.Builder
		inWord   bool
		quote    rune
		escaped  bool
	)

	flushWord := func() {
		if inWord {
			words = append(words, current.String())
			current.Reset()
			inWord = false
		}
	}
	flushCommand := func() {
		flushWord()
		if len(words) > 0 {
			commands = append(commands, words)
			words = nil
		}
	}

	for _, r := range text {
		switch {
		case escaped:
			current.WriteRune(r)
			inWord = true
			escaped = false
		case quote != 0:
			if r == quote {
				quote = 0
			} else if r == '\\' && quote == '"' {
				escaped = true
			} else {
				current.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inWord = true
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ';' || r == '&' || r == '|' || r == '\n' || r == '(' || r == ')':
			flushCommand()
		case (r == '{' || r == '}') && !inWord:
			flushCommand()
		case r == ' ' || r == '\t' || r == '\r':
			flushWord()
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	flushCommand()

	return commands
}
