package safety

import (
	"regexp"
	"strings"

	"github.com/luna-agent/luna/internal/gateway/gatewaytypes"
)

// Reasons reported on blocked verdicts, one per hazard category
const (
	ReasonRecursiveDelete  = "recursive deletion of the filesystem root, a root-level system directory or the home directory"
	ReasonBlockDeviceWrite = "direct write to a block device"
	ReasonFilesystemFormat = "filesystem format operation"
	ReasonForkBomb         = "shell fork bomb"
	ReasonReverseShell     = "reverse shell network primitive"
)

// hazardRule is one denylist entry. Match receives the normalized command
// text (lower-cased, whitespace collapsed).
type hazardRule struct {
	Name     string
	Category gatewaytypes.HazardCategory
	Reason   string
	Match    func(normalized string) bool
}

// targetEnd terminates a deletion target: end of text, whitespace or a
// shell control character.
const targetEnd = `(?:$|[\s;&|)])`

// homeOrRoot lists deletion targets in their normalized spelling.
const homeOrRoot = `(?:/|/\*|/\.\*|~|~/|~/\*|\$home|\$home/|\$home/\*|\$\{home\}|\$\{home\}/|\$\{home\}/\*)`

// diskDevice matches whole-disk device nodes on Linux and macOS.
const diskDevice = `/dev/(?:sd|hd|vd|xvd|nvme|mmcblk|disk|rdisk)`

// denylist holds every hazard pattern. Adding a hazard is a one-entry change.
var denylist = []hazardRule{
	// Recursive deletion
	regexpRule("rm-recursive-root", gatewaytypes.HazardRecursiveDelete, ReasonRecursiveDelete,
		`\brm\s+(?:-[a-z-]*\s+)*-(?:[a-z]*r[a-z]*)\s+(?:-[a-z-]*\s+)*`+homeOrRoot+targetEnd),
	regexpRule("rm-recursive-long-root", gatewaytypes.HazardRecursiveDelete, ReasonRecursiveDelete,
		`\brm\s+(?:-[a-z-]*\s+)*--recursive\s+(?:-[a-z-]*\s+)*`+homeOrRoot+targetEnd),
	regexpRule("rm-no-preserve-root", gatewaytypes.HazardRecursiveDelete, ReasonRecursiveDelete,
		`\brm\b[^;&|]*--no-preserve-root`),

	// Block device writes
	regexpRule("dd-to-device", gatewaytypes.HazardBlockDeviceWrite, ReasonBlockDeviceWrite,
		`\bdd\b[^;&|]*\bof=`+diskDevice),
	regexpRule("redirect-to-device", gatewaytypes.HazardBlockDeviceWrite, ReasonBlockDeviceWrite,
		`>\s*`+diskDevice),
	regexpRule("tee-to-device", gatewaytypes.HazardBlockDeviceWrite, ReasonBlockDeviceWrite,
		`\btee\b[^;&|]*\s`+diskDevice),

	// Filesystem formatting
	regexpRule("mkfs", gatewaytypes.HazardFilesystemFormat, ReasonFilesystemFormat,
		`\bmkfs(?:\.[a-z0-9]+)?\b`),
	regexpRule("mke2fs", gatewaytypes.HazardFilesystemFormat, ReasonFilesystemFormat,
		`\bmke2fs\b`),
	regexpRule("mkswap-device", gatewaytypes.HazardFilesystemFormat, ReasonFilesystemFormat,
		`\bmkswap\s+(?:-[a-z]+\s+)*`+diskDevice),
	regexpRule("wipefs", gatewaytypes.HazardFilesystemFormat, ReasonFilesystemFormat,
		`\bwipefs\b`),
	regexpRule("diskutil-erase", gatewaytypes.HazardFilesystemFormat, ReasonFilesystemFormat,
		`\bdiskutil\s+(?:erasedisk|erasevolume|zerodisk|randomdisk|partitiondisk|secureerase)\b`),
	regexpRule("parted-mklabel", gatewaytypes.HazardFilesystemFormat, ReasonFilesystemFormat,
		`\bparted\b[^;&|]*\bmklabel\b`),
	regexpRule("windows-format", gatewaytypes.HazardFilesystemFormat, ReasonFilesystemFormat,
		`(?:^|[\s;&|])format\s+[a-z]:`),

	// Fork bombs
	{Name: "fork-bomb", Category: gatewaytypes.HazardForkBomb, Reason: ReasonForkBomb, Match: matchForkBomb},

	// Reverse shells
	containsRule("dev-tcp", gatewaytypes.HazardReverseShell, ReasonReverseShell, "/dev/tcp/", "/dev/udp/"),
	regexpRule("netcat-exec", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\b(?:nc|ncat|netcat)\b[^;&|]*\s(?:-[a-z]*[ec]\b|--exec\b|--sh-exec\b)`),
	regexpRule("socat-exec", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\bsocat\b[^;&|]*\b(?:exec|system):`),
	regexpRule("interactive-shell-redirect", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\b(?:bash|sh|zsh|dash)\s+-i\s*[<>]&`),
	regexpRule("mkfifo-netcat", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\bmkfifo\b.*\b(?:nc|ncat|netcat|telnet)\b`),
	regexpRule("python-socket", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\bpython[0-9.]*\b.*\bsocket\b.*\b(?:subprocess|pty\.spawn|os\.dup2)`),
	regexpRule("perl-socket", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\bperl\b.*\bsocket\b.*\bexec\b`),
	regexpRule("ruby-socket", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\bruby\b.*(?:-rsocket|tcpsocket)`),
	regexpRule("php-fsockopen", gatewaytypes.HazardReverseShell, ReasonReverseShell,
		`\bphp\b.*\bfsockopen\b`),
}

func regexpRule(name string, category gatewaytypes.HazardCategory, reason, expr string) hazardRule {
	re := regexp.MustCompile(expr)
	return hazardRule{Name: name, Category: category, Reason: reason, Match: re.MatchString}
}

func containsRule(name string, category gatewaytypes.HazardCategory, reason string, needles ...string) hazardRule {
	return hazardRule{
		Name:     name,
		Category: category,
		Reason:   reason,
		Match: func(normalized string) bool {
			for _, n := range needles {
				if strings.Contains(normalized, n) {
					return true
				}
			}
			return false
		},
	}
}

// forkBombFunc matches "name(){ a|b& };c" once all whitespace is removed.
// Go regexp has no backreferences, so name equality is checked in code.
var forkBombFunc = regexp.MustCompile(`([a-z_:][a-z0-9_:]*)\(\)\{([a-z_:][a-z0-9_:]*)\|([a-z_:][a-z0-9_:]*)&\};?([a-z_:][a-z0-9_:]*)`)

func matchForkBomb(normalized string) bool {
	compact := strings.Join(strings.Fields(normalized), "")
	if strings.Contains(compact, ":(){:|:&};:") {
		return true
	}
	for _, m := range forkBombFunc.FindAllStringSubmatch(compact, -1) {
		name := m[1]
		if m[2] == name && m[3] == name && m[4] == name {
			return true
		}
	}
	return false
}
