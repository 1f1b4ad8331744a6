package terminal

// ANSI color codes
const (
	reset  = "\033[0m"
	gray   = "\033[90m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// Color wraps text in an ANSI color
type Color func(text string) string

func newColor(code string) Color {
	return func(text string) string {
		return code + text + reset
	}
}

// Predefined colors
var (
	Gray   = newColor(gray)
	Red    = newColor(red)
	Green  = newColor(green)
	Yellow = newColor(yellow)
	Cyan   = newColor(cyan)
)
