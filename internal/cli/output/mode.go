// Package output renders command results as styled text, markdown or JSON.
package output

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode selects how a Renderer formats its output.
type Mode string

// OutputMode is an alias kept for callers that name the type explicitly.
type OutputMode = Mode

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// ParseMode normalizes a user supplied mode. Unknown or empty values mean auto.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeText, ModeMarkdown, ModeJSON:
		return Mode(s)
	case "md":
		return ModeMarkdown
	default:
		return ModeAuto
	}
}

// Resolve turns auto into text on a terminal and markdown otherwise.
func (m Mode) Resolve(isTTY bool) Mode {
	switch ParseMode(string(m)) {
	case ModeAuto:
		if isTTY {
			return ModeText
		}
		return ModeMarkdown
	default:
		return ParseMode(string(m))
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
