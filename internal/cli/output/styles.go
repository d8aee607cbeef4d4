package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Path    lipgloss.Style
	Code    lipgloss.Style
}

// NewStyles builds styles bound to a lipgloss renderer so that color support
// follows the destination writer, not the process stdout.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lr.NewStyle().Bold(true).Underline(true),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Info:    lr.NewStyle().Foreground(lipgloss.Color("14")),
		Path:    lr.NewStyle().Foreground(lipgloss.Color("13")),
		Code:    lr.NewStyle().PaddingLeft(2),
	}
}

// statusStyle maps a status word to its style and symbol.
func (s *Styles) statusStyle(status string) (lipgloss.Style, string) {
	switch status {
	case "success", "ok":
		return s.Success, "✓"
	case "skipped", "cached":
		return s.Muted, "-"
	case "warning", "stdout":
		return s.Warning, "!"
	case "error", "stderr", "failed", "rewrite-failed":
		return s.Error, "✗"
	default:
		return s.Info, "•"
	}
}
