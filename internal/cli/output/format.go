package output

import (
	"strings"
)

// FormatHeader returns a markdown header of the given level (clamped to 1..6).
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatCodeBlock returns a fenced markdown code block. The fence grows when
// code itself contains a fence.
func FormatCodeBlock(lang, code string) string {
	fence := "```"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	code = strings.TrimRight(code, "\n")
	return fence + lang + "\n" + code + "\n" + fence
}

// FormatKeyValue returns a markdown "- **key:** value" line.
func FormatKeyValue(key, value string) string {
	return "- **" + key + ":** " + value
}
