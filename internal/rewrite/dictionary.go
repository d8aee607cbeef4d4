package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/pseudod/internal/grammar"
)

// dictionaryPattern finds candidate dictionary statements: anchored at the start of
// a line and running non-greedily to the first "];" that ends the line. A trailing
// carriage return is captured so CRLF documents keep their line endings.
var dictionaryPattern = regexp.MustCompile(`(?m)^( *)(Mixed\[str\] \w+ = \[.*?\];)[ \t]*(\r?)$`)

// ExpandDictionaries replaces every Mixed[str] literal with a bare declaration
// followed by one indexed assignment per entry. A statement that matches the outer
// shape but not the grammar fails the whole document.
func ExpandDictionaries(src string) (string, error) {
	matches := dictionaryPattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		indent := src[m[2]:m[3]]
		stmt := src[m[4]:m[5]]
		line := strings.Count(src[:m[0]], "\n") + 1

		lit, err := grammar.NewParser(stmt, grammar.Position{Line: line, Column: len(indent) + 1}).Parse()
		if err != nil {
			return "", fmt.Errorf("dictionary literal %q: %w", firstWords(stmt), err)
		}

		sb.WriteString(src[last:m[0]])
		cr := src[m[6]:m[7]]
		sb.WriteString(strings.Join(Expand(lit, indent), cr+"\n"))
		sb.WriteString(cr)
		last = m[1]
	}
	sb.WriteString(src[last:])

	return sb.String(), nil
}

// Expand renders a parsed literal as indented D statements.
//
// The first entry only yields the declaration; its value is not assigned. Entries
// after it become name["key"] = value; lines.
func Expand(lit *grammar.Literal, indent string) []string {
	lines := make([]string, 0, len(lit.Entries))
	lines = append(lines, indent+lit.TypeName+" "+lit.Name+";")
	for _, e := range lit.Entries[1:] {
		lines = append(lines, indent+lit.Name+"["+grammar.Quote(e.Key)+"] = "+e.Value+";")
	}
	return lines
}

// firstWords shortens a statement for error messages.
func firstWords(stmt string) string {
	if i := strings.Index(stmt, "="); i > 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}
