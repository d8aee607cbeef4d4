package rewrite

import (
	"regexp"
	"strings"
)

// Substitution is one line-anchored keyword mapping.
type Substitution struct {
	Name    string
	Dialect string // example of the dialect form
	Target  string // the same example after substitution
	pattern *regexp.Regexp
	replace string
}

// Apply runs the substitution over the whole document.
func (s Substitution) Apply(src string) string {
	return s.pattern.ReplaceAllString(src, s.replace)
}

func substitution(name, dialect, target, pattern, replace string) Substitution {
	return Substitution{
		Name:    name,
		Dialect: dialect,
		Target:  target,
		pattern: regexp.MustCompile(pattern),
		replace: replace,
	}
}

// substitutions is the keyword table. Entries are independent of each other except
// that main must be matched before the general function rule.
var substitutions = []Substitution{
	substitution("foreach", "for (item; items)", "foreach (item; items)",
		`(?m)^( *)for( *\( *\w+ *;)`, "${1}foreach${2}"),
	substitution("loop-var", "for (var i = 0; ...)", "for (auto i = 0; ...)",
		`(?m)^([ \t]*)for( ?\()var( )`, "${1}for${2}auto${3}"),
	substitution("var", "var x = 1;", "auto x = 1;",
		`(?m)^([ \t]*)var( .)`, "${1}auto${2}"),
	substitution("main", "function main()", "void main()",
		`(?m)^function( main\()`, "void${1}"),
	substitution("function", "function area(...)", "auto area(...)",
		`(?m)^function( \w+\()`, "auto${1}"),
	substitution("choice", "choice (a):", "if (a)",
		`(?m)^( *)choice( *[^:\n]+):`, "${1}if${2}"),
	substitution("backup", "backup (a):", "else if (a)",
		`(?m)^( *)backup( *[^:\n]+):`, "${1}else if${2}"),
	substitution("default", "default:", "else",
		`(?m)^( *)default( *):`, "${1}else${2}"),
}

// Substitutions returns the keyword table in application order.
func Substitutions() []Substitution {
	return append([]Substitution(nil), substitutions...)
}

// Remap rewrites loop, branch and declaration keywords. Boolean words inside
// choice and backup conditions are rewritten before the headers become if/else if.
// Remap(Remap(x)) == Remap(x).
func Remap(src string) (string, error) {
	text := mapLines(src, rewriteConditionOperators)
	for _, s := range substitutions {
		text = s.Apply(text)
	}
	return text, nil
}

// genericPattern matches the placeholder type name used as a parameter type.
var genericPattern = regexp.MustCompile(`\bType[\[ ]`)

// GenericParam is the template parameter introduced for the placeholder type.
const GenericParam = "(Type)"

// AnnotateGenerics turns function declarations that use the placeholder type Type
// into templates over it.
func AnnotateGenerics(src string) (string, error) {
	return mapLines(src, func(line string) string {
		start, end, ok := signatureParams(line)
		if !ok || !genericPattern.MatchString(line[start:end]) {
			return line
		}
		open := start - 1
		return line[:open] + GenericParam + line[open:]
	}), nil
}

// trimIndent splits line into its leading spaces and the rest.
func trimIndent(line string) (string, string) {
	rest := strings.TrimLeft(line, " ")
	return line[:len(line)-len(rest)], rest
}
