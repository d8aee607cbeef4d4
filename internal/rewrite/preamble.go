package rewrite

import "strings"

// Preamble is prepended to every generated document. It provides print, the Mixed
// value type used by dictionary literals, Alias, and the str shorthand.
var Preamble = []string{
	"import std.stdio : print = writeln;",
	"import std.variant : Mixed = Variant;",
	"import std.meta : Alias;",
	"alias str = string;",
}

// InjectPreamble prepends the preamble and a blank line.
func InjectPreamble(src string) (string, error) {
	return strings.Join(Preamble, "\n") + "\n\n" + src, nil
}
