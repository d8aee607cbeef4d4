package rewrite

import "regexp"

// copyAssignPattern matches "auto name = other;" where the initializer is a bare identifier.
var copyAssignPattern = regexp.MustCompile(`(?m)^([ \t]*)(auto \w+ *= *)([_a-zA-Z]\w*) *;`)

// copyAssignTemplate defers the copy decision to the D compiler: anything with a
// length (arrays, strings, associative arrays) is duplicated, everything else is
// assigned directly.
const copyAssignTemplate = `${1}mixin("${2}", __traits(compiles, ${3}.length) ? "${3}.dup" : "${3}", ";");`

// PreserveCopies keeps the dialect's copy-on-assignment semantics for containers.
// Whether the source is a container is only known to the compiler, so the choice
// is emitted as a compile-time mixin rather than made here.
func PreserveCopies(src string) (string, error) {
	return copyAssignPattern.ReplaceAllString(src, copyAssignTemplate), nil
}
