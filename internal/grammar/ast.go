// Package grammar parses the typed dictionary literal statement of the dialect:
//
//	Mixed[str] name = ["key": value, "other": "text", "list": [1, 2]];
//
// The statement is too irregular for a single pattern substitution (values may be
// quoted strings with escapes or raw bracketed blobs containing quotes and nested
// brackets), so it gets its own small recursive-descent parser.
package grammar

// TypeName is the only dictionary type the grammar recognizes.
const TypeName = "Mixed[str]"

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// ValueKind identifies which value form an entry was written in.
type ValueKind int

// ValueKind constants, in grammar preference order.
const (
	ValueString ValueKind = iota // "text", re-quoted on output
	ValueWord                    // bare run of word characters
	ValueBlob                    // [ ... ] copied verbatim
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueWord:
		return "word"
	case ValueBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Entry is one key/value pair of a dictionary literal.
type Entry struct {
	Key   string    // decoded key text
	Value string    // target-ready value text
	Kind  ValueKind // form the value was written in
	Raw   string    // decoded text for strings, otherwise same as Value
	Pos   Position
}

// Literal is the parse of one dictionary declaration.
// Entries always holds at least one element.
type Literal struct {
	TypeName string
	Name     string
	Entries  []Entry
	Pos      Position
}

// Keys returns the entry keys in source order.
func (l *Literal) Keys() []string {
	keys := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		keys[i] = e.Key
	}
	return keys
}
