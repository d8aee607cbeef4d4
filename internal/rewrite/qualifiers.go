package rewrite

import (
	"regexp"
	"strings"
)

// Qualifier is the passing convention of one function parameter.
type Qualifier int

// Qualifier classes.
const (
	QualifierImplicit Qualifier = iota // no marker: read-only reference
	QualifierOutput                    // "out": callee writes back to the caller
	QualifierCopy                      // "copy": callee gets its own value
)

func (q Qualifier) String() string {
	switch q {
	case QualifierImplicit:
		return "implicit"
	case QualifierOutput:
		return "output"
	case QualifierCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Keyword returns the D storage class emitted for q.
// copy maps to in, not to a by-value parameter.
func (q Qualifier) Keyword() string {
	return qualifierKeywords[q]
}

// qualifierMarkers maps dialect parameter markers to their class.
var qualifierMarkers = map[string]Qualifier{
	"out":  QualifierOutput,
	"copy": QualifierCopy,
}

var qualifierKeywords = map[Qualifier]string{
	QualifierImplicit: "const",
	QualifierOutput:   "ref",
	QualifierCopy:     "in",
}

// signaturePattern matches a dialect function declaration up to its opening parenthesis.
var signaturePattern = regexp.MustCompile(`^function (\w+)\(`)

// Parameter is one parameter of a function signature.
type Parameter struct {
	Leading string    // whitespace and other text before the parameter
	Marker  string    // dialect marker, empty when implicit
	Body    string    // type and name, marker removed
	Class   Qualifier // passing convention
}

// ParseParameter classifies one comma-free span of a parameter list.
// It reports false when the span holds no parameter.
func ParseParameter(span string) (Parameter, bool) {
	start := strings.IndexFunc(span, isWordRune)
	if start < 0 {
		return Parameter{}, false
	}

	p := Parameter{Leading: span[:start], Body: span[start:]}
	for marker, class := range qualifierMarkers {
		if strings.HasPrefix(p.Body, marker+" ") {
			p.Marker = marker
			p.Class = class
			p.Body = p.Body[len(marker)+1:]
			break
		}
	}
	return p, true
}

// String renders the parameter with its D storage class.
func (p Parameter) String() string {
	return p.Leading + p.Class.Keyword() + " " + p.Body
}

// signatureParams returns the byte range of the parameter text of a function
// declaration line: after the opening parenthesis, up to the first ')' or end of line.
func signatureParams(line string) (start, end int, ok bool) {
	loc := signaturePattern.FindStringIndex(line)
	if loc == nil {
		return 0, 0, false
	}
	start = loc[1]
	end = strings.IndexByte(line[start:], ')')
	if end < 0 {
		return start, len(line), true
	}
	return start, start + end, true
}

// NormalizeQualifiers gives every parameter of every function declaration an
// explicit storage class.
func NormalizeQualifiers(src string) (string, error) {
	return mapLines(src, normalizeSignature), nil
}

func normalizeSignature(line string) string {
	start, end, ok := signatureParams(line)
	if !ok {
		return line
	}

	spans := strings.Split(line[start:end], ",")
	for i, span := range spans {
		if p, ok := ParseParameter(span); ok {
			spans[i] = p.String()
		}
	}
	return line[:start] + strings.Join(spans, ",") + line[end:]
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
