package rewrite

import "strings"

// conditionOperators maps boolean words to D operators inside branch conditions.
var conditionOperators = map[string]string{
	"and": "&&",
	"or":  "||",
}

// branchKeywords introduce a condition whose boolean words get rewritten.
var branchKeywords = []string{"choice", "backup"}

// conditionScanner walks one parenthesized condition, tracking nesting and
// string literals, and rewrites boolean words found outside strings.
type conditionScanner struct {
	src   string
	pos   int
	depth int
	quote byte // open string delimiter, 0 outside strings
	out   strings.Builder
}

// rewriteConditionOperators rewrites the condition of a choice/backup header line,
// one whose closing parenthesis is followed by ':'. Other lines, including calls
// such as choice(a and b);, are returned unchanged.
func rewriteConditionOperators(line string) string {
	indent, rest := trimIndent(line)

	keyword := ""
	for _, kw := range branchKeywords {
		if strings.HasPrefix(rest, kw) {
			keyword = kw
			break
		}
	}
	if keyword == "" {
		return line
	}

	afterKeyword := rest[len(keyword):]
	cond := strings.TrimLeft(afterKeyword, " ")
	if !strings.HasPrefix(cond, "(") {
		return line
	}

	prefixLen := len(indent) + len(keyword) + len(afterKeyword) - len(cond)
	s := &conditionScanner{src: line, pos: prefixLen}
	s.out.WriteString(line[:prefixLen])
	if !s.scan() || !strings.HasPrefix(strings.TrimLeft(line[s.pos:], " "), ":") {
		return line
	}
	s.out.WriteString(line[s.pos:])
	return s.out.String()
}

// scan copies the condition to out, stopping after its closing parenthesis. It
// reports false when the parenthesis is never closed.
func (s *conditionScanner) scan() bool {
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		if s.quote != 0 {
			s.out.WriteByte(c)
			s.pos++
			if c == '\\' && s.pos < len(s.src) {
				s.out.WriteByte(s.src[s.pos])
				s.pos++
			} else if c == s.quote {
				s.quote = 0
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			s.quote = c
		case c == '(':
			s.depth++
		case c == ')':
			s.depth--
			if s.depth == 0 {
				s.out.WriteByte(c)
				s.pos++
				return true
			}
		case isWordRune(rune(c)) && !s.afterWord():
			s.word()
			continue
		}

		s.out.WriteByte(c)
		s.pos++
	}
	return false
}

// word copies one identifier-like word, replacing boolean words.
func (s *conditionScanner) word() {
	start := s.pos
	for s.pos < len(s.src) && isWordRune(rune(s.src[s.pos])) {
		s.pos++
	}
	w := s.src[start:s.pos]
	if op, ok := conditionOperators[w]; ok {
		w = op
	}
	s.out.WriteString(w)
}

func (s *conditionScanner) afterWord() bool {
	return s.pos > 0 && isWordRune(rune(s.src[s.pos-1]))
}
