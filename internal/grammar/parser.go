package grammar

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// maxFound limits how much of the remaining input a ParseError quotes.
const maxFound = 16

// Parser parses a single dictionary declaration statement.
type Parser struct {
	input string
	file  string
	pos   int // current byte offset in input
	line  int // current line number (1-based)
	col   int // current column number (1-based)
}

// NewParser creates a parser for input. start is the location of the first byte of
// input within its document; a zero Line defaults to line 1, column 1.
func NewParser(input string, start Position) *Parser {
	if start.Line == 0 {
		start.Line = 1
	}
	if start.Column == 0 {
		start.Column = 1
	}
	return &Parser{
		input: input,
		file:  start.File,
		line:  start.Line,
		col:   start.Column,
	}
}

// Parse parses a statement that starts at line 1, column 1 of an unnamed document.
func Parse(stmt string) (*Literal, error) {
	return NewParser(stmt, Position{}).Parse()
}

// Parse consumes the whole input as one statement.
func (p *Parser) Parse() (*Literal, error) {
	lit := &Literal{Pos: p.position()}

	if !p.matchString(TypeName) {
		return nil, p.errorf("expected type %s", TypeName)
	}
	p.advanceN(len(TypeName))
	lit.TypeName = TypeName
	p.skipSpaces()

	name, ok := p.scanWord()
	if !ok {
		return nil, p.errorf("expected variable name")
	}
	lit.Name = name
	p.skipSpaces()

	if err := p.expect('='); err != nil {
		return nil, err
	}
	p.skipSpaces()

	entries, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	lit.Entries = entries
	p.skipSpaces()

	if err := p.expect(';'); err != nil {
		return nil, err
	}
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected text after ';'")
	}

	return lit, nil
}

// parseBody parses "[" Pair ("," Pair)* "]".
func (p *Parser) parseBody() ([]Entry, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}

	var entries []Entry
	for {
		entry, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)

		switch p.peek() {
		case ',':
			p.advance()
		case ']':
			p.advance()
			return entries, nil
		default:
			return nil, p.errorf("expected ',' or ']' after dictionary entry")
		}
	}
}

// parsePair parses _ String _ ":" _ Value _.
func (p *Parser) parsePair() (Entry, error) {
	p.skipSpaces()
	entry := Entry{Pos: p.position()}

	if p.peek() != '"' {
		return Entry{}, p.errorf("expected quoted key")
	}
	key, err := p.scanString()
	if err != nil {
		return Entry{}, err
	}
	entry.Key = key
	p.skipSpaces()

	if err := p.expect(':'); err != nil {
		return Entry{}, err
	}
	p.skipSpaces()

	if err := p.parseValue(&entry); err != nil {
		return Entry{}, err
	}
	p.skipSpaces()

	return entry, nil
}

// parseValue tries String, then a word run, then a bracketed blob.
func (p *Parser) parseValue(entry *Entry) error {
	switch r := p.peek(); {
	case r == '"':
		s, err := p.scanString()
		if err != nil {
			return err
		}
		entry.Kind = ValueString
		entry.Raw = s
		entry.Value = Quote(s)
	case isWordChar(r):
		w, _ := p.scanWord()
		entry.Kind = ValueWord
		entry.Raw = w
		entry.Value = w
	case r == '[':
		blob, err := p.scanBlob()
		if err != nil {
			return err
		}
		entry.Kind = ValueBlob
		entry.Raw = blob
		entry.Value = blob
	default:
		return p.errorf("expected value (string, word or [...])")
	}
	return nil
}

// scanString scans a double-quoted string and returns its decoded contents.
func (p *Parser) scanString() (string, error) {
	start := p.position()
	p.advance() // opening quote

	var sb strings.Builder
	for p.pos < len(p.input) {
		r := p.peek()
		switch r {
		case '"':
			p.advance()
			return sb.String(), nil
		case '\n':
			return "", NewParseError(start, "", "unterminated string: newline before closing '\"'")
		case '\\':
			decoded, err := p.scanEscape()
			if err != nil {
				return "", err
			}
			sb.WriteString(decoded)
		default:
			sb.WriteRune(r)
			p.advance()
		}
	}

	return "", NewParseError(start, "", "unterminated string: missing closing '\"'")
}

// scanEscape decodes one backslash escape sequence.
func (p *Parser) scanEscape() (string, error) {
	escPos := p.position()
	p.advance() // backslash

	r := p.peek()
	switch r {
	case '"', '\\', '/', '\'':
		p.advance()
		return string(r), nil
	case 'b':
		p.advance()
		return "\b", nil
	case 'f':
		p.advance()
		return "\f", nil
	case 'n':
		p.advance()
		return "\n", nil
	case 'r':
		p.advance()
		return "\r", nil
	case 't':
		p.advance()
		return "\t", nil
	case 'u':
		p.advance()
		code, err := p.scanHex4(escPos)
		if err != nil {
			return "", err
		}
		// A high surrogate followed by an escaped low surrogate is one code point.
		if utf16.IsSurrogate(code) && p.matchString(`\u`) {
			save := *p
			p.advanceN(2)
			if low, err := p.scanHex4(escPos); err == nil {
				if combined := utf16.DecodeRune(code, low); combined != utf8.RuneError {
					return string(combined), nil
				}
			}
			*p = save
		}
		if utf16.IsSurrogate(code) {
			return "", NewParseErrorf(escPos, p.found(), `lone surrogate \u%04X in string`, code)
		}
		return string(code), nil
	default:
		return "", NewParseErrorf(escPos, p.found(), "unknown escape sequence \\%c", r)
	}
}

// scanHex4 reads the four hex digits of a \u escape.
func (p *Parser) scanHex4(escPos Position) (rune, error) {
	if p.pos+4 > len(p.input) {
		return 0, NewParseError(escPos, p.found(), `invalid \u escape: need 4 hex digits`)
	}
	hex := p.input[p.pos : p.pos+4]
	code, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, NewParseErrorf(escPos, hex, `invalid \u escape %q`, hex)
	}
	p.advanceN(4)
	return rune(code), nil
}

// scanBlob returns the raw text of a bracketed value, brackets included.
// Nested brackets are balanced and brackets inside double-quoted strings are ignored.
func (p *Parser) scanBlob() (string, error) {
	start := p.position()
	startOffset := p.pos
	depth := 0
	inString := false

	for p.pos < len(p.input) {
		r := p.peek()
		switch {
		case r == '\n':
			return "", NewParseError(start, "", "unclosed '[' in value")
		case inString && r == '\\':
			p.advance()
		case r == '"':
			inString = !inString
		case inString:
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth == 0 {
				p.advance()
				return p.input[startOffset:p.pos], nil
			}
		}
		p.advance()
	}

	return "", NewParseError(start, "", "unclosed '[' in value")
}

// scanWord scans a run of word characters.
func (p *Parser) scanWord() (string, bool) {
	start := p.pos
	for p.pos < len(p.input) && isWordChar(p.peek()) {
		p.advance()
	}
	return p.input[start:p.pos], p.pos > start
}

// Helper methods

func (p *Parser) expect(r rune) error {
	if p.peek() != r {
		return p.errorf("expected '%c'", r)
	}
	p.advance()
	return nil
}

// skipSpaces skips plain spaces only; tabs and newlines are not whitespace here.
func (p *Parser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.advance()
	}
}

func (p *Parser) peek() rune {
	if p.pos >= len(p.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(p.input[p.pos:])
	return r
}

func (p *Parser) advance() {
	if p.pos >= len(p.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(p.input[p.pos:])
	p.pos += size

	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
}

func (p *Parser) advanceN(n int) {
	for i := 0; i < n; i++ {
		p.advance()
	}
}

func (p *Parser) matchString(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *Parser) position() Position {
	return Position{File: p.file, Line: p.line, Column: p.col}
}

// found returns a short excerpt of the unconsumed input.
func (p *Parser) found() string {
	rest := p.input[p.pos:]
	if len(rest) > maxFound {
		rest = rest[:maxFound]
	}
	return rest
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return NewParseErrorf(p.position(), p.found(), format, args...)
}

// isWordChar reports whether r is an ASCII letter, digit or underscore.
func isWordChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
