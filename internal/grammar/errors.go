package grammar

import "fmt"

// Error is the interface for all grammar errors.
type Error interface {
	error
	Position() Position
}

type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// ParseError reports a statement that does not fit the dictionary grammar.
type ParseError struct {
	baseError
	Found string // text at the failure point, truncated
}

// NewParseError creates a new parse error.
func NewParseError(pos Position, found, msg string) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: msg}, Found: found}
}

// NewParseErrorf creates a new parse error with formatting.
func NewParseErrorf(pos Position, found, format string, args ...any) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}, Found: found}
}

func (e *ParseError) Error() string {
	base := e.baseError.Error()
	if e.Found == "" {
		return base + " (at end of statement)"
	}
	return fmt.Sprintf("%s (found %q)", base, e.Found)
}
