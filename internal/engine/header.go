package engine

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Header is the optional YAML block at the top of a document. It is written as
// a /*--- ... ---*/ comment, so it passes through the rewrite rules and stays
// valid in the generated D source.
type Header struct {
	// Compile set to false builds the document without handing it to the
	// compiler, for library documents that have no main.
	Compile *bool `yaml:"compile"`
}

// CompileEnabled reports whether the header allows compiling the document.
func (h *Header) CompileEnabled() bool {
	return h == nil || h.Compile == nil || *h.Compile
}

// headerPattern matches a /*--- ... ---*/ block at the start of a document.
var headerPattern = regexp.MustCompile(`(?s)^\s*/\*---[ \t]*\n(.*?)\s*---\*/`)

// HeaderError reports a header that is not valid YAML or has unknown fields.
type HeaderError struct {
	Path string
	Err  error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s: invalid document header: %v", e.Path, e.Err)
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}

// ParseHeader extracts the header of src. It returns nil when src has none.
func ParseHeader(path, src string) (*Header, error) {
	m := headerPattern.FindStringSubmatch(src)
	if m == nil {
		return nil, nil
	}

	h := &Header{}
	dec := yaml.NewDecoder(strings.NewReader(m[1]))
	dec.KnownFields(true)
	if err := dec.Decode(h); err != nil && !errors.Is(err, io.EOF) {
		return nil, &HeaderError{Path: path, Err: err}
	}
	return h, nil
}
