// Package rewrite turns dialect source into D source.
//
// The conversion is an ordered list of rules. Each rule takes the whole document
// and returns a new whole document; the pipeline folds them left to right. Rules
// are pure, so a document can be rewritten any number of times with the same
// result, and rules never look ahead to what later rules will do.
package rewrite

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Rule is one ordered rewrite stage.
type Rule struct {
	Name    string
	Summary string
	Apply   func(src string) (string, error)
}

// RuleError reports the rule that rejected a document.
type RuleError struct {
	Document string
	Rule     string
	Err      error
}

func (e *RuleError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("%s: rule %s: %v", e.Document, e.Rule, e.Err)
	}
	return fmt.Sprintf("rule %s: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// DefaultRules returns the rules of the standard pipeline in application order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "qualifiers",
			Summary: "prefix every function parameter with ref, in or const",
			Apply:   NormalizeQualifiers,
		},
		{
			Name:    "generics",
			Summary: "add a (Type) template parameter to signatures that use Type",
			Apply:   AnnotateGenerics,
		},
		{
			Name:    "remap",
			Summary: "map loop, branch and declaration keywords to D",
			Apply:   Remap,
		},
		{
			Name:    "duplicates",
			Summary: "duplicate containers assigned straight from another variable",
			Apply:   PreserveCopies,
		},
		{
			Name:    "dictionaries",
			Summary: "expand Mixed[str] literals into a declaration and indexed assignments",
			Apply:   ExpandDictionaries,
		},
		{
			Name:    "preamble",
			Summary: "prepend the imports and aliases the other rules rely on",
			Apply:   InjectPreamble,
		},
	}
}

// Pipeline applies rules in order.
type Pipeline struct {
	rules  []Rule
	logger *slog.Logger
}

// New creates a pipeline with the default rules.
func New(logger *slog.Logger) *Pipeline {
	return NewWithRules(logger, DefaultRules()...)
}

// NewWithRules creates a pipeline with a custom rule list.
func NewWithRules(logger *slog.Logger, rules ...Rule) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		rules:  append([]Rule(nil), rules...),
		logger: logger,
	}
}

// Rules returns the pipeline's rules in application order.
func (p *Pipeline) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Fingerprint identifies the rule set, so cached output can be invalidated when the
// pipeline changes.
func (p *Pipeline) Fingerprint() string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return strings.Join(names, ">")
}

// Run rewrites src. name identifies the document in errors and logs.
// The first failing rule stops the run and no partial output is returned.
func (p *Pipeline) Run(name, src string) (string, error) {
	text := src
	for _, r := range p.rules {
		start := time.Now()
		out, err := r.Apply(text)
		if err != nil {
			p.logger.Debug("rule failed", "document", name, "rule", r.Name, "error", err)
			return "", &RuleError{Document: name, Rule: r.Name, Err: err}
		}
		p.logger.Debug("applied rule",
			slog.String("document", name),
			slog.String("rule", r.Name),
			slog.Bool("changed", out != text),
			slog.Duration("duration", time.Since(start)),
		)
		text = out
	}
	return text, nil
}

// mapLines applies fn to every line of src.
func mapLines(src string, fn func(string) string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = fn(line)
	}
	return strings.Join(lines, "\n")
}
