package rewrite

import (
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/pseudod/internal/grammar"
	"github.com/leapstack-labs/pseudod/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `function sum(Type[] xs, out Type total) {
    total = 0;
    for (x; xs) {
        total += x;
    }
}

function describe(int n, copy string label) {
    choice (n > 10 and label != "or"):
        print(label, " big");
    backup (n > 5 or n < 0):
        print(label, " odd");
    default:
        print(label);
}

function main() {
    var counts = [1, 2, 3];
    var copied = counts;
    Mixed[str] config = ["width": 100, "height": "200", "tags": ["a", "b"]];
    for (var i = 0; i < 3; i++) {
        print(i);
    }
}
`

const sampleTarget = `import std.stdio : print = writeln;
import std.variant : Mixed = Variant;
import std.meta : Alias;
alias str = string;

auto sum(Type)(const Type[] xs, ref Type total) {
    total = 0;
    foreach (x; xs) {
        total += x;
    }
}

auto describe(const int n, in string label) {
    if (n > 10 && label != "or")
        print(label, " big");
    else if (n > 5 || n < 0)
        print(label, " odd");
    else
        print(label);
}

void main() {
    auto counts = [1, 2, 3];
    mixin("auto copied = ", __traits(compiles, counts.length) ? "counts.dup" : "counts", ";");
    Mixed[str] config;
    config["height"] = "200";
    config["tags"] = ["a", "b"];
    for (auto i = 0; i < 3; i++) {
        print(i);
    }
}
`

func TestPipeline_Sample(t *testing.T) {
	p := New(testutil.NewTestLogger(t))

	out, err := p.Run("sample.pd", sampleSource)
	require.NoError(t, err)
	assert.Equal(t, sampleTarget, out)
}

func TestPipeline_RuleOrder(t *testing.T) {
	var names []string
	for _, r := range New(nil).Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"qualifiers", "generics", "remap", "duplicates", "dictionaries", "preamble"}, names)
}

func TestPipeline_Fingerprint(t *testing.T) {
	assert.Equal(t, "qualifiers>generics>remap>duplicates>dictionaries>preamble", New(nil).Fingerprint())

	custom := NewWithRules(nil, Rule{Name: "a", Apply: identity}, Rule{Name: "b", Apply: identity})
	assert.Equal(t, "a>b", custom.Fingerprint())
}

func TestPipeline_RulesIsACopy(t *testing.T) {
	p := New(nil)
	rules := p.Rules()
	rules[0].Name = "changed"
	assert.Equal(t, "qualifiers", p.Rules()[0].Name)
}

func TestPipeline_FoldsInOrder(t *testing.T) {
	appendRule := func(s string) Rule {
		return Rule{Name: s, Apply: func(src string) (string, error) { return src + s, nil }}
	}
	p := NewWithRules(nil, appendRule("a"), appendRule("b"), appendRule("c"))

	out, err := p.Run("doc", "")
	require.NoError(t, err)
	assert.Equal(t, "abc", out)
}

func TestPipeline_StopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	var ranAfter bool
	p := NewWithRules(nil,
		Rule{Name: "first", Apply: identity},
		Rule{Name: "broken", Apply: func(string) (string, error) { return "", boom }},
		Rule{Name: "after", Apply: func(src string) (string, error) { ranAfter = true; return src, nil }},
	)

	out, err := p.Run("doc.pd", "text")
	require.Error(t, err)
	assert.Empty(t, out, "no partial output on failure")
	assert.False(t, ranAfter, "rules after a failure must not run")
	assert.ErrorIs(t, err, boom)

	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "broken", ruleErr.Rule)
	assert.Equal(t, "doc.pd", ruleErr.Document)
	assert.Equal(t, "doc.pd: rule broken: boom", err.Error())
}

func TestPipeline_MalformedDictionaryAborts(t *testing.T) {
	src := "function main() {\n    Mixed[str] bad = [\"a\" 1];\n}\n"

	_, err := New(nil).Run("bad.pd", src)
	require.Error(t, err)

	var perr *grammar.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Position().Line)
	assert.Contains(t, err.Error(), "rule dictionaries")
	assert.Contains(t, err.Error(), "expected ':'")
}

func TestPipeline_ScenarioA(t *testing.T) {
	out, err := New(nil).Run("a.pd", `Mixed[str] config = ["width": 100, "height": "200"];`)
	require.NoError(t, err)

	body := strings.TrimPrefix(out, strings.Join(Preamble, "\n")+"\n\n")
	assert.Equal(t, "Mixed[str] config;\nconfig[\"height\"] = \"200\";", body)
}

func TestPipeline_CRLFDictionary(t *testing.T) {
	src := "function main() {\r\n    Mixed[str] config = [\"width\": 100, \"height\": \"200\"];\r\n}\r\n"

	out, err := New(nil).Run("crlf.pd", src)
	require.NoError(t, err)
	assert.NotContains(t, out, "= [")
	assert.Contains(t, out, "    Mixed[str] config;\r\n    config[\"height\"] = \"200\";\r\n}")
}

func TestPipeline_ScenarioB(t *testing.T) {
	out, err := New(nil).Run("b.pd", "function area(copy Rectangle r, out int result)")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\nauto area(in Rectangle r, ref int result)"), "got: %s", out)
}

func TestPipeline_ScenarioC(t *testing.T) {
	out, err := New(nil).Run("c.pd", "choice (a and b):")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\nif (a && b)"), "got: %s", out)
}

func TestPipeline_ScenarioD(t *testing.T) {
	out, err := New(nil).Run("d.pd", "var total = counts;")
	require.NoError(t, err)
	assert.NotContains(t, out, "auto total = counts;")
	assert.True(t, strings.HasSuffix(out,
		"\nmixin(\"auto total = \", __traits(compiles, counts.length) ? \"counts.dup\" : \"counts\", \";\");"),
		"got: %s", out)
}

func identity(src string) (string, error) { return src, nil }

func TestPipeline_LogsEachRule(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()

	_, err := New(logger).Run("logged.pd", "var x = y;")
	require.NoError(t, err)

	out := logs.String()
	for _, r := range DefaultRules() {
		assert.Contains(t, out, "rule="+r.Name)
	}
	assert.Contains(t, out, "document=logged.pd")
	assert.Contains(t, out, "changed=true")
}
