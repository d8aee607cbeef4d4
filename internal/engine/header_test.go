package engine

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryHeader = `/*---
compile: false
---*/
function twice(Type x) {
    return x + x;
}
`

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		wantHeader  bool
		wantCompile bool
		wantErr     string
	}{
		{name: "no header", src: helloSource, wantHeader: false, wantCompile: true},
		{name: "compile false", src: libraryHeader, wantHeader: true, wantCompile: false},
		{name: "compile true", src: "/*---\ncompile: true\n---*/\n", wantHeader: true, wantCompile: true},
		{name: "empty block", src: "/*---\n---*/\nvar x = 1;\n", wantHeader: true, wantCompile: true},
		{name: "leading blank lines", src: "\n\n/*---\ncompile: false\n---*/\n", wantHeader: true, wantCompile: false},
		{name: "ordinary comment", src: "/* notes */\n" + helloSource, wantHeader: false, wantCompile: true},
		{name: "not at the top", src: helloSource + "/*---\ncompile: false\n---*/\n", wantHeader: false, wantCompile: true},
		{name: "unknown field", src: "/*---\noptimize: true\n---*/\n", wantErr: "optimize"},
		{name: "bad yaml", src: "/*---\ncompile: [\n---*/\n", wantErr: "invalid document header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader("doc.pd", tt.src)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var herr *HeaderError
				assert.ErrorAs(t, err, &herr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, h != nil)
			assert.Equal(t, tt.wantCompile, h.CompileEnabled())
		})
	}
}

func TestBuild_HeaderSkipsCompile(t *testing.T) {
	fc := &fakeCompiler{}
	eng := newTestEngine(t, fc, false)
	path := writeSource(t, t.TempDir(), "lib.pd", libraryHeader)

	res, err := eng.Build(context.Background(), path, BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, "not-compiled", res.Outcome())
	assert.Empty(t, fc.calls())

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "/*---\ncompile: false\n---*/")
	assert.Contains(t, out, "auto twice(Type)(const Type x)")
}

func TestBuild_BadHeader(t *testing.T) {
	fc := &fakeCompiler{}
	eng := newTestEngine(t, fc, true)
	path := writeSource(t, t.TempDir(), "lib.pd", "/*---\nflavour: d\n---*/\n"+helloSource)

	res, err := eng.Build(context.Background(), path, BuildOptions{})
	require.NoError(t, err)
	require.Error(t, res.Err)
	assert.Equal(t, "rewrite-failed", res.Outcome())
	assert.NoFileExists(t, res.Output)
	assert.Empty(t, fc.calls())

	history, err := eng.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Message, "invalid document header")
}
