package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/pseudod/internal/compiler"
	"github.com/leapstack-labs/pseudod/internal/rewrite"
	"github.com/leapstack-labs/pseudod/internal/state"
	"github.com/leapstack-labs/pseudod/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloSource = `function main() {
    var greeting = "hello";
    print(greeting);
}
`

const badDictionarySource = `function main() {
    Mixed[str] m = ["a" 1];
}
`

// fakeCompiler records the files it was asked to compile.
type fakeCompiler struct {
	mu      sync.Mutex
	name    string
	files   []string
	outcome compiler.Outcome
	text    string
	err     error
}

func (f *fakeCompiler) String() string { return f.name }

func (f *fakeCompiler) Compile(_ context.Context, file string) (*compiler.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, file)
	if f.err != nil {
		return nil, f.err
	}
	return &compiler.Result{File: file, Command: "fake " + filepath.Base(file), Outcome: f.outcome, Text: f.text}, nil
}

func (f *fakeCompiler) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.files...)
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestEngine(t *testing.T, fc *fakeCompiler, withStore bool) *Engine {
	t.Helper()
	cfg := Config{
		Compile:  fc != nil,
		Logger:   testutil.NewTestLogger(t),
		Debounce: 20 * time.Millisecond,
	}
	if fc != nil {
		cfg.Compiler = fc
	}
	if withStore {
		store, err := state.OpenAndMigrate(":memory:", testutil.NewTestLogger(t))
		require.NoError(t, err)
		cfg.Store = store
	}
	eng, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		eng, err := New(Config{})
		require.NoError(t, err)
		assert.Equal(t, ".d", eng.TargetExt())
		assert.Equal(t, ".pd", eng.sourceExt)
		assert.Equal(t, 4, eng.jobs)
		assert.Equal(t, DefaultDebounce, eng.debounce)
		assert.NotNil(t, eng.Pipeline())
		assert.Nil(t, eng.Store())
		assert.NoError(t, eng.Close())
	})

	t.Run("compile without compiler", func(t *testing.T) {
		_, err := New(Config{Compile: true})
		require.Error(t, err)
	})

	t.Run("clashing extensions", func(t *testing.T) {
		_, err := New(Config{SourceExt: ".d", TargetExt: ".d"})
		require.Error(t, err)
	})
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"ordinary", "prog.pd", ""},
		{"any other extension", "prog.txt", ""},
		{"no extension", "prog", ""},
		{"empty", "", "no input file"},
		{"target extension", "prog.d", "bad file type"},
		{"target extension upper case", "prog.D", "bad file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(tt.path, ".d")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsUsageError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "prog.d", OutputPath("prog.pd", ".d"))
	assert.Equal(t, filepath.Join("a", "b", "prog.d"), OutputPath(filepath.Join("a", "b", "prog.pd"), ".d"))
	assert.Equal(t, "prog.d", OutputPath("prog", ".d"))
	assert.Equal(t, "v1.2.d", OutputPath("v1.2.txt", ".d"))
}

func TestExpandSources(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.pd", helloSource)
	b := writeSource(t, dir, filepath.Join("sub", "b.pd"), helloSource)
	writeSource(t, dir, "notes.txt", "x")
	writeSource(t, dir, "a.d", "generated")
	writeSource(t, dir, filepath.Join(".hidden", "c.pd"), helloSource)
	other := writeSource(t, t.TempDir(), "other.txt", helloSource)

	t.Run("directory walk", func(t *testing.T) {
		got, err := ExpandSources([]string{dir}, ".pd", ".d")
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, got)
	})

	t.Run("explicit file with any extension", func(t *testing.T) {
		got, err := ExpandSources([]string{other, a, a}, ".pd", ".d")
		require.NoError(t, err)
		assert.Equal(t, []string{other, a}, got)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ExpandSources(nil, ".pd", ".d")
		assert.True(t, IsUsageError(err))

		_, err = ExpandSources([]string{filepath.Join(dir, "a.d")}, ".pd", ".d")
		assert.True(t, IsUsageError(err))

		_, err = ExpandSources([]string{filepath.Join(dir, "missing.pd")}, ".pd", ".d")
		assert.True(t, IsUsageError(err))

		_, err = ExpandSources([]string{t.TempDir()}, ".pd", ".d")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no .pd files found")
	})
}

func TestEngine_RenderFile(t *testing.T) {
	eng := newTestEngine(t, nil, false)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	out, err := eng.RenderFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, strings.Join(rewrite.Preamble, "\n")+"\n\n"))
	assert.Contains(t, out, "void main() {")
	assert.Contains(t, out, `auto greeting = "hello";`)

	_, err = os.Stat(OutputPath(path, ".d"))
	assert.True(t, os.IsNotExist(err), "render must not write output")

	_, err = eng.RenderFile("x.d")
	assert.True(t, IsUsageError(err))
}

func TestEngine_Build(t *testing.T) {
	fc := &fakeCompiler{outcome: compiler.OutcomeSilent}
	eng := newTestEngine(t, fc, false)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	res, err := eng.Build(context.Background(), path, BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, OutputPath(path, ".d"), res.Output)
	assert.Equal(t, "ok", res.Outcome())
	assert.False(t, res.Failed())
	assert.Equal(t, []string{res.Output}, fc.calls())

	written, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	want, err := eng.Render(path, helloSource)
	require.NoError(t, err)
	assert.Equal(t, want, string(written))
}

func TestEngine_BuildUsageError(t *testing.T) {
	fc := &fakeCompiler{}
	eng := newTestEngine(t, fc, false)

	_, err := eng.Build(context.Background(), "prog.d", BuildOptions{})
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
	assert.Empty(t, fc.calls(), "compiler must not run")
}

func TestEngine_BuildWithoutCompile(t *testing.T) {
	eng := newTestEngine(t, nil, false)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	res, err := eng.Build(context.Background(), path, BuildOptions{})
	require.NoError(t, err)
	assert.Nil(t, res.Compile)
	assert.Equal(t, state.OutcomeNotCompiled, res.Outcome())
	assert.FileExists(t, res.Output)
}

func TestEngine_BuildRewriteFailure(t *testing.T) {
	fc := &fakeCompiler{}
	eng := newTestEngine(t, fc, true)
	path := writeSource(t, t.TempDir(), "bad.pd", badDictionarySource)

	res, err := eng.Build(context.Background(), path, BuildOptions{})
	require.NoError(t, err)
	require.Error(t, res.Err)

	var ruleErr *rewrite.RuleError
	require.ErrorAs(t, res.Err, &ruleErr)
	assert.Equal(t, "dictionaries", ruleErr.Rule)
	assert.True(t, res.Failed())
	assert.Equal(t, state.OutcomeRewriteFailed, res.Outcome())

	assert.NoFileExists(t, res.Output, "no output on rewrite failure")
	assert.Empty(t, fc.calls())

	last, err := eng.Store().LastBuild(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, state.OutcomeRewriteFailed, last.Outcome)
	assert.Contains(t, last.Message, "dictionaries")
}

func TestEngine_BuildCompilerOutcomes(t *testing.T) {
	tests := []struct {
		outcome compiler.Outcome
		failed  bool
	}{
		{compiler.OutcomeSilent, false},
		{compiler.OutcomeStdout, false},
		{compiler.OutcomeStderr, true},
		{compiler.OutcomeProcessError, true},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			fc := &fakeCompiler{outcome: tt.outcome, text: "compiler said something"}
			eng := newTestEngine(t, fc, false)
			path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

			res, err := eng.Build(context.Background(), path, BuildOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.outcome.String(), res.Outcome())
			assert.Equal(t, tt.failed, res.Failed())
		})
	}
}

func TestEngine_BuildCompilerCancelled(t *testing.T) {
	fc := &fakeCompiler{err: context.Canceled}
	eng := newTestEngine(t, fc, false)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	_, err := eng.Build(context.Background(), path, BuildOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Cache(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCompiler{outcome: compiler.OutcomeSilent}
	eng := newTestEngine(t, fc, true)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	first, err := eng.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := eng.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.True(t, second.Cached, "unchanged source is skipped")
	assert.Equal(t, "cached", second.Outcome())
	assert.Len(t, fc.calls(), 1)

	forced, err := eng.Build(ctx, path, BuildOptions{Force: true})
	require.NoError(t, err)
	assert.False(t, forced.Cached)
	assert.Len(t, fc.calls(), 2)

	// Deleting the output invalidates the cache.
	require.NoError(t, os.Remove(forced.Output))
	again, err := eng.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.False(t, again.Cached)

	// Changing the source invalidates the cache.
	require.NoError(t, os.WriteFile(path, []byte(helloSource+"\n"), 0600))
	changed, err := eng.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.False(t, changed.Cached)
	assert.NotEqual(t, first.Hash, changed.Hash)

	history, err := eng.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 4, "cached builds are not recorded")
}

func TestEngine_CacheRetriesFailedCompile(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCompiler{outcome: compiler.OutcomeStderr, text: "Error: undefined identifier"}
	eng := newTestEngine(t, fc, true)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	_, err := eng.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	res, err := eng.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)

	assert.False(t, res.Cached, "a failed compile is never treated as current")
	assert.Len(t, fc.calls(), 2)
}

func TestEngine_CacheKeyIncludesPipeline(t *testing.T) {
	a := contentHash(rewrite.New(nil).Fingerprint(), "", helloSource)
	b := contentHash(rewrite.NewWithRules(nil, rewrite.DefaultRules()[:2]...).Fingerprint(), "", helloSource)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestEngine_CacheKeyIncludesCompiler(t *testing.T) {
	fp := rewrite.New(nil).Fingerprint()
	off := contentHash(fp, "", helloSource)
	dmd := contentHash(fp, "compile dmd", helloSource)
	optimized := contentHash(fp, "compile dmd -O", helloSource)

	assert.NotEqual(t, off, dmd)
	assert.NotEqual(t, dmd, optimized)
	assert.Equal(t, dmd, contentHash(fp, "compile dmd", helloSource))
}

// sharedStoreEngines returns a constructor for engines that share one build cache.
func sharedStoreEngines(t *testing.T) func(fc *fakeCompiler) *Engine {
	t.Helper()
	store, err := state.OpenAndMigrate(":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return func(fc *fakeCompiler) *Engine {
		cfg := Config{Store: store, Logger: testutil.NewTestLogger(t)}
		if fc != nil {
			cfg.Compile = true
			cfg.Compiler = fc
		}
		eng, err := New(cfg)
		require.NoError(t, err)
		return eng
	}
}

func TestEngine_CompilesAfterUncompiledBuild(t *testing.T) {
	ctx := context.Background()
	newEngine := sharedStoreEngines(t)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	res, err := newEngine(nil).Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "not-compiled", res.Outcome())

	fc := &fakeCompiler{name: "dmd", outcome: compiler.OutcomeSilent}
	compiling := newEngine(fc)
	res, err = compiling.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.False(t, res.Cached, "an output that was never compiled is not current")
	assert.Equal(t, "ok", res.Outcome())
	assert.Len(t, fc.calls(), 1)

	res, err = compiling.Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Len(t, fc.calls(), 1)
}

func TestEngine_RecompilesWhenCompilerChanges(t *testing.T) {
	ctx := context.Background()
	newEngine := sharedStoreEngines(t)
	path := writeSource(t, t.TempDir(), "hello.pd", helloSource)

	plain := &fakeCompiler{name: "dmd", outcome: compiler.OutcomeSilent}
	_, err := newEngine(plain).Build(ctx, path, BuildOptions{})
	require.NoError(t, err)

	optimized := &fakeCompiler{name: "dmd -O", outcome: compiler.OutcomeSilent}
	res, err := newEngine(optimized).Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Len(t, optimized.calls(), 1)

	// Going back to no compilation after a compiled build rewrites once too.
	res, err = newEngine(nil).Build(ctx, path, BuildOptions{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "not-compiled", res.Outcome())
}

func TestEngine_BuildAll(t *testing.T) {
	fc := &fakeCompiler{outcome: compiler.OutcomeSilent}
	eng := newTestEngine(t, fc, true)
	dir := t.TempDir()

	var paths []string
	for _, name := range []string{"a.pd", "b.pd", "c.pd", "d.pd", "e.pd", "f.pd"} {
		paths = append(paths, writeSource(t, dir, name, helloSource))
	}
	bad := writeSource(t, dir, "bad.pd", badDictionarySource)
	paths = append(paths, bad)

	results, err := eng.BuildAll(context.Background(), paths, BuildOptions{})
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for i, r := range results {
		assert.Equal(t, paths[i], r.Source, "results keep input order")
	}
	assert.Len(t, fc.calls(), 6)

	joined := ResultErrors(results)
	require.Error(t, joined)
	assert.Contains(t, joined.Error(), "bad.pd")
	assert.NoError(t, ResultErrors(results[:6]))
}

func TestEngine_BuildAllValidatesFirst(t *testing.T) {
	fc := &fakeCompiler{}
	eng := newTestEngine(t, fc, false)
	good := writeSource(t, t.TempDir(), "good.pd", helloSource)

	_, err := eng.BuildAll(context.Background(), []string{good, "other.d"}, BuildOptions{})
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
	assert.NoFileExists(t, OutputPath(good, ".d"), "nothing is transformed after a usage error")
}

func TestEngine_Watch(t *testing.T) {
	fc := &fakeCompiler{outcome: compiler.OutcomeSilent}
	eng := newTestEngine(t, fc, false)
	dir := t.TempDir()
	path := writeSource(t, dir, "hello.pd", helloSource)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan *BuildResult, 16)
	done := make(chan error, 1)
	go func() {
		done <- eng.Watch(ctx, []string{dir}, BuildOptions{}, func(res *BuildResult) {
			reports <- res
		})
	}()

	waitReport := func() *BuildResult {
		select {
		case r := <-reports:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for build")
			return nil
		}
	}

	initial := waitReport()
	assert.Equal(t, path, initial.Source)

	// Give the watcher a moment, then change the source.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(badDictionarySource), 0600))

	// A write may be observed in more than one burst; wait for the final content.
	rebuilt := waitReport()
	for rebuilt.Err == nil {
		rebuilt = waitReport()
	}
	assert.Equal(t, path, rebuilt.Source)
	assert.Contains(t, rebuilt.Err.Error(), "dictionaries")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestEngine_WatchUsageError(t *testing.T) {
	eng := newTestEngine(t, nil, false)
	err := eng.Watch(context.Background(), []string{"x.d"}, BuildOptions{}, func(*BuildResult) {})
	assert.True(t, IsUsageError(err))
}

func TestUsageError(t *testing.T) {
	err := error(&UsageError{Path: "a.d", Msg: "bad file type"})
	assert.Equal(t, "a.d: bad file type", err.Error())
	assert.Equal(t, "no input", (&UsageError{Msg: "no input"}).Error())
	assert.True(t, IsUsageError(errors.Join(errors.New("x"), err)))
}
