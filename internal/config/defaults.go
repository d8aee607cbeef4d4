// Package config holds the defaults and shared settings used by the engine and
// the CLI. It carries no CLI concerns so other tools can build an engine
// configuration without cobra or koanf.
package config

import (
	"fmt"
	"strings"

	"github.com/xyproto/env/v2"
)

// Default configuration values.
const (
	DefaultSourceExt    = ".pd"
	DefaultTargetExt    = ".d"
	DefaultCachePath    = ".pseudod/state.db"
	DefaultJobs         = 4
	DefaultCompilerName = "dmd"
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
)

// CompilerEnvVar is the conventional variable naming the D compiler.
const CompilerEnvVar = "DC"

// DefaultCompiler returns $DC when set, otherwise dmd.
func DefaultCompiler() string {
	return env.Str(CompilerEnvVar, DefaultCompilerName)
}

// Build holds the settings that shape a build, independent of where they came from.
type Build struct {
	Compiler     string
	CompilerArgs []string
	Compile      bool
	SourceExt    string
	TargetExt    string
	Jobs         int
}

// DefaultBuild returns a Build with every default applied.
func DefaultBuild() Build {
	return Build{
		Compiler:  DefaultCompiler(),
		Compile:   true,
		SourceExt: DefaultSourceExt,
		TargetExt: DefaultTargetExt,
		Jobs:      DefaultJobs,
	}
}

// ApplyDefaults fills unset fields of b.
func ApplyDefaults(b *Build) {
	if b == nil {
		return
	}
	if b.Compiler == "" {
		b.Compiler = DefaultCompiler()
	}
	if b.SourceExt == "" {
		b.SourceExt = DefaultSourceExt
	}
	if b.TargetExt == "" {
		b.TargetExt = DefaultTargetExt
	}
	if b.Jobs <= 0 {
		b.Jobs = DefaultJobs
	}
}

// NormalizeExt returns ext with a single leading dot, or "" for an empty ext.
func NormalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	return "." + strings.TrimLeft(ext, ".")
}

// ValidateExtensions checks that source and target extensions are usable and distinct.
func ValidateExtensions(sourceExt, targetExt string) error {
	if targetExt == "" || targetExt == "." {
		return fmt.Errorf("target_ext must not be empty")
	}
	if sourceExt == "." {
		return fmt.Errorf("source_ext must not be a bare '.'")
	}
	if strings.ContainsAny(targetExt, `/\`) || strings.ContainsAny(sourceExt, `/\`) {
		return fmt.Errorf("extensions must not contain path separators")
	}
	if strings.EqualFold(sourceExt, targetExt) {
		return fmt.Errorf("source_ext and target_ext are both %q", targetExt)
	}
	return nil
}
