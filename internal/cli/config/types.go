// Package config provides configuration management for the pseudod CLI.
//
// Values are layered with koanf: defaults, then pseudod.yaml, then PSEUDOD_*
// environment variables, then explicitly set flags.
package config

import (
	sharedcfg "github.com/leapstack-labs/pseudod/internal/config"
)

// Config holds all CLI configuration options.
type Config struct {
	Compiler     string   `koanf:"compiler"`
	CompilerArgs []string `koanf:"compiler_args"`
	Compile      bool     `koanf:"compile"`
	SourceExt    string   `koanf:"source_ext"`
	TargetExt    string   `koanf:"target_ext"`
	Cache        bool     `koanf:"cache"`
	CachePath    string   `koanf:"cache_path"`
	Jobs         int      `koanf:"jobs"`
	Strict       bool     `koanf:"strict"`
	Verbose      bool     `koanf:"verbose"`
	OutputFormat string   `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultSourceExt = sharedcfg.DefaultSourceExt
	DefaultTargetExt = sharedcfg.DefaultTargetExt
	DefaultCachePath = sharedcfg.DefaultCachePath
	DefaultJobs      = sharedcfg.DefaultJobs
	DefaultOutput    = sharedcfg.DefaultOutput
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "pseudod.yaml"
	ConfigFileNameAlt = "pseudod.yml"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "PSEUDOD_"

// CacheEnabled reports whether builds should use the state store.
func (c *Config) CacheEnabled() bool {
	return c.Cache && c.CachePath != ""
}

// BuildSettings converts the CLI view into the shared build settings.
func (c *Config) BuildSettings() sharedcfg.Build {
	b := sharedcfg.Build{
		Compiler:     c.Compiler,
		CompilerArgs: c.CompilerArgs,
		Compile:      c.Compile,
		SourceExt:    c.SourceExt,
		TargetExt:    c.TargetExt,
		Jobs:         c.Jobs,
	}
	sharedcfg.ApplyDefaults(&b)
	return b
}
