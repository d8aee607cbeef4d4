package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	sharedcfg "github.com/leapstack-labs/pseudod/internal/config"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// negatedFlags maps "--no-x" style flags onto the positive config key.
var negatedFlags = map[string]string{
	"no_compile": "compile",
	"no_cache":   "cache",
}

// envVarPattern matches ${VAR} references.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Defaults returns a Config with every default applied and no file, env or flags read.
func Defaults() *Config {
	cwd, _ := os.Getwd()
	return &Config{
		Compiler:     sharedcfg.DefaultCompiler(),
		Compile:      true,
		SourceExt:    DefaultSourceExt,
		TargetExt:    DefaultTargetExt,
		Cache:        true,
		CachePath:    resolvePathRelativeTo(DefaultCachePath, cwd),
		Jobs:         DefaultJobs,
		OutputFormat: DefaultOutput,
		ProjectRoot:  cwd,
	}
}

func defaultValues() map[string]interface{} {
	return map[string]interface{}{
		"compiler":      sharedcfg.DefaultCompiler(),
		"compiler_args": []string{},
		"compile":       true,
		"source_ext":    DefaultSourceExt,
		"target_ext":    DefaultTargetExt,
		"cache":         true,
		"cache_path":    DefaultCachePath,
		"jobs":          DefaultJobs,
		"strict":        false,
		"verbose":       false,
		"output":        DefaultOutput,
	}
}

// configIn returns the config file in dir, or "" when there is none.
func configIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a pseudod config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configIn(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit --config file
//  2. Search upward from CWD for pseudod.yaml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(cfgFile)
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := findProjectRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile)

	// A --cache-path flag is relative to CWD, not the project root.
	var flagCachePath string
	if flags != nil && flags.Changed("cache-path") {
		if v, _ := flags.GetString("cache-path"); v != "" {
			flagCachePath, _ = filepath.Abs(v)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
	} else {
		configFileUsed = configIn(projectRoot)
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (PSEUDOD_ prefix)
	// Transform: PSEUDOD_CACHE_PATH -> cache_path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")

			if positive, ok := negatedFlags[key]; ok {
				v, _ := flags.GetBool(f.Name)
				return positive, !v
			}
			// --compiler-arg is repeatable; the key is plural
			if key == "compiler_arg" {
				return "compiler_args", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Normalize and resolve
	cfg.ProjectRoot = projectRoot
	cfg.Compiler = expandEnvVars(strings.TrimSpace(cfg.Compiler))
	for i, arg := range cfg.CompilerArgs {
		cfg.CompilerArgs[i] = expandEnvVars(arg)
	}
	cfg.SourceExt = sharedcfg.NormalizeExt(cfg.SourceExt)
	cfg.TargetExt = sharedcfg.NormalizeExt(cfg.TargetExt)
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	if flagCachePath != "" {
		cfg.CachePath = flagCachePath
	} else {
		cfg.CachePath = resolvePathRelativeTo(expandEnvVars(cfg.CachePath), projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
