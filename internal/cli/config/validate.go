package config

import (
	"fmt"

	sharedcfg "github.com/leapstack-labs/pseudod/internal/config"
)

var validOutputs = map[string]bool{
	"":         true,
	"auto":     true,
	"text":     true,
	"markdown": true,
	"json":     true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Compile && c.Compiler == "" {
		return fmt.Errorf("compiler is required when compile is enabled\nHint: set compiler in %s or pass --no-compile", ConfigFileName)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if !validOutputs[c.OutputFormat] {
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	if err := sharedcfg.ValidateExtensions(c.SourceExt, c.TargetExt); err != nil {
		return fmt.Errorf("invalid extensions: %w", err)
	}
	return nil
}
