package app

import "errors"

// Config holds everything an App instance needs to run one invocation.
type Config struct {
	WorkspacePath string // directory of .hcl spec files
	OutDir        string // build output directory; the manifest lives inside it

	LogFormat string
	LogLevel  string
	Workers   int
	Retries   int

	DryRun   bool   // print the rebuild plan with reasons instead of building
	Affected string // report the affected set of this spec instead of building
}

// NewConfig validates a Config and applies floor values.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkspacePath == "" {
		return nil, errors.New("WorkspacePath is a required configuration field and cannot be empty")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("OutDir is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &cfg, nil
}
