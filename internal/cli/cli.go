// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"specforge/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating the program should exit cleanly (help shown, no work),
// or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("specforge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
specforge - an incremental build orchestrator for spec workspaces.

Usage:
  specforge [options] [WORKSPACE_PATH]

Arguments:
  WORKSPACE_PATH
    Path to a directory containing .hcl spec files (or a single file).

Options:
`)
		flagSet.PrintDefaults()
	}

	workspaceFlag := flagSet.String("workspace", "", "Path to the spec workspace.")
	wFlag := flagSet.String("w", "", "Path to the spec workspace (shorthand).")
	outFlag := flagSet.String("out", envOr("SPECFORGE_OUT", "build"), "Build output directory; the manifest is kept inside it.")
	workersFlag := flagSet.Int("workers", envIntOr("SPECFORGE_WORKERS", 4), "Number of concurrent workers per build level.")
	retriesFlag := flagSet.Int("retries", 2, "Producer retry attempts before a spec is marked failed.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the rebuild plan with reasons instead of building.")
	affectedFlag := flagSet.String("affected", "", "Print the specs affected by a change to the named spec, in build order.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *workspaceFlag != "" {
		path = *workspaceFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		WorkspacePath: path,
		OutDir:        *outFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		Workers:       *workersFlag,
		Retries:       *retriesFlag,
		DryRun:        *dryRunFlag,
		Affected:      *affectedFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
