package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"specforge/internal/app"
	"specforge/internal/cli"
)

// main is the entrypoint for the specforge command.
func main() {
	// Optional .env file for SPECFORGE_* defaults; absence is fine.
	_ = godotenv.Load()

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run holds the main logic so tests can drive it with their own writer and
// arguments.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	application, err := app.NewApp(outW, cfg)
	if err != nil {
		return err
	}
	return application.Run(context.Background())
}
