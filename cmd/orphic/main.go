package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.Run(args)
	return exitStatus(stderr, err)
}

func exitStatus(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(stderr, color.RedString(msg))
		}
		return exitErr.ExitCode()
	}
	fmt.Fprintln(stderr, color.RedString("Error: %v", err))
	return 1
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "orphic",
		Usage:     "Find C functions that are defined but never called",
		UsageText: "orphic [global options] [scan options] [path ...]",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Metadata:  make(map[string]interface{}),
		Description: `Orphic reads .c and .h files, collects every function definition and
every call site, and reports the functions that are defined but never called
anywhere in the analyzed set.

Analysis is lexical: comments, string literals and character literals are
ignored, and no preprocessing is performed.`,
		Flags:          append(globalFlags(), scanFlags()...),
		Before:         setupLogger,
		Action:         runScanCmd,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			scanCmd(),
			watchCmd(),
			initCmd(),
			configCmd(),
			mcpCmd(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (TOML, YAML, or JSON)",
			EnvVars: []string{"ORPHIC_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon (default from config, text)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable caching",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable verbose output",
		},
	}
}

// setupLogger stores the diagnostics logger in the app metadata. A trailing
// --verbose is honored even though urfave/cli has not parsed it.
func setupLogger(c *cli.Context) error {
	verbose := c.Bool("verbose")
	if !verbose {
		verbose = splitArgs(c.Args().Slice()).bools["verbose"]
	}
	c.App.Metadata[metaLogger] = newLogger(c.App.ErrWriter, verbose)
	return nil
}
