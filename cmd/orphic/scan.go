package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/panbanda/orphic/internal/output"
	"github.com/panbanda/orphic/internal/progress"
	"github.com/panbanda/orphic/internal/service/analysis"
	"github.com/panbanda/orphic/pkg/config"
	"github.com/urfave/cli/v2"
)

// exitOrphansFound is returned by --fail-on-orphans when orphans exist.
const exitOrphansFound = 2

func scanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "entry",
			Aliases: []string{"e"},
			Usage:   "Function never reported as an orphan (repeatable), e.g. main",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of files processed in parallel (0 = config or CPU count)",
		},
		&cli.StringFlag{
			Name:  "rev",
			Usage: "Analyze a git revision instead of the working tree (e.g. HEAD~1)",
		},
		&cli.BoolFlag{
			Name:  "orphans-only",
			Usage: "Only print orphans and the summary",
		},
		&cli.BoolFlag{
			Name:  "fail-on-orphans",
			Usage: "Exit with status 2 when orphans are found",
		},
		&cli.BoolFlag{
			Name:  "prototypes-as-calls",
			Usage: "Count function prototypes as uses",
		},
	}
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Report functions that are defined but never called",
		ArgsUsage: "[path...]",
		Description: `Scans the given files and directories (default: current directory) for
.c and .h files and prints defined functions, called functions and orphans.

Examples:
  orphic scan src                       # Full report for src/
  orphic scan src include -e main       # Treat main as an entry point
  orphic scan --orphans-only -f json .  # Machine-readable orphan list
  orphic scan --rev HEAD~1 src          # Analyze the previous commit
  orphic scan --fail-on-orphans src     # Exit 2 when orphans exist (CI)`,
		Flags:  append(globalFlags(), scanFlags()...),
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	args := splitArgs(c.Args().Slice())

	cfg, err := loadConfig(c, args, "")
	if err != nil {
		return err
	}
	format, err := outputFormat(c, args, cfg)
	if err != nil {
		return err
	}
	opts, err := orphanOptions(c, args)
	if err != nil {
		return err
	}
	opts.Rev = stringFlag(c, args, "rev")

	var spinner, tracker *progress.Tracker
	if c.App.ErrWriter == os.Stderr && interactive() {
		spinner = progress.NewSpinner("Discovering files...")
		opts.OnDiscovered = func(total int) {
			spinner.FinishSuccess()
			spinner = nil
			tracker = progress.NewTracker("Analyzing files...", total)
		}
		opts.OnProgress = func() { tracker.Tick() }
	}

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(appLogger(c)))
	result, err := svc.FindOrphans(c.Context, opts)
	spinner.FinishSuccess()
	if result != nil {
		printSkipped(c, result)
	}
	if errors.Is(err, analysis.ErrNoFiles) {
		tracker.FinishError(err)
		return cli.Exit("No .c or .h files to analyze", 1)
	}
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	if err := writeReport(c, args, cfg, format, result); err != nil {
		return err
	}

	if boolFlag(c, args, "fail-on-orphans") && result.Report.HasOrphans() {
		return cli.Exit("", exitOrphansFound)
	}
	return nil
}

func writeReport(c *cli.Context, args cliArgs, cfg *config.Config, format output.Format, result *analysis.Result) error {
	formatter, err := newFormatter(c, args, cfg, format)
	if err != nil {
		return err
	}
	defer formatter.Close()

	report := output.OrphanReport(result.Report, output.OrphanOptions{
		OrphansOnly: boolFlag(c, args, "orphans-only"),
		Colored:     formatter.Colored(),
	})
	return formatter.Output(report)
}

// printSkipped reports unusable arguments on stderr so that stdout stays a
// clean report.
func printSkipped(c *cli.Context, result *analysis.Result) {
	for _, sk := range result.Skipped {
		fmt.Fprintln(c.App.ErrWriter, color.YellowString("Skipping '%s': %s", sk.Path, sk.Reason))
	}
}
