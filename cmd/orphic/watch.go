package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/orphic/internal/service/analysis"
	"github.com/panbanda/orphic/pkg/watch"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-run the orphan report whenever a .c or .h file changes",
		ArgsUsage: "[path]",
		Description: `Runs an initial scan of the directory (default: current directory), then
watches it recursively and prints a fresh report after each batch of changes.

Examples:
  orphic watch src -e main
  orphic watch --orphans-only --debounce 2s .`,
		Flags: append(globalFlags(),
			&cli.StringSliceFlag{
				Name:    "entry",
				Aliases: []string{"e"},
				Usage:   "Function never reported as an orphan (repeatable)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of files processed in parallel",
			},
			&cli.BoolFlag{
				Name:  "orphans-only",
				Usage: "Only print orphans and the summary",
			},
			&cli.BoolFlag{
				Name:  "prototypes-as-calls",
				Usage: "Count function prototypes as uses",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before re-running after a change",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	args := splitArgs(c.Args().Slice())
	paths := args.getPaths()
	if len(paths) > 1 {
		return fmt.Errorf("watch takes a single directory, got %d paths", len(paths))
	}
	root := paths[0]

	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	cfg, err := loadConfig(c, args, root)
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

	logger := appLogger(c)
	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyze := func() {
		result, err := svc.FindOrphans(ctx, opts)
		if result != nil {
			printSkipped(c, result)
		}
		switch {
		case errors.Is(err, analysis.ErrNoFiles):
			fmt.Fprintln(c.App.ErrWriter, color.YellowString("No .c or .h files to analyze"))
		case err != nil:
			fmt.Fprintln(c.App.ErrWriter, color.RedString("Error: %v", err))
		default:
			if err := writeReport(c, args, cfg, format, result); err != nil {
				fmt.Fprintln(c.App.ErrWriter, color.RedString("Error: %v", err))
			}
		}
	}

	watcher, err := watch.NewWatcher(root, cfg, c.Duration("debounce"))
	if err != nil {
		return err
	}
	defer watcher.Stop()

	watcher.SetLogger(logger)
	watcher.SetOutput(c.App.ErrWriter)
	watcher.SetCallback(func(changed []string) {
		logger.WithField("dirs", len(watcher.WatchedDirs())).Debug("change batch")
		fmt.Fprintln(c.App.ErrWriter, color.YellowString("Changed: %s", strings.Join(changed, ", ")))
		analyze()
	})

	analyze()

	err = watcher.Start(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(c.App.ErrWriter, "\nStopping watch...")
		return nil
	}
	return err
}
