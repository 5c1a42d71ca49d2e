package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/panbanda/orphic/internal/output"
	"github.com/panbanda/orphic/internal/service/analysis"
	"github.com/panbanda/orphic/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const metaLogger = "logger"

// valueFlags maps every flag name and alias that takes a value to its
// canonical name. Anything else starting with "-" is treated as a boolean.
var valueFlags = map[string]string{
	"config":  "config",
	"c":       "config",
	"format":  "format",
	"f":       "format",
	"output":  "output",
	"o":       "output",
	"entry":   "entry",
	"e":       "entry",
	"workers": "workers",
	"rev":     "rev",
}

// cliArgs is the positional arguments of a command with any flags that were
// written after them. urfave/cli stops parsing flags at the first positional
// argument, so "orphic src --entry main" leaves "--entry main" in Args.
type cliArgs struct {
	paths  []string
	values map[string][]string
	bools  map[string]bool
}

func splitArgs(args []string) cliArgs {
	a := cliArgs{values: map[string][]string{}, bools: map[string]bool{}}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			a.paths = append(a.paths, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			a.paths = append(a.paths, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		value, hasValue := "", false
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, value, hasValue = name[:eq], name[eq+1:], true
		}

		canonical, takesValue := valueFlags[name]
		if !takesValue {
			a.bools[name] = !hasValue || value == "true"
			continue
		}
		if !hasValue && i+1 < len(args) {
			i++
			value, hasValue = args[i], true
		}
		if hasValue {
			a.values[canonical] = append(a.values[canonical], value)
		}
	}
	return a
}

// getPaths returns the positional paths, defaulting to ["."].
func (a cliArgs) getPaths() []string {
	if len(a.paths) == 0 {
		return []string{"."}
	}
	return a.paths
}

// stringFlag returns the value of name from the nearest command that set it,
// then from trailing arguments, then the flag default.
func stringFlag(c *cli.Context, a cliArgs, name string) string {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.String(name)
		}
	}
	if v := a.values[name]; len(v) > 0 {
		return v[len(v)-1]
	}
	return c.String(name)
}

func boolFlag(c *cli.Context, a cliArgs, name string) bool {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.Bool(name)
		}
	}
	return a.bools[name]
}

func intFlag(c *cli.Context, a cliArgs, name string) (int, error) {
	if c.IsSet(name) {
		return c.Int(name), nil
	}
	v := a.values[name]
	if len(v) == 0 {
		return c.Int(name), nil
	}
	n, err := strconv.Atoi(v[len(v)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for --%s: %w", v[len(v)-1], name, err)
	}
	return n, nil
}

// stringSliceFlag merges repeated leading and trailing occurrences.
func stringSliceFlag(c *cli.Context, a cliArgs, name string) []string {
	out := append([]string(nil), c.StringSlice(name)...)
	return append(out, a.values[name]...)
}

// newLogger builds the diagnostics logger. Reports go to stdout; the logger
// always writes to w, which is stderr outside tests.
func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func appLogger(c *cli.Context) *logrus.Logger {
	if l, ok := c.App.Metadata[metaLogger].(*logrus.Logger); ok {
		return l
	}
	return newLogger(c.App.ErrWriter, false)
}

// loadConfig loads the file named by --config, or searches the default
// locations below searchDir ("" for the working directory).
func loadConfig(c *cli.Context, a cliArgs, searchDir string) (*config.Config, error) {
	var opts []config.LoadOption
	if path := stringFlag(c, a, "config"); path != "" {
		opts = append(opts, config.WithPath(path))
	} else if searchDir != "" {
		opts = append(opts, config.WithSearchDir(searchDir))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}

	logger := appLogger(c)
	if result.Source != "" {
		logger.WithField("path", result.Source).Debug("loaded config")
	}
	if result.Config.Output.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return result.Config, nil
}

// outputFormat resolves --format against the configured default.
func outputFormat(c *cli.Context, a cliArgs, cfg *config.Config) (output.Format, error) {
	name := stringFlag(c, a, "format")
	if name == "" {
		name = cfg.Output.Format
	}
	switch strings.ToLower(name) {
	case "text", "json", "markdown", "md", "toon":
		return output.ParseFormat(name), nil
	}
	return "", fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(config.ValidFormats, ", "))
}

// newFormatter writes to --output when given, otherwise to the app's writer.
func newFormatter(c *cli.Context, a cliArgs, cfg *config.Config, format output.Format) (*output.Formatter, error) {
	if path := stringFlag(c, a, "output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	colored := cfg.Output.Color && !color.NoColor && format == output.FormatText
	return output.NewWriterFormatter(format, c.App.Writer, colored), nil
}

// orphanOptions collects the analysis flags shared by scan and watch.
func orphanOptions(c *cli.Context, a cliArgs) (analysis.OrphanOptions, error) {
	workers, err := intFlag(c, a, "workers")
	if err != nil {
		return analysis.OrphanOptions{}, err
	}
	if workers < 0 {
		return analysis.OrphanOptions{}, fmt.Errorf("--workers must not be negative (got %d)", workers)
	}
	return analysis.OrphanOptions{
		Paths:             a.getPaths(),
		EntryPoints:       stringSliceFlag(c, a, "entry"),
		PrototypesAsCalls: boolFlag(c, a, "prototypes-as-calls"),
		Workers:           workers,
		NoCache:           boolFlag(c, a, "no-cache"),
	}, nil
}

// interactive reports whether progress bars should be drawn.
func interactive() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
