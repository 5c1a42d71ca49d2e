package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/orphic/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
	}
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates an orphic configuration file for syntax errors and invalid values.

Examples:
  orphic config validate                 # Validates default config locations
  orphic config validate -c orphic.toml  # Validates specific file`,
				Flags:  []cli.Flag{configFlag},
				Action: runConfigValidate,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  orphic config show                # Show effective config
  orphic config show -c orphic.toml # Show config from specific file`,
				Flags:  []cli.Flag{configFlag},
				Action: runConfigShow,
			},
		},
	}
}

func configLoadOptions(c *cli.Context) []config.LoadOption {
	var opts []config.LoadOption
	for _, ctx := range c.Lineage() {
		if ctx.IsSet("config") {
			return append(opts, config.WithPath(ctx.String("config")))
		}
	}
	return opts
}

func runConfigValidate(c *cli.Context) error {
	result, err := config.LoadConfig(configLoadOptions(c)...)
	if err != nil {
		header := "Configuration could not be read:"
		if config.IsValidationError(err) {
			header = "Configuration validation failed:"
		}
		fmt.Fprintln(c.App.ErrWriter, color.RedString(header))
		fmt.Fprintf(c.App.ErrWriter, "  - %s\n", err)
		return cli.Exit("", 1)
	}

	if result.Source != "" {
		fmt.Fprintln(c.App.Writer, color.GreenString("Configuration valid: %s", result.Source))
	} else {
		fmt.Fprintln(c.App.Writer, color.YellowString("No config file found. Default configuration is valid."))
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	result, err := config.LoadConfig(configLoadOptions(c)...)
	if err != nil {
		return err
	}

	if result.Source != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(content)
	return err
}
