package main

import (
	"fmt"

	"github.com/panbanda/orphic/internal/mcpserver"
	"github.com/panbanda/orphic/pkg/config"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes orphan analysis
as a tool that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "orphic": {
        "command": "orphic",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - find_orphans    Functions defined but never called

Available prompts:
  - dead-code-cleanup   Walk through removing orphaned functions
  - change-orphans      Check whether a revision left functions orphaned`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				EnvVars: []string{"ORPHIC_CONFIG"},
			},
		},
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the server.json manifest for MCP registries",
				Action: runMCPManifest,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	result, err := config.LoadConfig(configLoadOptions(c)...)
	if err != nil {
		return err
	}

	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(result.Config),
		mcpserver.WithLogger(appLogger(c)),
	)
	return server.Run(c.Context)
}

func runMCPManifest(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
