package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/orphic/internal/output"
	"github.com/panbanda/orphic/internal/service/analysis"
)

// FindOrphansInput is the input of the find_orphans tool.
type FindOrphansInput struct {
	Paths             []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to the current directory if empty."`
	Format            string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
	EntryPoints       []string `json:"entry_points,omitempty" jsonschema:"Function names never reported as orphans, such as main or registered callbacks."`
	Rev               string   `json:"rev,omitempty" jsonschema:"Git revision to analyze instead of the working tree, e.g. HEAD~1 or a branch name."`
	OrphansOnly       bool     `json:"orphans_only,omitempty" jsonschema:"Return only orphans and the summary, without the full defined and called listings."`
	PrototypesAsCalls bool     `json:"prototypes_as_calls,omitempty" jsonschema:"Count function prototypes as uses of the declared name."`

	Sources map[string]string `json:"sources,omitempty" jsonschema:"File contents keyed by file name, analyzed instead of paths. Use for unsaved buffers or snippets."`
}

func getContents(input FindOrphansInput) map[string][]byte {
	if len(input.Sources) == 0 {
		return nil
	}
	contents := make(map[string][]byte, len(input.Sources))
	for name, text := range input.Sources {
		contents[name] = []byte(text)
	}
	return contents
}

func getPaths(input FindOrphansInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input FindOrphansInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func toolResult(r output.Renderable, format output.Format, notes ...string) (*mcp.CallToolResult, any, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(r); err != nil {
		return nil, nil, err
	}

	content := []mcp.Content{
		&mcp.TextContent{Text: strings.TrimRight(buf.String(), "\n")},
	}
	if len(notes) > 0 {
		content = append(content, &mcp.TextContent{Text: strings.Join(notes, "\n")})
	}
	return &mcp.CallToolResult{Content: content}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleFindOrphans(ctx context.Context, req *mcp.CallToolRequest, input FindOrphansInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input)
	format := getFormat(input)

	svc := analysis.New(analysis.WithConfig(s.config), analysis.WithLogger(s.logger))
	res, err := svc.FindOrphans(ctx, analysis.OrphanOptions{
		Paths:             paths,
		Contents:          getContents(input),
		Rev:               input.Rev,
		EntryPoints:       input.EntryPoints,
		PrototypesAsCalls: input.PrototypesAsCalls,
	})
	if errors.Is(err, analysis.ErrNoFiles) {
		if len(input.Sources) > 0 {
			return toolError("no .c or .h files among sources")
		}
		return toolError("no .c or .h files found in " + strings.Join(paths, ", "))
	}
	if err != nil {
		return toolError(err.Error())
	}

	var notes []string
	for _, sk := range res.Skipped {
		notes = append(notes, fmt.Sprintf("Skipping '%s': %s", sk.Path, sk.Reason))
	}

	return toolResult(output.OrphanReport(res.Report, output.OrphanOptions{OrphansOnly: input.OrphansOnly}), format, notes...)
}
