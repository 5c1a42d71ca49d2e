package mcpserver

import (
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/orphic/pkg/config"
	"github.com/sirupsen/logrus"
)

// Server wraps the MCP server and registers the orphic tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger logrus.FieldLogger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration used for every tool call.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger. It must not write to stdout, which carries
// the protocol.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP server with all tools and prompts registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Server{
		server: mcp.NewServer(
			&mcp.Implementation{
				Name:    "orphic",
				Version: version,
			},
			nil,
		),
		config: config.LoadOrDefault(),
		logger: discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerPrompts()
	return s
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t. Tests use it with in-memory
// transports.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_orphans",
		Description: describeFindOrphans(),
	}, s.handleFindOrphans)
}
