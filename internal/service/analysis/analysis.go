// Package analysis runs the orphan pipeline from paths to report. The CLI,
// the watcher and the MCP server all go through it.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/panbanda/orphic/internal/cache"
	"github.com/panbanda/orphic/internal/scanner"
	"github.com/panbanda/orphic/internal/vcs"
	"github.com/panbanda/orphic/pkg/analyzer/orphan"
	"github.com/panbanda/orphic/pkg/config"
	"github.com/panbanda/orphic/pkg/source"
	"github.com/sirupsen/logrus"
)

// ErrNoFiles is returned when no path resolved to a source file.
var ErrNoFiles = errors.New("no .c or .h files to analyze")

// Service orchestrates orphan analysis.
type Service struct {
	config *config.Config
	logger logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger handed to every stage.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Service{
		config: config.DefaultConfig(),
		logger: discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration in effect.
func (s *Service) Config() *config.Config {
	return s.config
}

// OrphanOptions configures one run. Zero values fall back to the config.
type OrphanOptions struct {
	Paths []string
	// Rev analyzes the named git revision instead of the working tree.
	Rev string
	// Contents analyzes in-memory buffers keyed by file name instead of
	// reading Paths, e.g. unsaved editor buffers.
	Contents map[string][]byte

	EntryPoints       []string
	PrototypesAsCalls bool
	Workers           int
	NoCache           bool
	// OnDiscovered is called once with the number of files to analyze.
	OnDiscovered func(total int)
	OnProgress   func()
}

// Result is the outcome of a run.
type Result struct {
	Report *orphan.Report
	// Skipped lists arguments that were not usable as input.
	Skipped []scanner.Skipped
	Files   []string
	// Revision is the resolved commit hash in revision mode.
	Revision string
}

// FindOrphans discovers files, aggregates them and computes orphans. When no
// files are found the returned Result still carries the skipped arguments
// alongside ErrNoFiles.
func (s *Service) FindOrphans(ctx context.Context, opts OrphanOptions) (*Result, error) {
	var (
		result = &Result{}
		src    source.ContentSource
	)

	switch {
	case len(opts.Contents) > 0:
		result.Files, result.Skipped = s.bufferFiles(opts.Contents)
		src = source.MapSource(opts.Contents)
	case opts.Rev != "":
		snap, files, err := s.revisionFiles(opts.Paths, opts.Rev)
		if err != nil {
			return nil, err
		}
		result.Files = files
		result.Revision = snap.Hash()
		src = source.NewTree(snap)
	default:
		scan, err := scanner.New(scanner.WithConfig(s.config), scanner.WithLogger(s.logger)).ScanPaths(opts.Paths)
		if err != nil {
			return nil, err
		}
		result.Files = scan.Files
		result.Skipped = scan.Skipped
		src = source.NewFilesystem()
	}

	if len(result.Files) == 0 {
		return result, ErrNoFiles
	}
	if opts.OnDiscovered != nil {
		opts.OnDiscovered(len(result.Files))
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = s.config.Analysis.Workers
	}

	agg := orphan.NewAggregator(
		orphan.WithSource(src),
		orphan.WithCache(s.openCache(opts.NoCache)),
		orphan.WithLogger(s.logger),
		orphan.WithWorkers(workers),
		orphan.WithMaxFileSize(s.config.Analysis.MaxFileSize),
		orphan.WithPrototypes(opts.PrototypesAsCalls || s.config.Analysis.PrototypesAsCalls),
		orphan.WithProgress(opts.OnProgress),
	)

	entries := append(append([]string(nil), s.config.Analysis.EntryPoints...), opts.EntryPoints...)
	a := orphan.New(agg, orphan.WithEntryPoints(entries...))
	defer a.Close()

	report, err := a.Analyze(ctx, result.Files)
	if err != nil {
		return nil, err
	}
	result.Report = report

	s.logger.WithFields(logrus.Fields{
		"files":   report.Summary.FilesScanned,
		"skipped": report.Summary.FilesSkipped,
		"orphans": report.Summary.OrphanFunctions,
	}).Debug("analysis complete")

	return result, nil
}

// bufferFiles returns the names of contents in sorted order, skipping those
// without a source extension.
func (s *Service) bufferFiles(contents map[string][]byte) ([]string, []scanner.Skipped) {
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		files   []string
		skipped []scanner.Skipped
	)
	for _, name := range names {
		if !s.config.HasExtension(name) {
			skipped = append(skipped, scanner.Skipped{Path: name, Reason: scanner.ReasonNotSource})
			continue
		}
		files = append(files, name)
	}
	return files, skipped
}

// revisionFiles lists the source files of rev under paths, relative to the
// repository root.
func (s *Service) revisionFiles(paths []string, rev string) (*vcs.Snapshot, []string, error) {
	dir := "."
	if len(paths) > 0 {
		dir = paths[0]
		if s.config.HasExtension(dir) {
			dir = filepath.Dir(dir)
		}
	}

	snap, err := vcs.OpenRevision(dir, rev)
	if err != nil {
		return nil, nil, err
	}

	prefixes := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := snap.RelPath(p)
		if err != nil {
			return nil, nil, err
		}
		prefixes = append(prefixes, rel)
	}

	files, err := snap.Files(prefixes, func(name string) bool {
		return s.config.HasExtension(name) && !s.config.ShouldExclude(name)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list files at %s: %w", rev, err)
	}
	return snap, files, nil
}

// openCache returns the configured cache, or a disabled one when caching is
// off or the directory cannot be created.
func (s *Service) openCache(disabled bool) *cache.Cache {
	cfg := s.config.Cache
	c, err := cache.New(cfg.Dir, cfg.TTL, cfg.Enabled && !disabled)
	if err != nil {
		s.logger.WithField("dir", cfg.Dir).WithError(err).Warn("cache unavailable, continuing without it")
		c, _ = cache.New("", 0, false)
	}
	return c
}
