package orphan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/panbanda/orphic/internal/cache"
	"github.com/panbanda/orphic/internal/fileproc"
	"github.com/panbanda/orphic/pkg/source"
	"github.com/sirupsen/logrus"
)

// binarySniffLen is how much of a file is checked for NUL bytes.
const binarySniffLen = 8000

// cacheVersion is bumped whenever extraction output changes shape or meaning.
const cacheVersion = "v2"

// Aggregator reads, sanitizes and extracts a list of files and merges the
// results into one pair of tables.
type Aggregator struct {
	source      source.ContentSource
	cache       *cache.Cache
	logger      logrus.FieldLogger
	workers     int
	maxFileSize int64
	prototypes  bool
	onProgress  func()
}

// AggregatorOption is a functional option for configuring an Aggregator.
type AggregatorOption func(*Aggregator)

// WithSource sets where file contents are read from (default: filesystem).
func WithSource(src source.ContentSource) AggregatorOption {
	return func(a *Aggregator) {
		if src != nil {
			a.source = src
		}
	}
}

// WithCache enables the per-file extraction cache.
func WithCache(c *cache.Cache) AggregatorOption {
	return func(a *Aggregator) {
		a.cache = c
	}
}

// WithLogger sets the logger used for skip and cache diagnostics.
func WithLogger(l logrus.FieldLogger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithWorkers sets the number of files extracted concurrently.
// 1 processes files strictly one after another; <= 0 uses 2x NumCPU.
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.workers = n
	}
}

// WithMaxFileSize skips files larger than n bytes (0 = no limit).
func WithMaxFileSize(n int64) AggregatorOption {
	return func(a *Aggregator) {
		a.maxFileSize = n
	}
}

// WithPrototypes counts prototype declarations as calls.
func WithPrototypes(asCalls bool) AggregatorOption {
	return func(a *Aggregator) {
		a.prototypes = asCalls
	}
}

// WithProgress sets a callback invoked once per processed file.
func WithProgress(fn func()) AggregatorOption {
	return func(a *Aggregator) {
		a.onProgress = fn
	}
}

// NewAggregator creates an aggregator reading from the filesystem.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	a := &Aggregator{
		source: source.NewFilesystem(),
		logger: discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate processes files in the given order and returns the merged tables.
// Files that cannot be read or scanned are recorded in Tables.Warnings and do
// not stop the run. Results are merged in input order regardless of worker
// count, so the tables are identical to a sequential run.
func (a *Aggregator) Aggregate(ctx context.Context, files []string) (*Tables, error) {
	results, errs := fileproc.MapOrdered(ctx, files, a.workers, a.processFile, a.onProgress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := NewTables()
	tables.Warnings = fileproc.Collect(files, errs)
	for _, w := range tables.Warnings {
		a.logger.WithField("path", w.Path).WithError(w.Err).Warn("skipping file")
	}
	for i, fr := range results {
		if errs[i] == nil {
			tables.Merge(fr)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"files":       len(tables.Files),
		"skipped":     len(tables.Warnings),
		"definitions": len(tables.Definitions),
		"called":      len(tables.Calls),
	}).Debug("aggregation complete")

	return tables, nil
}

func (a *Aggregator) processFile(_ context.Context, path string) (*FileResult, error) {
	data, err := a.source.Read(path)
	if err != nil {
		return nil, err
	}
	if a.maxFileSize > 0 && int64(len(data)) > a.maxFileSize {
		return nil, fmt.Errorf("%w (%d > %d bytes)", ErrFileTooLarge, len(data), a.maxFileSize)
	}
	if isBinary(data) {
		return nil, ErrBinaryFile
	}

	var key, hash string
	if a.cache.Enabled() {
		key = fmt.Sprintf("%s|protos=%t|%s", cacheVersion, a.prototypes, path)
		hash = cache.HashBytes(data)
		if raw, ok := a.cache.Get(key, hash); ok {
			var fr FileResult
			if err := json.Unmarshal(raw, &fr); err == nil && fr.Path == path {
				return &fr, nil
			}
		}
	}

	var opts []ExtractOption
	if a.prototypes {
		opts = append(opts, WithPrototypesAsCalls())
	}
	fr := Extract(path, Sanitize(data), opts...)

	if a.cache.Enabled() {
		raw, err := json.Marshal(fr)
		if err == nil {
			err = a.cache.Set(key, hash, raw)
		}
		if err != nil {
			a.logger.WithField("path", path).WithError(err).Debug("cache write failed")
		}
	}

	return fr, nil
}

func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
