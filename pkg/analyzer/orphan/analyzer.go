// Package orphan finds C functions that are defined but never called.
//
// The pipeline is lexical: each file is sanitized (comments and literals
// blanked), scanned for definitions and call sites, merged across files in
// input order, and finally reduced to the orphan set.
package orphan

import (
	"context"

	"github.com/panbanda/orphic/pkg/analyzer"
)

// Analyzer runs the full pipeline over a list of files.
type Analyzer struct {
	agg      *Aggregator
	findOpts []FindOption
}

var _ analyzer.FileAnalyzer[*Report] = (*Analyzer)(nil)

// New creates an analyzer. A nil aggregator uses NewAggregator defaults.
func New(agg *Aggregator, opts ...FindOption) *Analyzer {
	if agg == nil {
		agg = NewAggregator()
	}
	return &Analyzer{agg: agg, findOpts: opts}
}

// Analyze aggregates files and computes the orphan report.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Report, error) {
	tables, err := a.agg.Aggregate(ctx, files)
	if err != nil {
		return nil, err
	}
	return FindOrphans(tables, a.findOpts...), nil
}

// Close releases any resources held by the analyzer.
func (a *Analyzer) Close() {}
