// Package analyzer holds the contract shared by source analyzers.
package analyzer

import "context"

// FileAnalyzer analyzes a collection of files into a single result.
type FileAnalyzer[T any] interface {
	// Analyze processes files in the given order. Cancelling ctx aborts the
	// run and returns the context error.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
