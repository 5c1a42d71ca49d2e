// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
const DefaultWorkerMultiplier = 2

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// MapOrdered processes files in parallel and returns one result and one error
// slot per input file, at the input's index. Callers therefore see results in
// input order no matter which worker finished first.
//
// If maxWorkers is <= 0, defaults to 2x NumCPU. When ctx is cancelled, files
// not yet started get ctx.Err() in their error slot.
func MapOrdered[T any](ctx context.Context, files []string, maxWorkers int, fn func(context.Context, string) (T, error), onProgress ProgressFunc) ([]T, []error) {
	if len(files) == 0 {
		return nil, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers()
	}

	results := make([]T, len(files))
	errs := make([]error, len(files))

	// Each task writes only its own index, so no lock is needed.
	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			defer func() {
				if onProgress != nil {
					onProgress()
				}
			}()

			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return nil
			default:
			}

			results[i], errs[i] = fn(ctx, path)
			return nil
		})
	}
	_ = p.Wait() // per-file errors live in errs

	return results, errs
}

// Collect turns the per-index errors from MapOrdered into ProcessingErrors,
// preserving input order. It returns nil when every slot is nil.
func Collect(files []string, errs []error) []ProcessingError {
	var out []ProcessingError
	for i, err := range errs {
		if err != nil {
			out = append(out, ProcessingError{Path: files[i], Err: err})
		}
	}
	return out
}
