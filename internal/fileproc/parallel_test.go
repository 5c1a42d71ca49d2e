package fileproc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapOrdered_PreservesInputOrder(t *testing.T) {
	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("file%02d.c", i)
	}

	results, errs := MapOrdered(context.Background(), files, 8, func(_ context.Context, path string) (string, error) {
		// Early files finish last.
		if path < "file10.c" {
			time.Sleep(5 * time.Millisecond)
		}
		return "done:" + path, nil
	}, nil)

	require.Len(t, results, len(files))
	require.Len(t, errs, len(files))
	for i, path := range files {
		assert.Equal(t, "done:"+path, results[i])
		assert.NoError(t, errs[i])
	}
}

func TestMapOrdered_EmptyFileList(t *testing.T) {
	results, errs := MapOrdered(context.Background(), nil, 0, func(_ context.Context, path string) (int, error) {
		return 1, nil
	}, nil)
	assert.Nil(t, results)
	assert.Nil(t, errs)
}

func TestMapOrdered_ErrorsAtIndex(t *testing.T) {
	files := []string{"a.c", "b.c", "c.c"}
	boom := errors.New("boom")

	results, errs := MapOrdered(context.Background(), files, 2, func(_ context.Context, path string) (int, error) {
		if path == "b.c" {
			return 0, boom
		}
		return len(path), nil
	}, nil)

	assert.Equal(t, []int{3, 0, 3}, results)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])

	collected := Collect(files, errs)
	require.Len(t, collected, 1)
	assert.Equal(t, "b.c", collected[0].Path)
	assert.ErrorIs(t, collected[0], boom)
	assert.Equal(t, "b.c: boom", collected[0].Error())
}

func TestMapOrdered_ProgressCalledPerFile(t *testing.T) {
	files := []string{"a.c", "b.c", "c.c", "d.c"}
	var ticks atomic.Int32

	_, _ = MapOrdered(context.Background(), files, 0, func(_ context.Context, path string) (string, error) {
		if path == "c.c" {
			return "", errors.New("fail")
		}
		return path, nil
	}, func() { ticks.Add(1) })

	assert.Equal(t, int32(len(files)), ticks.Load())
}

func TestMapOrdered_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []string{"a.c", "b.c"}
	var calls atomic.Int32
	_, errs := MapOrdered(ctx, files, 1, func(_ context.Context, path string) (string, error) {
		calls.Add(1)
		return path, nil
	}, nil)

	assert.Zero(t, calls.Load())
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestCollect_NoErrors(t *testing.T) {
	assert.Nil(t, Collect([]string{"a.c"}, []error{nil}))
}

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), DefaultWorkerMultiplier)
}
