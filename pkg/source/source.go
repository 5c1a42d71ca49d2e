// Package source abstracts where file contents come from.
package source

import (
	"os"
	"sync"

	"github.com/panbanda/orphic/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git snapshot using repository-relative,
// slash-separated paths.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	snap *vcs.Snapshot
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git snapshot.
func NewTree(snap *vcs.Snapshot) *TreeSource {
	return &TreeSource{snap: snap}
}

// Read implements ContentSource.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap.File(path)
}

// MapSource serves contents from memory. Tests and editor integrations use it
// to analyze unsaved buffers.
type MapSource map[string][]byte

// Read implements ContentSource.
func (m MapSource) Read(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return data, nil
}
