// Package vcs provides read access to git revisions.
package vcs

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no git repository contains the path.
var ErrNotRepository = errors.New("not a git repository (or any parent)")

// RevisionError indicates a revision that could not be resolved.
type RevisionError struct {
	Revision string
	Err      error
}

func (e *RevisionError) Error() string {
	return fmt.Sprintf("cannot resolve revision %q: %v", e.Revision, e.Err)
}

func (e *RevisionError) Unwrap() error {
	return e.Err
}

// Snapshot is the tree of a repository at one commit.
type Snapshot struct {
	root string
	hash plumbing.Hash
	tree *object.Tree
}

// OpenRevision opens the repository containing dir and resolves rev
// (a branch, tag, hash or expression such as HEAD~2) to its tree.
func OpenRevision(dir, rev string) (*Snapshot, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	if rev == "" {
		rev = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, &RevisionError{Revision: rev, Err: err}
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, &RevisionError{Revision: rev, Err: err}
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", hash, err)
	}

	return &Snapshot{root: wt.Filesystem.Root(), hash: *hash, tree: tree}, nil
}

// Root returns the worktree root of the repository.
func (s *Snapshot) Root() string {
	return s.root
}

// Hash returns the resolved commit hash.
func (s *Snapshot) Hash() string {
	return s.hash.String()
}

// File returns the content of the file at the repository-relative,
// slash-separated path.
func (s *Snapshot) File(name string) ([]byte, error) {
	f, err := s.tree.File(name)
	if err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Files lists regular files under the given repository-relative prefixes for
// which keep returns true, sorted by path. An empty prefix list, or the
// prefix ".", selects the whole tree.
func (s *Snapshot) Files(prefixes []string, keep func(name string) bool) ([]string, error) {
	var files []string
	err := s.tree.Files().ForEach(func(f *object.File) error {
		if f.Mode != filemode.Regular && f.Mode != filemode.Executable {
			return nil
		}
		if !underAny(f.Name, prefixes) {
			return nil
		}
		if keep == nil || keep(f.Name) {
			files = append(files, f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RelPath converts a filesystem path to a slash-separated path relative to the
// repository root.
func (s *Snapshot) RelPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	// The root reported by go-git has symlinks resolved; do the same here so
	// temp directories on macOS still compare equal.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	root := s.root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", p, s.root)
	}
	return filepath.ToSlash(rel), nil
}

func underAny(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		p = strings.TrimSuffix(path.Clean(p), "/")
		if p == "." || p == "" || name == p || strings.HasPrefix(name, p+"/") {
			return true
		}
	}
	return false
}
