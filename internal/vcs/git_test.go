package vcs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string) {
	t.Helper()
	w, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		_, err := w.Add(name)
		require.NoError(t, err)
	}
	_, err = w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func TestOpenRevision_ReadsHistoricalContent(t *testing.T) {
	dir, repo := initRepo(t)
	commitFiles(t, repo, dir, map[string]string{"src/a.c": "void old(void) {}\n"}, "first")
	commitFiles(t, repo, dir, map[string]string{"src/a.c": "void renamed(void) {}\n"}, "second")

	head, err := OpenRevision(dir, "HEAD")
	require.NoError(t, err)
	content, err := head.File("src/a.c")
	require.NoError(t, err)
	assert.Contains(t, string(content), "renamed")

	prev, err := OpenRevision(dir, "HEAD~1")
	require.NoError(t, err)
	content, err = prev.File("src/a.c")
	require.NoError(t, err)
	assert.Contains(t, string(content), "old")
	assert.NotEqual(t, head.Hash(), prev.Hash())
}

func TestOpenRevision_DetectsFromSubdirectory(t *testing.T) {
	dir, repo := initRepo(t)
	commitFiles(t, repo, dir, map[string]string{"lib/x.h": "int x(void);\n"}, "init")

	snap, err := OpenRevision(filepath.Join(dir, "lib"), "")
	require.NoError(t, err)

	rel, err := snap.RelPath(filepath.Join(dir, "lib"))
	require.NoError(t, err)
	assert.Equal(t, "lib", rel)
}

func TestOpenRevision_Errors(t *testing.T) {
	_, err := OpenRevision(t.TempDir(), "HEAD")
	assert.ErrorIs(t, err, ErrNotRepository)

	dir, repo := initRepo(t)
	commitFiles(t, repo, dir, map[string]string{"a.c": "\n"}, "init")

	_, err = OpenRevision(dir, "no-such-branch")
	var revErr *RevisionError
	require.ErrorAs(t, err, &revErr)
	assert.Equal(t, "no-such-branch", revErr.Revision)
}

func TestSnapshot_Files(t *testing.T) {
	dir, repo := initRepo(t)
	commitFiles(t, repo, dir, map[string]string{
		"main.c":        "int main(void) { return 0; }\n",
		"lib/util.c":    "void util(void) {}\n",
		"lib/util.h":    "void util(void);\n",
		"lib/README.md": "docs\n",
		"other/x.c":     "\n",
	}, "init")

	snap, err := OpenRevision(dir, "HEAD")
	require.NoError(t, err)

	isC := func(name string) bool {
		return strings.HasSuffix(name, ".c") || strings.HasSuffix(name, ".h")
	}

	all, err := snap.Files(nil, isC)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/util.c", "lib/util.h", "main.c", "other/x.c"}, all)

	lib, err := snap.Files([]string{"lib"}, isC)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/util.c", "lib/util.h"}, lib)

	one, err := snap.Files([]string{"main.c", "."}, isC)
	require.NoError(t, err)
	assert.Len(t, one, 4)
}

func TestSnapshot_RelPathOutsideRepo(t *testing.T) {
	dir, repo := initRepo(t)
	commitFiles(t, repo, dir, map[string]string{"a.c": "\n"}, "init")

	snap, err := OpenRevision(dir, "HEAD")
	require.NoError(t, err)

	_, err = snap.RelPath(t.TempDir())
	assert.Error(t, err)
}
