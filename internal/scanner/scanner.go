// Package scanner discovers C source and header files.
package scanner

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/orphic/pkg/config"
	"github.com/sirupsen/logrus"
)

// ReasonNotSource is recorded for arguments that are neither a directory nor
// a file with a configured extension.
const ReasonNotSource = "not a .c or .h file or directory"

// Skipped is an argument that was ignored.
type Skipped struct {
	Path   string
	Reason string
}

// ScanResult contains the result of a file scan.
type ScanResult struct {
	// Files are in argument order; files under a directory argument are in
	// lexical walk order.
	Files   []string
	Skipped []Skipped
}

// Scanner finds source files in a set of paths.
type Scanner struct {
	config   *config.Config
	logger   logrus.FieldLogger
	matchers []gitignore.Matcher
	base     string // directory the matchers are relative to
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Scanner) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger used for exclusion diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new file scanner.
func New(opts ...Option) *Scanner {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Scanner{
		config: config.DefaultConfig(),
		logger: discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths resolves every argument into source files. Directories are walked
// recursively; file arguments are taken as-is when their extension matches.
// Arguments that do not exist or are not source files are reported in
// Skipped. A file reached through more than one argument is listed once, at
// its first occurrence. An empty argument list scans ".".
func (s *Scanner) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	result := &ScanResult{Files: make([]string, 0, 64)}
	seen := make(map[string]bool)
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return &PathError{Path: path, Err: err}
		}
		if !seen[abs] {
			seen[abs] = true
			result.Files = append(result.Files, path)
		}
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: ReasonNotSource})
			s.logger.WithField("path", path).WithError(err).Debug("skipping argument")
			continue
		}

		if !info.IsDir() {
			if !s.config.HasExtension(path) {
				result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: ReasonNotSource})
				continue
			}
			if err := add(path); err != nil {
				return nil, err
			}
			continue
		}

		found, err := s.ScanDir(path)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		for _, f := range found {
			if err := add(f); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// findGitRoot finds the root of the git repository by looking for .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and .gitignore
// files. Config patterns use gitignore syntax.
func (s *Scanner) loadExcludePatterns(absRoot string) {
	s.matchers = s.matchers[:0]
	s.base = absRoot

	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(absRoot); gitRoot != "" {
			// ReadPatterns walks every .gitignore below the repository root.
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				patterns = append(patterns, gitPatterns...)
				s.base = gitRoot
			} else {
				s.logger.WithError(err).Debug("reading .gitignore files failed")
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks if an absolute path matches any exclusion pattern.
func (s *Scanner) isExcluded(absPath string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.base, absPath)
	if err != nil || rel == "." {
		return false
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

func (s *Scanner) isExcludedDir(name string) bool {
	for _, dir := range s.config.Exclude.Dirs {
		if name == dir {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for source files. Returned paths are
// root joined with the relative path, in lexical order. Symlinks that resolve
// outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.WithField("path", path).WithError(err).Debug("walk error")
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		absPath := filepath.Join(absRoot, relPath)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, resolvedRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if s.isExcludedDir(d.Name()) || s.isExcluded(absPath, true) {
				s.logger.WithField("dir", path).Debug("excluded directory")
				return filepath.SkipDir
			}
			return nil
		}

		if !s.config.HasExtension(path) || s.isExcluded(absPath, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
