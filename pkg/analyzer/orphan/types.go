package orphan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/panbanda/orphic/internal/fileproc"
)

// Location is the point in a file where a name was seen.
type Location struct {
	File string `json:"file" toon:"file"`
	Line int    `json:"line" toon:"line"` // 1-based
}

// String returns "file:line".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Definition is a single function definition occurrence.
type Definition struct {
	Name     string   `json:"name" toon:"name"`
	Location Location `json:"location" toon:"location"`
}

// Call is a single call site.
type Call struct {
	Name     string   `json:"name" toon:"name"`
	Location Location `json:"location" toon:"location"`
}

// DefinitionTable maps a function name to its definitions in scan order.
type DefinitionTable map[string][]Definition

// Add appends a definition under its name.
func (t DefinitionTable) Add(d Definition) {
	t[d.Name] = append(t[d.Name], d)
}

// Names returns the defined names sorted lexically.
func (t DefinitionTable) Names() []string {
	return sortedKeys(t)
}

// CallTable maps a function name to its call sites in scan order.
type CallTable map[string][]Call

// Add appends a call under its name.
func (t CallTable) Add(c Call) {
	t[c.Name] = append(t[c.Name], c)
}

// Names returns the called names sorted lexically.
func (t CallTable) Names() []string {
	return sortedKeys(t)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileResult holds the extraction results for one file.
type FileResult struct {
	Path        string       `json:"path"`
	Definitions []Definition `json:"definitions"`
	Calls       []Call       `json:"calls"`
}

// Warning records a file that was skipped during aggregation.
type Warning = fileproc.ProcessingError

// Sentinel errors attached to warnings for content the engine refuses to scan.
var (
	ErrBinaryFile   = errors.New("file looks binary")
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// Tables is the merged output of the aggregator.
type Tables struct {
	Definitions DefinitionTable
	Calls       CallTable
	Warnings    []Warning
	// Files lists the paths that were scanned successfully, in input order.
	Files []string
}

// NewTables returns empty, ready-to-fill tables.
func NewTables() *Tables {
	return &Tables{
		Definitions: make(DefinitionTable),
		Calls:       make(CallTable),
	}
}

// Merge appends one file's results.
func (t *Tables) Merge(fr *FileResult) {
	for _, d := range fr.Definitions {
		t.Definitions.Add(d)
	}
	for _, c := range fr.Calls {
		t.Calls.Add(c)
	}
	t.Files = append(t.Files, fr.Path)
}
