package orphan

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
)

// Orphan is a function that is defined but never called.
type Orphan struct {
	Name        string       `json:"name" toon:"name"`
	Definitions []Definition `json:"definitions" toon:"definitions"`
}

// Symbol groups every location at which a name was defined or called.
type Symbol struct {
	Name      string     `json:"name" toon:"name"`
	Locations []Location `json:"locations" toon:"locations"`
}

// WarningEntry is a skipped file as it appears in a report.
type WarningEntry struct {
	Path   string `json:"path" toon:"path"`
	Reason string `json:"reason" toon:"reason"`
}

// Summary holds aggregate counts for a report.
type Summary struct {
	FilesScanned       int `json:"files_scanned" toon:"files_scanned"`
	FilesSkipped       int `json:"files_skipped" toon:"files_skipped"`
	DefinedFunctions   int `json:"defined_functions" toon:"defined_functions"`
	CalledFunctions    int `json:"called_functions" toon:"called_functions"`
	OrphanFunctions    int `json:"orphan_functions" toon:"orphan_functions"`
	EntryPointsSkipped int `json:"entry_points_skipped" toon:"entry_points_skipped"`
}

// Report is the result of an orphan analysis.
type Report struct {
	Orphans  []Orphan       `json:"orphans" toon:"orphans"`
	Defined  []Symbol       `json:"defined" toon:"defined"`
	Called   []Symbol       `json:"called" toon:"called"`
	Warnings []WarningEntry `json:"warnings,omitempty" toon:"warnings,omitempty"`
	Summary  Summary        `json:"summary" toon:"summary"`
	// Fingerprint identifies the orphan set and its locations. Two runs over
	// the same inputs produce the same fingerprint.
	Fingerprint string `json:"fingerprint" toon:"fingerprint"`
}

// HasOrphans reports whether any orphan was found.
func (r *Report) HasOrphans() bool {
	return len(r.Orphans) > 0
}

type findConfig struct {
	entryPoints []string
}

// FindOption configures FindOrphans.
type FindOption func(*findConfig)

// WithEntryPoints names functions that are never reported as orphans even
// when nothing calls them, such as main or callbacks registered by name.
func WithEntryPoints(names ...string) FindOption {
	return func(c *findConfig) {
		c.entryPoints = append(c.entryPoints, names...)
	}
}

// FindOrphans computes the set of defined names that never appear as a call
// and returns them sorted lexically with all their definitions.
func FindOrphans(t *Tables, opts ...FindOption) *Report {
	cfg := &findConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	definedNames := t.Definitions.Names()
	calledNames := t.Calls.Names()

	// Intern every name in lexical order so bitmap iteration yields names
	// already sorted.
	names := mergeSorted(definedNames, calledNames)
	ids := make(map[string]uint32, len(names))
	for i, name := range names {
		ids[name] = uint32(i)
	}

	defined := roaring.New()
	for _, name := range definedNames {
		defined.Add(ids[name])
	}
	called := roaring.New()
	for _, name := range calledNames {
		called.Add(ids[name])
	}
	entries := roaring.New()
	for _, name := range cfg.entryPoints {
		if id, ok := ids[name]; ok {
			entries.Add(id)
		}
	}

	orphanSet := roaring.AndNot(defined, called)
	skipped := roaring.And(orphanSet, entries).GetCardinality()
	orphanSet.AndNot(entries)

	report := &Report{
		Orphans: make([]Orphan, 0, orphanSet.GetCardinality()),
		Defined: make([]Symbol, 0, len(definedNames)),
		Called:  make([]Symbol, 0, len(calledNames)),
	}

	for _, id := range orphanSet.ToArray() {
		name := names[id]
		defs := append([]Definition(nil), t.Definitions[name]...)
		report.Orphans = append(report.Orphans, Orphan{Name: name, Definitions: defs})
	}

	for _, name := range definedNames {
		locs := make([]Location, 0, len(t.Definitions[name]))
		for _, d := range t.Definitions[name] {
			locs = append(locs, d.Location)
		}
		report.Defined = append(report.Defined, Symbol{Name: name, Locations: locs})
	}
	for _, name := range calledNames {
		locs := make([]Location, 0, len(t.Calls[name]))
		for _, c := range t.Calls[name] {
			locs = append(locs, c.Location)
		}
		report.Called = append(report.Called, Symbol{Name: name, Locations: locs})
	}

	for _, w := range t.Warnings {
		report.Warnings = append(report.Warnings, WarningEntry{Path: w.Path, Reason: w.Err.Error()})
	}

	report.Summary = Summary{
		FilesScanned:       len(t.Files),
		FilesSkipped:       len(t.Warnings),
		DefinedFunctions:   len(definedNames),
		CalledFunctions:    len(calledNames),
		OrphanFunctions:    len(report.Orphans),
		EntryPointsSkipped: int(skipped),
	}
	report.Fingerprint = fingerprint(report.Orphans)

	return report
}

// fingerprint hashes orphan names and definition sites in report order.
func fingerprint(orphans []Orphan) string {
	d := xxhash.New()
	for _, o := range orphans {
		_, _ = d.WriteString(o.Name)
		_, _ = d.WriteString("\x00")
		for _, def := range o.Definitions {
			_, _ = d.WriteString(def.Location.String())
			_, _ = d.WriteString("\n")
		}
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// mergeSorted returns the sorted union of two sorted, duplicate-free slices.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// OrphanNames returns the names of the report's orphans in report order.
func (r *Report) OrphanNames() []string {
	names := make([]string, len(r.Orphans))
	for i, o := range r.Orphans {
		names[i] = o.Name
	}
	return names
}
