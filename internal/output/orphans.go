package output

import (
	"fmt"
	"strings"

	"github.com/panbanda/orphic/pkg/analyzer/orphan"
)

// Empty-section messages.
const (
	NoDefinitionsMessage = "No function definitions found."
	NoCallsMessage       = "No function calls found."
	AllUsedMessage       = "All functions are used!"
)

// OrphanOptions controls which parts of an orphan report are rendered.
type OrphanOptions struct {
	// OrphansOnly omits the defined and called listings.
	OrphansOnly bool
	// Colored colors locations by file kind.
	Colored bool
}

// orphanData is the serialized form of an orphans-only report.
type orphanData struct {
	Orphans     []orphan.Orphan       `json:"orphans" toon:"orphans"`
	Warnings    []orphan.WarningEntry `json:"warnings,omitempty" toon:"warnings,omitempty"`
	Summary     orphan.Summary        `json:"summary" toon:"summary"`
	Fingerprint string                `json:"fingerprint" toon:"fingerprint"`
}

// OrphanReport builds the renderable form of an orphan analysis.
func OrphanReport(r *orphan.Report, opts OrphanOptions) *Report {
	var sections []Renderable
	var data any = r

	if opts.OrphansOnly {
		data = orphanData{
			Orphans:     r.Orphans,
			Warnings:    r.Warnings,
			Summary:     r.Summary,
			Fingerprint: r.Fingerprint,
		}
	} else {
		sections = append(sections,
			symbolSection("Defined Functions", r.Defined, NoDefinitionsMessage, opts.Colored),
			symbolSection("Called Functions", r.Called, NoCallsMessage, opts.Colored),
		)
	}

	sections = append(sections, unusedSection(r.Orphans, opts.Colored))

	if len(r.Warnings) > 0 {
		rows := make([][]string, 0, len(r.Warnings))
		for _, w := range r.Warnings {
			rows = append(rows, []string{w.Path, w.Reason})
		}
		sections = append(sections, NewTable("Skipped Files", []string{"Path", "Reason"}, rows, nil))
	}

	sections = append(sections, summarySection(r.Summary))

	return &Report{
		Title:    "Orphan Function Report",
		Sections: sections,
		Data:     data,
	}
}

func symbolSection(title string, symbols []orphan.Symbol, empty string, colored bool) Renderable {
	if len(symbols) == 0 {
		return &Section{Title: title, Content: empty}
	}
	rows := make([][]string, 0, len(symbols))
	for _, s := range symbols {
		rows = append(rows, []string{s.Name, joinLocations(s.Locations, colored)})
	}
	return NewTable(title, []string{"Function", "Locations"}, rows, nil)
}

func unusedSection(orphans []orphan.Orphan, colored bool) Renderable {
	const title = "Unused Functions"
	if len(orphans) == 0 {
		return &Section{Title: title, Content: AllUsedMessage}
	}
	rows := make([][]string, 0, len(orphans))
	for _, o := range orphans {
		locs := make([]orphan.Location, len(o.Definitions))
		for i, d := range o.Definitions {
			locs[i] = d.Location
		}
		rows = append(rows, []string{o.Name, joinLocations(locs, colored)})
	}
	return NewTable(title, []string{"Function", "Defined At"}, rows, nil)
}

func summarySection(s orphan.Summary) *Section {
	lines := []string{
		fmt.Sprintf("Files scanned:        %d", s.FilesScanned),
		fmt.Sprintf("Files skipped:        %d", s.FilesSkipped),
		fmt.Sprintf("Defined functions:    %d", s.DefinedFunctions),
		fmt.Sprintf("Called functions:     %d", s.CalledFunctions),
		fmt.Sprintf("Unused functions:     %d", s.OrphanFunctions),
	}
	if s.EntryPointsSkipped > 0 {
		lines = append(lines, fmt.Sprintf("Entry points skipped: %d", s.EntryPointsSkipped))
	}
	return &Section{Title: "Summary", Content: strings.Join(lines, "\n")}
}

func joinLocations(locs []orphan.Location, colored bool) string {
	parts := make([]string, len(locs))
	for i, l := range locs {
		parts[i] = l.String()
		if colored {
			parts[i] = PathColor(l.File, parts[i])
		}
	}
	return strings.Join(parts, ", ")
}
