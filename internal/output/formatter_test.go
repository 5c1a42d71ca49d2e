package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFormat(tt.input)
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter(FormatMarkdown, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if !f.Colored() {
		t.Error("Colored() = false, want true")
	}
	if f.closer != nil {
		t.Error("stdout formatter should not own a closer")
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should never be colored")
	}
	if err := f.Output(&Section{Data: map[string]int{"orphans": 1}}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if !strings.Contains(string(data), `"orphans": 1`) {
		t.Errorf("file content = %q", data)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/directory/file.txt", false)
	if err == nil {
		t.Error("NewFormatter() should error for invalid path")
	}
}

func TestTableRenderText(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
		want  []string
	}{
		{
			name: "titled",
			table: NewTable(
				"Unused Functions",
				[]string{"Function", "Defined At"},
				[][]string{
					{"helper", "a.c:1"},
					{"legacy", "b.c:10"},
				},
				nil,
			),
			want: []string{"Unused Functions\n================", "FUNCTION", "DEFINED AT", "helper", "a.c:1", "b.c:10"},
		},
		{
			name:  "no_title",
			table: NewTable("", []string{"A", "B"}, [][]string{{"1", "2"}}, nil),
			want:  []string{"A", "B", "1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.table.RenderText(&buf, false); err != nil {
				t.Fatalf("RenderText() error: %v", err)
			}

			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("RenderText() missing %q in output:\n%s", want, out)
				}
			}
		})
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Called Functions", []string{"Function", "Locations"}, [][]string{{"puts", "main.c:3"}}, nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	want := "## Called Functions\n\n| Function | Locations |\n| --- | --- |\n| puts | main.c:3 |\n\n"
	if buf.String() != want {
		t.Errorf("RenderMarkdown() = %q, want %q", buf.String(), want)
	}
}

func TestTableRenderMarkdownEscapesPipes(t *testing.T) {
	table := NewTable("", []string{"Path"}, [][]string{{"odd|name.c"}}, nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(buf.String(), `| odd\|name.c |`) {
		t.Errorf("pipe not escaped: %q", buf.String())
	}
}

func TestTableRenderData(t *testing.T) {
	table := NewTable("T", []string{"Name", "Line"}, [][]string{{"f", "1"}, {"g"}}, nil)
	rows, ok := table.RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() type = %T", table.RenderData())
	}
	if len(rows) != 2 || rows[0]["Name"] != "f" || rows[0]["Line"] != "1" {
		t.Errorf("RenderData() = %v", rows)
	}
	if _, ok := rows[1]["Line"]; ok {
		t.Error("short row should not have a Line key")
	}

	withData := NewTable("T", nil, nil, map[string]int{"n": 1})
	if _, ok := withData.RenderData().(map[string]int); !ok {
		t.Error("RenderData() should return Data when set")
	}
}

func TestSectionRender(t *testing.T) {
	s := &Section{Title: "Summary", Content: "Files scanned: 2"}

	var text bytes.Buffer
	if err := s.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	wantText := "Summary\n=======\nFiles scanned: 2\n"
	if text.String() != wantText {
		t.Errorf("RenderText() = %q, want %q", text.String(), wantText)
	}

	var md bytes.Buffer
	if err := s.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	wantMD := "## Summary\n\nFiles scanned: 2\n\n"
	if md.String() != wantMD {
		t.Errorf("RenderMarkdown() = %q, want %q", md.String(), wantMD)
	}
}

func TestReportRenderText(t *testing.T) {
	r := &Report{
		Title: "Report",
		Sections: []Renderable{
			&Section{Title: "One", Content: "first"},
			&Section{Title: "Two", Content: "second"},
		},
	}

	var buf bytes.Buffer
	if err := r.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	want := "Report\n======\n\nOne\n===\nfirst\n\nTwo\n===\nsecond\n"
	if buf.String() != want {
		t.Errorf("RenderText() = %q, want %q", buf.String(), want)
	}

	data, ok := r.RenderData().(map[string]any)
	if !ok || data["title"] != "Report" {
		t.Errorf("RenderData() = %v", r.RenderData())
	}
}

func TestFormatterOutput(t *testing.T) {
	withData := &Section{Title: "T", Content: "body", Data: map[string]int{"orphans": 2}}

	tests := []struct {
		name   string
		format Format
		want   string
		absent string
	}{
		{"json", FormatJSON, `"orphans": 2`, "body"},
		{"toon", FormatTOON, "orphans", "body"},
		{"markdown", FormatMarkdown, "## T", "orphans"},
		{"text", FormatText, "body", "orphans"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriterFormatter(tt.format, &buf, false).Output(withData); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Output() = %q, want it to contain %q", buf.String(), tt.want)
			}
			if strings.Contains(buf.String(), tt.absent) {
				t.Errorf("Output() = %q, should not contain %q", buf.String(), tt.absent)
			}
		})
	}
}

func TestFormatterOutputJSONIsValid(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatJSON, &buf, false)
	if err := f.Output(&Section{Data: map[string]any{"name": "test", "items": []string{"a", "b"}}}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["name"] != "test" {
		t.Errorf("name = %v, want test", decoded["name"])
	}
}

func TestPathColor(t *testing.T) {
	old := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = old }()

	if got := PathColor("a.c", "a.c:1"); got != color.BlueString("a.c:1") {
		t.Errorf("PathColor(.c) = %q", got)
	}
	if got := PathColor("inc/a.H", "a.H:1"); got != color.YellowString("a.H:1") {
		t.Errorf("PathColor(.h) = %q", got)
	}
	if got := PathColor("notes.txt", "x"); got != "x" {
		t.Errorf("PathColor(other) = %q, want unchanged", got)
	}
}
