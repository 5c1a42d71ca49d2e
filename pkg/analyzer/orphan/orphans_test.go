package orphan

import (
	"context"
	"testing"

	"github.com/panbanda/orphic/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, files map[string]string, order []string, opts ...FindOption) *Report {
	t.Helper()
	src := source.MapSource{}
	for name, content := range files {
		src[name] = []byte(content)
	}
	a := New(NewAggregator(WithSource(src)), opts...)
	defer a.Close()

	report, err := a.Analyze(context.Background(), order)
	require.NoError(t, err)
	return report
}

func TestFindOrphans_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		order []string
		opts  []FindOption
		want  []string
	}{
		{
			name: "main is never called",
			files: map[string]string{
				"a.c": "int helper(int x) { return x * 2; }\nint main(void) { return helper(3); }\n",
			},
			order: []string{"a.c"},
			want:  []string{"main"},
		},
		{
			name: "unused function across files",
			files: map[string]string{
				"a.c": "void unused(void) { }\n",
				"b.c": "void used(void) { } /* calls nothing */ int main(void){ used(); return 0; }\n",
			},
			order: []string{"a.c", "b.c"},
			want:  []string{"main", "unused"},
		},
		{
			name: "main excluded as an entry point",
			files: map[string]string{
				"a.c": "void unused(void) { }\n",
				"b.c": "void used(void) { } /* calls nothing */ int main(void){ used(); return 0; }\n",
			},
			order: []string{"a.c", "b.c"},
			opts:  []FindOption{WithEntryPoints("main")},
			want:  []string{"unused"},
		},
		{
			name: "prototype alone defines nothing",
			files: map[string]string{
				"foo.h": "int foo(int);\n",
			},
			order: []string{"foo.h"},
			want:  []string{},
		},
		{
			name: "call inside a comment does not count",
			files: map[string]string{
				"a.c": "void legacy(void) { }\nvoid run(void) { /* legacy(); */ }\n",
			},
			order: []string{"a.c"},
			want:  []string{"legacy", "run"},
		},
		{
			name: "duplicate definitions excluded together when called",
			files: map[string]string{
				"x.c": "int helper(void) { return 1; }\n",
				"y.c": "int helper(void) { return 2; }\nint run(void) { return helper(); }\n",
			},
			order: []string{"x.c", "y.c"},
			want:  []string{"run"},
		},
		{
			name: "call from another file",
			files: map[string]string{
				"lib.c":  "int lib_init(void) { return 0; }\n",
				"main.c": "int main(void) { return lib_init(); }\n",
			},
			order: []string{"lib.c", "main.c"},
			opts:  []FindOption{WithEntryPoints("main")},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := analyze(t, tt.files, tt.order, tt.opts...)
			assert.Equal(t, tt.want, report.OrphanNames())
			assert.Equal(t, len(tt.want) > 0, report.HasOrphans())
		})
	}
}

func TestFindOrphans_AllDefinitionsReported(t *testing.T) {
	report := analyze(t, map[string]string{
		"x.c": "int helper(void) { return 1; }\n",
		"y.c": "\n\nint helper(void) { return 2; }\n",
	}, []string{"x.c", "y.c"})

	require.Len(t, report.Orphans, 1)
	o := report.Orphans[0]
	assert.Equal(t, "helper", o.Name)
	require.Len(t, o.Definitions, 2)
	assert.Equal(t, Location{File: "x.c", Line: 1}, o.Definitions[0].Location)
	assert.Equal(t, Location{File: "y.c", Line: 3}, o.Definitions[1].Location)
}

func TestFindOrphans_Summary(t *testing.T) {
	src := source.MapSource{
		"a.c": []byte("void unused(void) { }\nint main(void) { helper(); return 0; }\n"),
		"b.c": []byte("void helper(void) { printf(); }\n"),
	}
	agg := NewAggregator(WithSource(src))
	tables, err := agg.Aggregate(context.Background(), []string{"a.c", "missing.c", "b.c"})
	require.NoError(t, err)

	report := FindOrphans(tables, WithEntryPoints("main", "not_defined"))

	assert.Equal(t, Summary{
		FilesScanned:       2,
		FilesSkipped:       1,
		DefinedFunctions:   3,
		CalledFunctions:    2,
		OrphanFunctions:    1,
		EntryPointsSkipped: 1,
	}, report.Summary)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "missing.c", report.Warnings[0].Path)
	assert.NotEmpty(t, report.Warnings[0].Reason)

	var defined, called []string
	for _, s := range report.Defined {
		defined = append(defined, s.Name)
	}
	for _, s := range report.Called {
		called = append(called, s.Name)
	}
	assert.Equal(t, []string{"helper", "main", "unused"}, defined)
	assert.Equal(t, []string{"helper", "printf"}, called)
	assert.Equal(t, []Location{{File: "a.c", Line: 2}}, report.Called[0].Locations)
}

func TestFindOrphans_Empty(t *testing.T) {
	report := FindOrphans(NewTables())
	assert.Empty(t, report.Orphans)
	assert.NotNil(t, report.Orphans)
	assert.False(t, report.HasOrphans())
	assert.Len(t, report.Fingerprint, 16)
}

func TestFindOrphans_Deterministic(t *testing.T) {
	files := map[string]string{
		"a.c": "void zeta(void) { }\nvoid alpha(void) { }\nvoid mid(void) { alpha(); }\n",
		"b.c": "void beta(void) { }\nvoid gamma(void) { }\n",
	}
	order := []string{"a.c", "b.c"}

	first := analyze(t, files, order)
	second := analyze(t, files, order)

	assert.Equal(t, []string{"beta", "gamma", "mid", "zeta"}, first.OrphanNames())
	assert.Equal(t, first, second)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestFindOrphans_FingerprintTracksLocations(t *testing.T) {
	a := analyze(t, map[string]string{"a.c": "void f(void) { }\n"}, []string{"a.c"})
	b := analyze(t, map[string]string{"a.c": "\nvoid f(void) { }\n"}, []string{"a.c"})
	c := analyze(t, map[string]string{"a.c": "void g(void) { }\n"}, []string{"a.c"})

	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestFindOrphans_MembershipIndependentOfOrder(t *testing.T) {
	files := map[string]string{
		"a.c": "void a(void) { b(); }\n",
		"b.c": "void b(void) { }\nvoid c(void) { }\n",
		"c.c": "void d(void) { c(); }\n",
	}

	forward := analyze(t, files, []string{"a.c", "b.c", "c.c"})
	reverse := analyze(t, files, []string{"c.c", "b.c", "a.c"})

	assert.Equal(t, forward.OrphanNames(), reverse.OrphanNames())
	assert.Equal(t, []string{"a", "d"}, forward.OrphanNames())
}

func TestMergeSorted(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, mergeSorted([]string{"a", "c"}, []string{"b", "c", "d"}))
	assert.Equal(t, []string{"x"}, mergeSorted(nil, []string{"x"}))
	assert.Empty(t, mergeSorted(nil, nil))
}
