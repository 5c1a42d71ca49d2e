package orphan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain code untouched",
			in:   "int f(void) { return g(1); }\n",
			want: "int f(void) { return g(1); }\n",
		},
		{
			name: "block comment",
			in:   "a /* legacy(); */ b",
			want: "a                 b",
		},
		{
			name: "multi-line block comment keeps newlines",
			in:   "x/* one\ntwo */y",
			want: "x      \n      y",
		},
		{
			name: "line comment",
			in:   "f(); // g();\nh();",
			want: "f();        \nh();",
		},
		{
			name: "line comment continued by backslash",
			in:   "// a \\\nb();\nc();",
			want: "      \n    \nc();",
		},
		{
			name: "string literal",
			in:   `puts("call(me)");`,
			want: `puts(          );`,
		},
		{
			name: "escaped quote inside string",
			in:   `s = "a\"b(c)"; d();`,
			want: `s =          ; d();`,
		},
		{
			name: "comment markers inside string",
			in:   `p("/* x */"); q();`,
			want: `p(         ); q();`,
		},
		{
			name: "character literals",
			in:   `c = '('; d = '\''; e();`,
			want: `c =    ; d =     ; e();`,
		},
		{
			name: "string markers inside comment",
			in:   "/* \"x\" */ y();",
			want: "          y();",
		},
		{
			name: "unterminated block comment runs to end",
			in:   "a();\n/* open\nb();",
			want: "a();\n       \n    ",
		},
		{
			name: "unterminated string stops at newline",
			in:   "x = \"open\nint f(void) {}",
			want: "x =      \nint f(void) {}",
		},
		{
			name: "string spliced across lines",
			in:   "x = \"a\\\nb\"; y();",
			want: "x =    \n  ; y();",
		},
		{
			name: "division is not a comment",
			in:   "a = b / c; d();",
			want: "a = b / c; d();",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize([]byte(tt.in))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSanitize_PreservesLength(t *testing.T) {
	in := []byte("/* a\r\n b */ int f(void)\r\n{ return \"x\\\"\"; } // tail\r\n'c'")
	out := Sanitize(in)

	assert.Len(t, out, len(in))
	assert.Equal(t, bytes.Count(in, []byte("\n")), bytes.Count(out, []byte("\n")))
	for i, c := range in {
		if c == '\n' {
			assert.Equal(t, byte('\n'), out[i], "newline at %d", i)
		}
	}
}

func TestSanitize_DoesNotModifyInput(t *testing.T) {
	in := []byte("/* x */ f();")
	orig := append([]byte(nil), in...)
	_ = Sanitize(in)
	assert.Equal(t, orig, in)
}

func TestSanitize_LargeInput(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		sb.WriteString("/* c */ int f(void) { return g(\"s\"); }\n")
	}
	out := Sanitize([]byte(sb.String()))
	assert.NotContains(t, string(out), "/*")
	assert.NotContains(t, string(out), `"s"`)
	assert.Equal(t, 10000, bytes.Count(out, []byte("\n")))
}
