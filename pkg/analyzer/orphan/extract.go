package orphan

import "sort"

// signatureKind classifies an "identifier (" occurrence.
type signatureKind int

const (
	sigNone        signatureKind = iota // call or other expression
	sigDeclaration                      // header terminated by ';'
	sigDefinition                       // header followed by a body
)

// candidate is an identifier immediately followed by "(".
type candidate struct {
	name   string
	offset int
	kind   signatureKind
}

// scanBuf is a sanitized buffer with a line index.
type scanBuf struct {
	text       []byte
	lineStarts []int
	directive  []bool // per line: part of a preprocessor directive
}

func newScanBuf(text []byte) *scanBuf {
	s := &scanBuf{text: text, lineStarts: []int{0}}
	for i, c := range text {
		if c == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}

	s.directive = make([]bool, len(s.lineStarts))
	continued := false
	for line, start := range s.lineStarts {
		end := len(text)
		if line+1 < len(s.lineStarts) {
			end = s.lineStarts[line+1] - 1
		}
		isDirective := continued || firstNonBlank(text[start:end]) == '#'
		s.directive[line] = isDirective
		continued = isDirective && endsWithBackslash(text[start:end])
	}
	return s
}

// line returns the 0-based line index containing offset.
func (s *scanBuf) line(offset int) int {
	return sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	}) - 1
}

func (s *scanBuf) inDirective(offset int) bool {
	return s.directive[s.line(offset)]
}

func (s *scanBuf) atLineStart(offset int) bool {
	return s.lineStarts[s.line(offset)] == offset
}

// candidates calls fn for every non-keyword identifier followed by "(",
// classified as definition header, declaration header or neither.
func (s *scanBuf) candidates(fn func(candidate)) {
	text := s.text
	var scopes scopeStack
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '{' && !s.inDirective(i):
			scopes.push(s.isLinkageBlock(i))
			continue
		case c == '}' && !s.inDirective(i):
			scopes.pop()
			continue
		case !isIdentStart(c) || (i > 0 && isIdentChar(text[i-1])):
			continue
		}
		j := i + 1
		for j < len(text) && isIdentChar(text[j]) {
			j++
		}
		name := string(text[i:j])
		open := s.skipSpace(j)
		if open < len(text) && text[open] == '(' && !keywords[name] {
			fn(candidate{name: name, offset: i, kind: s.classify(i, open, scopes.fileScope())})
		}
		i = j - 1
	}
}

// scopeStack tracks open braces. extern "C" blocks do not leave file scope.
type scopeStack struct {
	linkage []bool
	opaque  int
}

func (st *scopeStack) push(linkage bool) {
	st.linkage = append(st.linkage, linkage)
	if !linkage {
		st.opaque++
	}
}

func (st *scopeStack) pop() {
	n := len(st.linkage)
	if n == 0 {
		return
	}
	if !st.linkage[n-1] {
		st.opaque--
	}
	st.linkage = st.linkage[:n-1]
}

func (st *scopeStack) fileScope() bool {
	return st.opaque == 0
}

// isLinkageBlock reports whether the '{' at brace opens an extern "C" block.
// The string literal is already blanked, so only "extern" remains.
func (s *scanBuf) isLinkageBlock(brace int) bool {
	j := s.skipSpaceBack(brace - 1)
	k := j
	for k >= 0 && isIdentChar(s.text[k]) {
		k--
	}
	return j >= 0 && string(s.text[k+1:j+1]) == "extern"
}

// classify decides whether the identifier at nameStart, whose argument list
// opens at open, is the header of a definition or a declaration. Declarations
// only exist at file scope; inside a body "a * g(b);" is an expression.
func (s *scanBuf) classify(nameStart, open int, fileScope bool) signatureKind {
	if s.inDirective(nameStart) {
		return sigNone
	}

	end := s.matchParen(open)
	if end < 0 {
		return sigNone
	}
	next := s.skipAttributes(end + 1)
	if next >= len(s.text) {
		return sigNone
	}

	typeTokens, ok := s.typePrefix(nameStart)
	switch s.text[next] {
	case '{':
		// At file scope "name(...) {" can only open a function body.
		if fileScope || (ok && (typeTokens > 0 || s.atLineStart(nameStart))) {
			return sigDefinition
		}
	case ';':
		// An unindented "name(...);" with no type is far more often a macro
		// invocation than an implicit-int prototype.
		if fileScope && ok && typeTokens > 0 {
			return sigDeclaration
		}
	}
	return sigNone
}

// typePrefix walks backwards from nameStart to the start of the statement and
// counts the type tokens (identifiers and '*') in front of the name. It fails
// when anything other than a type-like token precedes the name.
//
// A parenthesized group that is not an attribute ends the walk when it closes
// on an earlier line: that is a macro invocation such as SEC("xdp") or
// DEFINE_LOCK(x) standing on its own line without a ';'.
func (s *scanBuf) typePrefix(nameStart int) (int, bool) {
	text := s.text
	tokens := 0
	after := nameStart // start of the leftmost token consumed so far
	j := nameStart - 1
	for {
		j = s.skipSpaceBack(j)
		if j < 0 || s.inDirective(j) {
			return tokens, true
		}

		c := text[j]
		switch {
		case c == ';' || c == '{' || c == '}':
			return tokens, true
		case c == '*':
			tokens++
			after = j
			j--
		case isIdentChar(c):
			k := j
			for k >= 0 && isIdentChar(text[k]) {
				k--
			}
			word := string(text[k+1 : j+1])
			if !isIdentStart(word[0]) || statementKeywords[word] {
				return 0, false
			}
			tokens++
			after = k + 1
			j = k
		case c == ')':
			if start, ok := s.attributeGroup(j); ok {
				after = start
				j = start - 1
				continue
			}
			if s.line(j) < s.line(after) {
				return tokens, true
			}
			return 0, false
		default:
			return 0, false
		}
	}
}

// attributeGroup reports whether the ')' at close ends an attribute group
// such as __attribute__((unused)), and where its keyword starts.
func (s *scanBuf) attributeGroup(close int) (int, bool) {
	open := s.matchParenBack(close)
	if open < 0 {
		return 0, false
	}
	w := s.skipSpaceBack(open - 1)
	k := w
	for k >= 0 && isIdentChar(s.text[k]) {
		k--
	}
	if w < 0 || !attributeKeywords[string(s.text[k+1:w+1])] {
		return 0, false
	}
	return k + 1, true
}

// skipAttributes skips whitespace and any attribute groups such as
// __attribute__((noreturn)) starting at i.
func (s *scanBuf) skipAttributes(i int) int {
	text := s.text
	for {
		i = s.skipSpace(i)
		if i >= len(text) || !isIdentStart(text[i]) {
			return i
		}
		j := i
		for j < len(text) && isIdentChar(text[j]) {
			j++
		}
		if !attributeKeywords[string(text[i:j])] {
			return i
		}
		open := s.skipSpace(j)
		if open >= len(text) || text[open] != '(' {
			return i
		}
		end := s.matchParen(open)
		if end < 0 {
			return i
		}
		i = end + 1
	}
}

// matchParen returns the offset of the ')' closing the '(' at open, or -1.
// A parameter list never contains a statement terminator or a brace, so the
// scan stops at the first one.
func (s *scanBuf) matchParen(open int) int {
	depth := 0
	for i := open; i < len(s.text); i++ {
		switch s.text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case ';', '{', '}':
			return -1
		}
	}
	return -1
}

// matchParenBack returns the offset of the '(' opening the ')' at close, or -1.
func (s *scanBuf) matchParenBack(close int) int {
	depth := 0
	for i := close; i >= 0; i-- {
		switch s.text[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		case ';', '{', '}':
			return -1
		}
	}
	return -1
}

func (s *scanBuf) skipSpace(i int) int {
	for i < len(s.text) && isSpace(s.text[i]) {
		i++
	}
	return i
}

func (s *scanBuf) skipSpaceBack(i int) int {
	for i >= 0 && isSpace(s.text[i]) {
		i--
	}
	return i
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func firstNonBlank(line []byte) byte {
	for _, c := range line {
		if c != ' ' && c != '\t' {
			return c
		}
	}
	return 0
}

func endsWithBackslash(line []byte) bool {
	for i := len(line) - 1; i >= 0; i-- {
		switch line[i] {
		case ' ', '\t', '\r':
			continue
		case '\\':
			return true
		default:
			return false
		}
	}
	return false
}
