package orphan

type lexState int

const (
	stateCode lexState = iota
	stateBlockComment
	stateLineComment
	stateString
	stateChar
)

// Sanitize returns a copy of src with comments and string/character literal
// contents replaced by spaces. Newlines are kept in place, so offsets and line
// numbers in the result match the input exactly.
//
// Malformed input is handled on a best-effort basis: an unterminated block
// comment blanks to end of input, and an unterminated literal stops at the end
// of its line.
func Sanitize(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	blank := func(from, to int) {
		for j := from; j < to && j < len(out); j++ {
			if out[j] != '\n' {
				out[j] = ' '
			}
		}
	}

	state := stateCode
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case stateCode:
			switch {
			case c == '/' && peek(src, i+1) == '*':
				blank(i, i+2)
				i++
				state = stateBlockComment
			case c == '/' && peek(src, i+1) == '/':
				blank(i, i+2)
				i++
				state = stateLineComment
			case c == '"':
				blank(i, i+1)
				state = stateString
			case c == '\'':
				blank(i, i+1)
				state = stateChar
			}

		case stateBlockComment:
			if c == '*' && peek(src, i+1) == '/' {
				blank(i, i+2)
				i++
				state = stateCode
				continue
			}
			blank(i, i+1)

		case stateLineComment:
			if c == '\n' {
				state = stateCode
				continue
			}
			// A backslash-newline splices the next line into the comment.
			if c == '\\' {
				if n := escapedNewline(src, i+1); n > 0 {
					blank(i, i+1+n)
					i += n
					continue
				}
			}
			blank(i, i+1)

		case stateString, stateChar:
			quote := byte('"')
			if state == stateChar {
				quote = '\''
			}
			switch {
			case c == '\\':
				if n := escapedNewline(src, i+1); n > 0 {
					blank(i, i+1+n)
					i += n
					continue
				}
				blank(i, i+2)
				i++
			case c == quote:
				blank(i, i+1)
				state = stateCode
			case c == '\n':
				state = stateCode
			default:
				blank(i, i+1)
			}
		}
	}
	return out
}

// peek returns src[i] or 0 when i is out of range.
func peek(src []byte, i int) byte {
	if i < 0 || i >= len(src) {
		return 0
	}
	return src[i]
}

// escapedNewline reports the length of the line terminator starting at i
// ("\n" or "\r\n"), or 0 when there is none.
func escapedNewline(src []byte, i int) int {
	switch peek(src, i) {
	case '\n':
		return 1
	case '\r':
		if peek(src, i+1) == '\n' {
			return 2
		}
	}
	return 0
}
