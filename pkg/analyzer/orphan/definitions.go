package orphan

// ExtractOption configures extraction.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	prototypesAsCalls bool
}

// WithPrototypesAsCalls counts a declaration header ("int f(int);") as a
// reference to the declared name. By default prototypes are neither
// definitions nor calls.
func WithPrototypesAsCalls() ExtractOption {
	return func(c *extractConfig) {
		c.prototypesAsCalls = true
	}
}

// ExtractDefinitions finds function definitions in sanitized text. Only
// signatures followed by a body count; prototypes are ignored.
func ExtractDefinitions(path string, text []byte) []Definition {
	src := newScanBuf(text)
	var defs []Definition
	src.candidates(func(c candidate) {
		if c.kind != sigDefinition {
			return
		}
		defs = append(defs, Definition{
			Name:     c.name,
			Location: Location{File: path, Line: src.line(c.offset) + 1},
		})
	})
	return defs
}

// Extract runs the definition and call extractors over sanitized text in a
// single pass.
func Extract(path string, text []byte, opts ...ExtractOption) *FileResult {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	src := newScanBuf(text)
	fr := &FileResult{
		Path:        path,
		Definitions: make([]Definition, 0),
		Calls:       make([]Call, 0),
	}
	src.candidates(func(c candidate) {
		loc := Location{File: path, Line: src.line(c.offset) + 1}
		switch {
		case c.kind == sigDefinition:
			fr.Definitions = append(fr.Definitions, Definition{Name: c.name, Location: loc})
		case c.kind == sigDeclaration && !cfg.prototypesAsCalls:
		default:
			fr.Calls = append(fr.Calls, Call{Name: c.name, Location: loc})
		}
	})
	return fr
}
