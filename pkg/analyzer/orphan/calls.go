package orphan

// ExtractCalls finds call sites in sanitized text. Keywords and signature
// headers are skipped, so a definition never counts as a call of itself.
// Calls in macro bodies and in preprocessor-disabled regions are counted.
func ExtractCalls(path string, text []byte, opts ...ExtractOption) []Call {
	return Extract(path, text, opts...).Calls
}
