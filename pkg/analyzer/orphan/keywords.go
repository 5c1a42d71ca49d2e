package orphan

// keywords are never function names even when followed by "(".
var keywords = map[string]bool{
	// C89
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "int": true, "long": true, "register": true, "return": true,
	"short": true, "signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true,
	// C99 / C11 / C23
	"inline": true, "restrict": true, "_Bool": true, "_Complex": true,
	"_Imaginary": true, "_Alignas": true, "_Alignof": true, "_Atomic": true,
	"_Generic": true, "_Noreturn": true, "_Static_assert": true,
	"_Thread_local": true, "alignas": true, "alignof": true, "bool": true,
	"static_assert": true, "thread_local": true, "typeof": true,
	"typeof_unqual": true, "nullptr": true,
	// preprocessor operators and common compiler extensions
	"defined": true, "__attribute__": true, "__attribute": true,
	"__declspec": true, "__typeof__": true, "__typeof": true, "__asm__": true,
	"__asm": true, "asm": true, "__extension__": true, "__builtin_offsetof": true,
	"__builtin_va_arg": true, "_Packed": true,
}

// statementKeywords cannot appear in the type prefix of a signature.
var statementKeywords = map[string]bool{
	"break": true, "case": true, "continue": true, "default": true, "do": true,
	"else": true, "for": true, "goto": true, "if": true, "return": true,
	"sizeof": true, "switch": true, "while": true, "_Alignof": true,
	"alignof": true, "defined": true,
}

// attributeKeywords introduce a parenthesized group that may sit between a
// signature and its body or in front of the return type.
var attributeKeywords = map[string]bool{
	"__attribute__": true,
	"__attribute":   true,
	"__declspec":    true,
	"_Alignas":      true,
	"alignas":       true,
	"__asm__":       true,
	"__asm":         true,
	"asm":           true,
}

// IsKeyword reports whether name is on the fixed exclusion list.
func IsKeyword(name string) bool {
	return keywords[name]
}
