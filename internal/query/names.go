package query

import "regexp"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var reserved = map[string]bool{
	"let": true, "const": true, "var": true, "fn": true, "function": true,
	"return": true, "if": true, "else": true, "for": true, "while": true,
	"do": true, "break": true, "continue": true, "switch": true, "case": true,
	"default": true, "new": true, "this": true, "class": true, "import": true,
	"export": true, "from": true, "in": true, "of": true, "typeof": true,
	"true": true, "false": true, "null": true, "undefined": true, "show": true,
}

// ValidName reports whether name can be used as a binding name.
func ValidName(name string) bool {
	return identifierPattern.MatchString(name) && !reserved[name]
}
