package sitteradapter

// KCL constructs the bundled grammar does not know are masked before parsing.
// Masking never changes a byte offset, so spans of the masked parse address
// the original text:
//
//	a |> f(%)        →  a |  f(_)
//	fn cube = (s) => →     cube = (s) =>
//
// Classify and Convert receive the original text and recognise the masked
// constructs from it.

const (
	pipeOperator = "|>"
	substitution = "%"
	fnKeyword    = "fn"
)

// Mask returns src with pipes, pipe substitutions and fn keywords replaced by
// text of the same length that the grammar accepts. src is returned unchanged
// when there is nothing to mask.
func Mask(src []byte) []byte {
	var out []byte
	set := func(i int, b byte) {
		if out == nil {
			out = append([]byte(nil), src...)
		}
		out[i] = b
	}

	var prev byte
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				i++
			}
			i += 2
			continue
		case c == '"' || c == '\'' || c == '`':
			i = skipString(src, i)
			prev = c
			continue
		case c == '|' && i+1 < len(src) && src[i+1] == '>':
			set(i+1, ' ')
			prev = '|'
			i += 2
			continue
		case c == '%' && operandPosition(prev) && !(i+1 < len(src) && src[i+1] == '='):
			set(i, '_')
			prev = '_'
			i++
			continue
		case c == 'f' && isFnKeyword(src, i):
			set(i, ' ')
			set(i+1, ' ')
			i += 2
			continue
		case isIdentByte(c):
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			prev = c
			continue
		}
		if !isSpace(c) {
			prev = c
		}
		i++
	}

	if out == nil {
		return src
	}
	return out
}

// skipString returns the offset just past the string literal opening at i. An
// unterminated literal runs to the end of its line, or of the text for a
// template.
func skipString(src []byte, i int) int {
	quote := src[i]
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i
			}
		}
	}
	return len(src)
}

// operandPosition reports whether a "%" following prev stands for a value
// rather than the remainder operator.
func operandPosition(prev byte) bool {
	switch prev {
	case '(', ',', '[', '{', ':', '|':
		return true
	}
	return false
}

// isFnKeyword reports whether src[i:] starts a "fn name =" declaration.
func isFnKeyword(src []byte, i int) bool {
	if i+len(fnKeyword) > len(src) || string(src[i:i+len(fnKeyword)]) != fnKeyword {
		return false
	}
	if i > 0 && isIdentByte(src[i-1]) {
		return false
	}
	j := i + len(fnKeyword)
	if j >= len(src) || !isBlank(src[j]) {
		return false
	}
	for j < len(src) && isBlank(src[j]) {
		j++
	}
	if j >= len(src) || !isIdentStart(src[j]) {
		return false
	}
	for j < len(src) && isIdentByte(src[j]) {
		j++
	}
	for j < len(src) && isBlank(src[j]) {
		j++
	}
	if j >= len(src) || src[j] != '=' {
		return false
	}
	return j+1 >= len(src) || (src[j+1] != '=' && src[j+1] != '>')
}

// fnKeywordBefore returns the offset of the fn keyword that declares the name
// starting at offset, if there is one.
func fnKeywordBefore(src []byte, offset int) (int, bool) {
	i := offset
	for i > 0 && isBlank(src[i-1]) {
		i--
	}
	start := i - len(fnKeyword)
	if i == offset || start < 0 || string(src[start:i]) != fnKeyword {
		return 0, false
	}
	if start > 0 && isIdentByte(src[start-1]) {
		return 0, false
	}
	return start, true
}

func isPipeAt(src []byte, offset int) bool {
	return offset+len(pipeOperator) <= len(src) && string(src[offset:offset+len(pipeOperator)]) == pipeOperator
}

func isSubstitutionAt(src []byte, offset int) bool {
	return offset < len(src) && src[offset] == substitution[0]
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
