package extract

import (
	"unicode"
	"unicode/utf8"
)

// AcceptsBorder reports whether the span [start,end) of text sits on word
// edges. Each edge looks at the rune before and the rune after it: the edge
// is acceptable when it touches the start or end of text, or when exactly one
// of the two runes is a word rune. Matches buried inside a larger token fail.
func AcceptsBorder(text string, start, end int) bool {
	return edgeOK(text, start) && edgeOK(text, end)
}

func edgeOK(text string, pos int) bool {
	if pos < 0 || pos > len(text) {
		return false
	}
	hasLeft, hasRight := pos > 0, pos < len(text)
	if !hasLeft || !hasRight {
		return hasLeft || hasRight
	}

	left, _ := utf8.DecodeLastRuneInString(text[:pos])
	right, _ := utf8.DecodeRuneInString(text[pos:])
	return isWordRune(left) != isWordRune(right)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
