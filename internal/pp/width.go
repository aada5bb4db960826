package pp

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// GraphemeWidth approximates the grapheme-cluster count of s by
// iterating its NFC-normalized boundaries and skipping non-spacing
// combining marks, matching the lexer's column accounting. Used when the document-building phase turns source text
// into Unicode nodes; the layout phase itself only ever trusts the
// pre-computed Width field.
func GraphemeWidth(s string) int {
	var iter norm.Iter
	iter.InitString(norm.NFC, s)
	width := 0
	for !iter.Done() {
		cluster := iter.Next()
		if isZeroWidthCluster(cluster) {
			continue
		}
		width++
	}
	return width
}

func isZeroWidthCluster(b []byte) bool {
	r := decodeFirstRune(b)
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || unicode.Is(unicode.Cf, r)
}

func decodeFirstRune(b []byte) rune {
	for _, r := range string(b) {
		return r
	}
	return 0
}
