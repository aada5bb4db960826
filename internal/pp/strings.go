package pp

import (
	"fmt"
	"strings"
)

// QuoteString implements the string-literal rendering rules: double
// quotes when the value contains a single quote, single quotes
// otherwise, with `\t \r \n \0 \e \\ \' \" \$` and `\u{HEX}` escapes.
func QuoteString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch r {
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case 0:
			b.WriteString(`\0`)
		case 0x1b:
			b.WriteString(`\e`)
		case '\\':
			b.WriteString(`\\`)
		case '$':
			b.WriteString(`\$`)
		case rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u{%x}`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte(quote)
	return b.String()
}
