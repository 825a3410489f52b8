package views

import (
	"strings"
	"unicode/utf8"
)

// sanitizeForTerminal drops codepoints that tcell renders badly: skin tone
// modifiers, zero width joiners, variation selectors and C0/C1 controls
// other than newline and tab.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// singleLine sanitizes s and folds line breaks into spaces, for table cells.
func singleLine(s string) string {
	return strings.Join(strings.Fields(sanitizeForTerminal(s)), " ")
}

func isProblematicRune(r rune) bool {
	switch {
	case r == '\n' || r == '\t':
		return false
	case r < 0x20 || (r >= 0x7F && r <= 0x9F):
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}
