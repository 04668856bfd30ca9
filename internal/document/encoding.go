package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The built-in PDF fonts only cover CP1252, so text is folded to the nearest
// representable equivalent before layout. The substitution is lossy but
// deterministic: the Hungarian double-acute vowels map to their umlaut
// neighbours, everything else loses its combining marks.
var substitutions = map[rune]rune{
	'ő': 'ö',
	'Ő': 'Ö',
	'ű': 'ü',
	'Ű': 'Ü',
	'–': '-',
	'—': '-',
	'„': '"',
	'”': '"',
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText replaces runes the CP1252 core fonts cannot render with their
// visually nearest equivalents.
func foldText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if sub, ok := substitutions[r]; ok {
			b.WriteRune(sub)
			continue
		}
		if r < 0x180 || r == '€' {
			b.WriteRune(r)
			continue
		}
		stripped, _, err := transform.String(stripMarks, string(r))
		if err != nil || stripped == "" {
			b.WriteRune('?')
			continue
		}
		b.WriteString(stripped)
	}
	return b.String()
}

// fileSlug reduces a name part to ASCII letters, digits and dashes so it is
// safe inside an artifact filename.
func fileSlug(s string) string {
	folded, _, err := transform.String(stripMarks, foldText(s))
	if err != nil {
		folded = s
	}
	var b strings.Builder
	lastDash := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
