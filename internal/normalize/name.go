package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name returns the display and matching forms of a raw name. The display
// form is whitespace-collapsed and title-cased; the matching form is
// lowercase with diacritics and punctuation stripped.
func Name(raw string) (display, match string) {
	display = strings.Join(strings.Fields(raw), " ")
	// cases.Caser carries transform state, so build one per call rather
	// than sharing across goroutines.
	display = cases.Title(language.AmericanEnglish).String(display)
	return display, matchForm(display)
}

func matchForm(s string) string {
	s = strings.ToLower(s)
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripper, s); err == nil {
		s = out
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
