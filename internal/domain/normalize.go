package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizePhrase prepares a quote or a catalog title for comparison:
//   - compatibility-decomposes each rune and strips combining marks, so
//     "Ｈé" becomes "he"
//   - drops a rune whose decomposition carries anything but letters and
//     digits, so "½" vanishes instead of turning into "12"
//   - keeps ASCII letters, digits and whitespace, drops everything else
//   - lowercases
//   - trims and compresses whitespace runs into single spaces
//
// The result is stable: NormalizePhrase(NormalizePhrase(s)) == NormalizePhrase(s).
func NormalizePhrase(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r < utf8.RuneSelf:
			writeASCII(&b, r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.Is(unicode.Mn, r):
		default:
			b.WriteString(foldRune(r))
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func writeASCII(b *strings.Builder, r rune) {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		b.WriteRune(r)
	case r >= 'A' && r <= 'Z':
		b.WriteRune(unicode.ToLower(r))
	case unicode.IsSpace(r):
		b.WriteByte(' ')
	}
}

// foldRune returns the lowercase ASCII letters and digits r decomposes to,
// or "" when the decomposition holds anything else besides marks.
func foldRune(r rune) string {
	var out []byte
	for _, d := range norm.NFKD.String(string(r)) {
		switch {
		case d >= 'a' && d <= 'z', d >= '0' && d <= '9':
			out = append(out, byte(d))
		case d >= 'A' && d <= 'Z':
			out = append(out, byte(unicode.ToLower(d)))
		case unicode.Is(unicode.Mn, d):
		default:
			return ""
		}
	}
	return string(out)
}

// Words splits a normalized phrase into its words. An empty phrase has none.
func Words(phrase string) []string {
	if phrase == "" {
		return nil
	}
	return strings.Split(phrase, " ")
}
