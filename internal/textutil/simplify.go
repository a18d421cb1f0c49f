package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lowerCaser = cases.Lower(language.Und)

// SimplifiedName returns the comparison key for a title. Two titles are
// considered the same show when their simplified names are equal.
func SimplifiedName(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	folded = lowerCaser.String(folded)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanTitle replaces separators with single spaces and trims the result.
// Letters, digits and common title punctuation are kept.
func CleanTitle(value string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune("'!&,()", r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// TitleCase capitalises each word of an all-lowercase title. Titles with any
// upper-case letter are returned unchanged.
func TitleCase(value string) string {
	if strings.ToLower(value) != value {
		return value
	}
	return cases.Title(language.Und).String(value)
}
