// Package normalize makes dancer names and competition places comparable
// across federations, encodings and markup.
package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownCouple is returned in place of a couple name when the federation
// did not publish who danced.
const UnknownCouple = "couple inconnu"

// foldGroups lists, for each base letter, the accented lower-case letters folded into it.
var foldGroups = map[rune]string{
	'a': "àáâãäåæāăą",
	'c': "çćĉċč",
	'd': "ðďđ",
	'e': "èéêëēĕėęě",
	'g': "ĝğġģ",
	'h': "ĥħ",
	'i': "ìíîïĩīĭįı",
	'j': "ĳĵ",
	'k': "ķĸ",
	'l': "ĺļľŀł",
	'n': "ñńņňŉŋ",
	'o': "òóôõöōŏőœ",
	'r': "ŕŗř",
	's': "śŝşš",
	't': "ţťŧ",
	'u': "ùúûüũūŭůűų",
	'y': "ýŷ",
	'z': "źżž",
}

var foldTable map[rune]rune

func init() {
	foldTable = make(map[rune]rune)
	for base, accented := range foldGroups {
		for _, r := range accented {
			foldTable[r] = base
		}
	}
}

var (
	brPattern            = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagPattern           = regexp.MustCompile(`<[^>]*>`)
	parentheticalPattern = regexp.MustCompile(`\(\s*\w+\s*\)`)
)

// FoldDiacritics lower-cases and trims text, then replaces accented latin
// letters by their base letter. Other characters are kept as is.
func FoldDiacritics(text string) string {
	return fold(text, false)
}

// FoldDiacriticsAndDots is FoldDiacritics that also turns dots into spaces,
// which splits initials such as "J.P".
func FoldDiacriticsAndDots(text string) string {
	return fold(text, true)
}

func fold(text string, removeDots bool) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(strings.ToLower(text)) {
		if base, ok := foldTable[r]; ok {
			b.WriteRune(base)
		} else if removeDots && r == '.' {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleCase capitalizes each word and lower-cases the rest.
func TitleCase(text string) string {
	// casers are stateful, never share one
	return cases.Title(language.Und).String(text)
}

// Slugify folds text into lower-case ascii words joined by dashes.
func Slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range FoldDiacritics(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// StripParenthetical removes the first "(qualifier)" found in place, like
// the department number federations append to city names.
func StripParenthetical(place string) string {
	if loc := parentheticalPattern.FindStringIndex(place); loc != nil {
		place = place[:loc[0]] + place[loc[1]:]
	}
	return strings.TrimSpace(place)
}

// ReplaceUnallowed blanks the control and symbol range (U+007F to U+00BF)
// that federations leak into their pages.
func ReplaceUnallowed(body string) string {
	return strings.Map(func(r rune) rune {
		if r >= 127 && r <= 191 {
			return ' '
		}
		return r
	}, body)
}

// CleanCoupleName turns a raw couple cell, where each dancer is written
// surname in capitals then given name and both dancers are separated by a
// <br> tag, into "Given Surname - Given Surname".
func CleanCoupleName(raw string) (string, error) {
	if strings.Contains(strings.ToLower(raw), UnknownCouple) {
		return UnknownCouple, nil
	}
	parts := brPattern.Split(raw, -1)
	if len(parts) != 2 {
		return "", fmt.Errorf("expected two dancers in %q, found %d", raw, len(parts))
	}
	dancers := make([]string, 0, len(parts))
	for _, part := range parts {
		dancer := html.UnescapeString(tagPattern.ReplaceAllString(part, ""))
		given, surname := splitDancer(dancer)
		name := strings.TrimSpace(FoldDiacriticsAndDots(given) + " " + FoldDiacriticsAndDots(surname))
		if name == "" {
			return "", fmt.Errorf("no dancer name in %q", raw)
		}
		dancers = append(dancers, TitleCase(name))
	}
	return dancers[0] + " - " + dancers[1], nil
}

// splitDancer walks case runs: upper-case letters belong to the surname,
// except the capital that starts a lower-case run.
func splitDancer(dancer string) (given, surname string) {
	var first, last []rune
	prevUpper := false
	for _, r := range dancer {
		switch {
		case isUpper(r):
			last = append(last, r)
			prevUpper = true
		case r == ' ' || r == '\'' || r == '-':
			if prevUpper {
				last = append(last, r)
			} else {
				first = append(first, r)
			}
			prevUpper = false
		default:
			if prevUpper {
				initial := last[len(last)-1]
				last = last[:len(last)-1]
				first = append(first, initial)
				prevUpper = false
			}
			first = append(first, r)
		}
	}
	return string(first), string(last)
}

// isUpper covers A-Z and the latin-1 capitals À (U+00C0) to Ý (U+00DD).
func isUpper(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 0xC0 && r <= 0xDD)
}
