package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify folds s into a URL-safe slug: "Ficção científica" -> "ficcao-cientifica",
// "Sci-Fi & Fantasy" -> "sci-fi-fantasy".
func Slugify(s string) string {
	folded := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return unicode.ToLower(r)
	}, norm.NFKD.String(s))

	return strings.Trim(slugSeparators.ReplaceAllString(folded, "-"), "-")
}
