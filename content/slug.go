package content

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ExistsFunc reports whether a slug is already taken. It must reflect all
// committed slugs at call time.
type ExistsFunc func(slug string) (bool, error)

// Strips combining marks after canonical decomposition, so "Café" slugifies
// to "cafe".
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from a title: diacritics folded to ASCII,
// lower-cased, runs of non-alphanumeric characters collapsed to a single
// hyphen, leading and trailing hyphens trimmed.
func Slugify(title string) string {
	folded, _, err := transform.String(asciiFold, title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	hyphen := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ResolveSlug returns a slug unique among committed slugs. The base
// candidate is the explicit slug when non-empty, otherwise the slugified
// title. On collision it probes base-1, base-2, ... and returns the first
// free variant. The loop terminates because every probe that fails consumes
// one existing slug.
func ResolveSlug(title, explicit string, exists ExistsFunc) (string, error) {
	base := explicit
	if base == "" {
		base = Slugify(title)
	}

	taken, err := exists(base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}
