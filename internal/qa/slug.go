package qa

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"qaforum/internal/db"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 80

// Slugify derives a URL slug from a title: accents are stripped, letters and
// digits kept lowercase, everything else collapses into single dashes.
// The result is deterministic for a given title.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")

	if r := []rune(slug); len(r) > maxSlugLen {
		slug = strings.TrimRight(string(r[:maxSlugLen]), "-")
	}
	if slug == "" {
		return "question"
	}
	return slug
}

// uniqueSlug returns base, or base-2, base-3, ... for the first free slug.
func uniqueSlug(ctx context.Context, q *db.Queries, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		taken, err := q.SlugTaken(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
