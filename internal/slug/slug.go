// Package slug validates and derives the URL-safe identifiers that key
// both the blog index and the per-post files on disk. Every externally
// supplied slug must pass Validate before it is joined into a path.
package slug

import (
	"fmt"
	"strings"

	"github.com/harlan/vitrin/internal/apperr"
)

// MaxLength bounds slug size; anything longer is rejected outright.
const MaxLength = 200

// Validate normalizes raw to lowercase and returns it if it is a safe
// identifier: non-empty, within MaxLength, no path separators, no parent
// references, and only [a-z0-9-] characters.
func Validate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("%w: empty", apperr.ErrInvalidSlug)
	}
	if len(s) > MaxLength {
		return "", fmt.Errorf("%w: exceeds %d characters", apperr.ErrInvalidSlug, MaxLength)
	}
	if strings.ContainsAny(s, `/\`) {
		return "", fmt.Errorf("%w: contains path separator", apperr.ErrInvalidSlug)
	}
	if strings.Contains(s, "..") {
		return "", fmt.Errorf("%w: contains parent reference", apperr.ErrInvalidSlug)
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", fmt.Errorf("%w: character %q not allowed", apperr.ErrInvalidSlug, r)
		}
	}
	return s, nil
}

// Slugify converts a free-form title into a slug: lowercase, runs of
// non-alphanumeric characters collapsed into single hyphens.
func Slugify(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	hyphened := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphened = false
		default:
			if !hyphened && b.Len() > 0 {
				b.WriteByte('-')
				hyphened = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}
