package formatting

import (
	"regexp"
	"strings"
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses every run of characters outside [a-z0-9]
// into a single hyphen. When nothing usable remains, fallback is returned.
func Slug(s, fallback string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return fallback
	}
	return slug
}
