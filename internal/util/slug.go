// Package util holds small text helpers shared across packages.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
	multipleDashRe    = regexp.MustCompile(`-+`)
)

// NormalizeTagSlug converts a tag as typed by a user into its canonical slug.
// The slug is the identity of a tag: two inputs with the same slug are the
// same tag.
//
//	"Next.js"        -> "next-js"
//	"Tailwind CSS"   -> "tailwind-css"
//	"Café_Au/Lait"   -> "cafe-au-lait"
//	"  --API--  "    -> "api"
//	"🐉"             -> ""
func NormalizeTagSlug(input string) string {
	// Decompose accented characters so the base letter survives ASCII filtering.
	s := norm.NFKD.String(strings.TrimSpace(input))

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeTags slugs every tag, dropping empty results and duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		slug := NormalizeTagSlug(t)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}
