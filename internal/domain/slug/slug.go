// Package slug derives URL-safe slugs from protocol display names.
package slug

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify returns the slug for a display name: accents folded to their base
// letters, lower-cased, every run of characters outside [a-z0-9] replaced by a
// single hyphen, leading and trailing hyphens removed.
//
// Slugify never fails. Empty or all-separator input yields an empty slug.
// Slugify(Slugify(s)) == Slugify(s) for every s.
func Slugify(name string) string {
	folded := fold(name)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// fold decomposes s (NFKD) and strips combining marks so "Café" becomes "Cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Collisions groups entity ids by slug and returns only slugs shared by more
// than one id. names maps entity id to display name. Id lists are sorted.
func Collisions(names map[string]string) map[string][]string {
	bySlug := make(map[string][]string)
	for id, name := range names {
		s := Slugify(name)
		bySlug[s] = append(bySlug[s], id)
	}

	out := make(map[string][]string)
	for s, ids := range bySlug {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		out[s] = ids
	}
	return out
}
