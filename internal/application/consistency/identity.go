package consistency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/regcheck/internal/domain/registry"
	"github.com/zjrosen/regcheck/internal/domain/slug"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// duplicates reports every member of every duplicate group of one lookup.
// Each member gets its own violation naming the others, so a pair produces
// two violations regardless of which record was seen first.
func (c *Checker) duplicates(lookup registry.Lookup, kind violation.Kind, skip map[string]struct{}) []violation.Violation {
	dups := c.idx.Duplicates(lookup)
	keys := make([]string, 0, len(dups))
	for k := range dups {
		if _, ok := skip[k]; ok {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []violation.Violation
	for _, key := range keys {
		refs := dups[key]
		for i, ref := range refs {
			out = append(out, violation.New(kind, ref.ID, ref.Name,
				"%s %q shared with %s", lookup, key, describeOthers(refs, i)))
		}
	}
	return out
}

func describeOthers(refs []registry.Ref, self int) string {
	others := make([]string, 0, len(refs)-1)
	for i, r := range refs {
		if i == self {
			continue
		}
		label := r.ID
		if r.Parent {
			label += " (parent)"
		}
		if r.Name != "" {
			label += fmt.Sprintf(" %q", r.Name)
		}
		others = append(others, label)
	}
	return strings.Join(others, ", ")
}

// UniqueIDs reports ids shared by protocols or parent protocols.
func (c *Checker) UniqueIDs() []violation.Violation {
	return c.duplicates(registry.IndexID, violation.KindDuplicateID, nil)
}

// UniqueNames reports names, including previous names, that collide after
// trimming and lower-casing.
func (c *Checker) UniqueNames() []violation.Violation {
	return c.duplicates(registry.IndexName, violation.KindDuplicateName, nil)
}

// UniqueSlugs reports slug collisions and names whose slug is empty.
func (c *Checker) UniqueSlugs() []violation.Violation {
	out := c.duplicates(registry.IndexSlug, violation.KindDuplicateSlug, nil)

	for _, p := range c.idx.Protocols() {
		if slug.Slugify(p.Name) == "" {
			out = append(out, violation.New(violation.KindEmptySlug, p.ID, p.Name, "name %q produces an empty slug", p.Name))
		}
	}
	for _, p := range c.idx.Parents() {
		if slug.Slugify(p.Name) == "" {
			out = append(out, violation.New(violation.KindEmptySlug, p.ID, p.Name, "name %q produces an empty slug", p.Name))
		}
	}
	return out
}

// UniqueModules reports adapter modules used by more than one protocol.
// Sentinel modules meaning "no adapter" may repeat.
func (c *Checker) UniqueModules() []violation.Violation {
	return c.duplicates(registry.IndexModule, violation.KindDuplicateModule, c.sentinels)
}

// UniqueGeckoIDs reports coingecko ids used by more than one protocol.
func (c *Checker) UniqueGeckoIDs() []violation.Violation {
	return c.duplicates(registry.IndexGeckoID, violation.KindDuplicateGeckoID, nil)
}
