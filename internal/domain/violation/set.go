package violation

import (
	"sort"
	"strings"
	"sync"
)

// Set collects violations keyed by kind and entity id. Adding the same key
// twice merges the details, so the resulting set does not depend on the order
// checks ran in or the order records were enumerated in.
// Set is safe for concurrent use.
type Set struct {
	mu    sync.Mutex
	items map[key]*entry
}

type entry struct {
	v       Violation
	details map[string]struct{}
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{items: make(map[key]*entry)}
}

// Add inserts violations into the set.
func (s *Set) Add(vs ...Violation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vs {
		k := key{kind: v.Kind, entityID: v.EntityID}
		e, ok := s.items[k]
		if !ok {
			e = &entry{v: v, details: make(map[string]struct{})}
			s.items[k] = e
		}
		if e.v.Name == "" || (v.Name != "" && v.Name < e.v.Name) {
			e.v.Name = v.Name
		}
		if v.Detail != "" {
			e.details[v.Detail] = struct{}{}
		}
	}
}

// Len returns the number of distinct violations.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Violations returns the set's contents sorted by kind, then entity id.
// Merged details are sorted and joined with "; ".
func (s *Set) Violations() []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Violation, 0, len(s.items))
	for _, e := range s.items {
		v := e.v
		details := make([]string, 0, len(e.details))
		for d := range e.details {
			details = append(details, d)
		}
		sort.Strings(details)
		v.Detail = strings.Join(details, "; ")
		out = append(out, v)
	}
	sortViolations(out)
	return out
}

// Report builds the grouped report from the set's contents.
func (s *Set) Report() *Report {
	return NewReport(s.Violations())
}

func sortViolations(vs []Violation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Kind != vs[j].Kind {
			return vs[i].Kind < vs[j].Kind
		}
		return vs[i].EntityID < vs[j].EntityID
	})
}

func sortKinds(ks []Kind) {
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
}
