package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/regcheck/internal/domain/slug"
)

// Index errors
var (
	ErrNilRegistry  = errors.New("registry cannot be nil")
	ErrDuplicateKey = errors.New("duplicate index key")
)

// Lookup identifies one of the key spaces an Index maintains.
type Lookup string

const (
	IndexID      Lookup = "id"
	IndexName    Lookup = "name"
	IndexSlug    Lookup = "slug"
	IndexModule  Lookup = "module"
	IndexGeckoID Lookup = "gecko_id"
)

// indexOrder is the order strict construction inspects indices in.
var indexOrder = []Lookup{IndexID, IndexName, IndexSlug, IndexModule, IndexGeckoID}

// DuplicateKeyError is returned by a strict NewIndex when two records share a key.
type DuplicateKeyError struct {
	Index Lookup
	Key   string
	IDs   []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s %q shared by %s", e.Index, e.Key, strings.Join(e.IDs, ", "))
}

// Is makes errors.Is(err, ErrDuplicateKey) match.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// Ref points at one record held by an Index.
type Ref struct {
	ID     string
	Name   string
	Parent bool // true for a ParentProtocol, false for a Protocol
}

// IndexOption configures NewIndex.
type IndexOption func(*indexOptions)

type indexOptions struct {
	strict bool
	exempt map[Lookup]map[string]struct{}
}

// WithStrict makes NewIndex fail on the first duplicate key instead of
// recording it.
func WithStrict() IndexOption {
	return func(o *indexOptions) {
		o.strict = true
	}
}

// WithExemptKeys marks keys of one index that may be shared, such as the
// placeholder module "dummy.js". Exempt keys are still indexed but never
// reported as duplicates.
func WithExemptKeys(name Lookup, keys ...string) IndexOption {
	return func(o *indexOptions) {
		if o.exempt[name] == nil {
			o.exempt[name] = make(map[string]struct{})
		}
		for _, k := range keys {
			o.exempt[name][k] = struct{}{}
		}
	}
}

// Index is a read-only view over a Registry with multiset lookups.
type Index struct {
	protocols  []Protocol
	parents    []ParentProtocol
	treasuries []Treasury
	emissions  []EmissionsAdapter
	dimensions DimensionConfig
	stats      *StatsSnapshot

	protocolPos map[string]int
	parentPos   map[string]int
	lookups     map[Lookup]map[string][]Ref
	exempt      map[Lookup]map[string]struct{}
}

// NameKey is the key names are compared by: trimmed and lower-cased.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewIndex builds the lookups for reg. The registry is never modified; the
// index keeps its own copies of the record slices.
func NewIndex(reg *Registry, opts ...IndexOption) (*Index, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}

	o := indexOptions{exempt: make(map[Lookup]map[string]struct{})}
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{
		protocols:  append([]Protocol(nil), reg.Protocols...),
		parents:    append([]ParentProtocol(nil), reg.Parents...),
		treasuries: append([]Treasury(nil), reg.Treasuries...),
		emissions:  append([]EmissionsAdapter(nil), reg.Emissions...),
		dimensions: copyDimensions(reg.Dimensions),

		protocolPos: make(map[string]int, len(reg.Protocols)),
		parentPos:   make(map[string]int, len(reg.Parents)),
		lookups:     make(map[Lookup]map[string][]Ref, len(indexOrder)),
		exempt:      o.exempt,
	}
	if reg.Stats != nil {
		s := *reg.Stats
		s.ByCategory = make(map[string]CategoryStats, len(reg.Stats.ByCategory))
		for k, v := range reg.Stats.ByCategory {
			s.ByCategory[k] = v
		}
		idx.stats = &s
	}
	for _, name := range indexOrder {
		idx.lookups[name] = make(map[string][]Ref)
	}

	for i, p := range idx.protocols {
		if _, ok := idx.protocolPos[p.ID]; !ok {
			idx.protocolPos[p.ID] = i
		}
		ref := Ref{ID: p.ID, Name: p.Name}
		idx.add(IndexID, p.ID, ref)
		idx.addNames(ref, p.Name, p.PreviousNames)
		idx.add(IndexSlug, slug.Slugify(p.Name), ref)
		idx.add(IndexModule, p.Module, ref)
		idx.add(IndexGeckoID, p.GeckoID, ref)
	}
	for i, p := range idx.parents {
		if _, ok := idx.parentPos[p.ID]; !ok {
			idx.parentPos[p.ID] = i
		}
		ref := Ref{ID: p.ID, Name: p.Name, Parent: true}
		idx.add(IndexID, p.ID, ref)
		idx.addNames(ref, p.Name, p.PreviousNames)
		idx.add(IndexSlug, slug.Slugify(p.Name), ref)
	}

	if o.strict {
		for _, name := range indexOrder {
			dups := idx.Duplicates(name)
			if len(dups) == 0 {
				continue
			}
			keys := make([]string, 0, len(dups))
			for k := range dups {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return nil, &DuplicateKeyError{Index: name, Key: keys[0], IDs: refIDs(dups[keys[0]])}
		}
	}

	return idx, nil
}

func (idx *Index) add(name Lookup, key string, ref Ref) {
	if key == "" {
		return
	}
	idx.lookups[name][key] = append(idx.lookups[name][key], ref)
}

// addNames indexes a record once per distinct folded name.
func (idx *Index) addNames(ref Ref, name string, previous []string) {
	seen := make(map[string]struct{}, len(previous)+1)
	for _, n := range append([]string{name}, previous...) {
		k := NameKey(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		idx.add(IndexName, k, ref)
	}
}

func (idx *Index) lookup(name Lookup, key string) []Ref {
	refs := idx.lookups[name][key]
	if len(refs) == 0 {
		return nil
	}
	return append([]Ref(nil), refs...)
}

// ByID returns every record with the given id.
func (idx *Index) ByID(id string) []Ref { return idx.lookup(IndexID, id) }

// ByName returns every record whose name or previous name folds to name's key.
func (idx *Index) ByName(name string) []Ref { return idx.lookup(IndexName, NameKey(name)) }

// BySlug returns every record whose name slugifies to s.
func (idx *Index) BySlug(s string) []Ref { return idx.lookup(IndexSlug, s) }

// ByModule returns every protocol using the adapter module.
func (idx *Index) ByModule(module string) []Ref { return idx.lookup(IndexModule, module) }

// ByGeckoID returns every protocol with the coingecko id. Parents are not
// indexed by gecko id: a child keeps its parent's id while metadata moves up.
func (idx *Index) ByGeckoID(id string) []Ref { return idx.lookup(IndexGeckoID, id) }

// Duplicates returns the keys of one index that map to more than one record,
// with the records sorted by id. Exempt keys are left out.
func (idx *Index) Duplicates(name Lookup) map[string][]Ref {
	out := make(map[string][]Ref)
	for key, refs := range idx.lookups[name] {
		if len(refs) < 2 {
			continue
		}
		if _, ok := idx.exempt[name][key]; ok {
			continue
		}
		sorted := append([]Ref(nil), refs...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].ID != sorted[j].ID {
				return sorted[i].ID < sorted[j].ID
			}
			if sorted[i].Parent != sorted[j].Parent {
				return !sorted[i].Parent
			}
			return sorted[i].Name < sorted[j].Name
		})
		out[key] = sorted
	}
	return out
}

// Protocol returns the first protocol with the id.
func (idx *Index) Protocol(id string) (Protocol, bool) {
	i, ok := idx.protocolPos[id]
	if !ok {
		return Protocol{}, false
	}
	return idx.protocols[i], true
}

// Parent returns the first parent protocol with the id.
func (idx *Index) Parent(id string) (ParentProtocol, bool) {
	i, ok := idx.parentPos[id]
	if !ok {
		return ParentProtocol{}, false
	}
	return idx.parents[i], true
}

// HasProtocolID reports whether any protocol or parent carries the id.
func (idx *Index) HasProtocolID(id string) bool {
	return len(idx.lookups[IndexID][id]) > 0
}

// Protocols returns the protocol records in registry order.
func (idx *Index) Protocols() []Protocol { return append([]Protocol(nil), idx.protocols...) }

// Parents returns the parent protocol records in registry order.
func (idx *Index) Parents() []ParentProtocol { return append([]ParentProtocol(nil), idx.parents...) }

// Treasuries returns the treasury records in registry order.
func (idx *Index) Treasuries() []Treasury { return append([]Treasury(nil), idx.treasuries...) }

// Emissions returns the emissions adapter metadata in registry order.
func (idx *Index) Emissions() []EmissionsAdapter {
	return append([]EmissionsAdapter(nil), idx.emissions...)
}

// Dimensions returns a copy of the dimension configs.
func (idx *Index) Dimensions() DimensionConfig { return copyDimensions(idx.dimensions) }

// Stats returns a copy of the stats snapshot, or nil when none was loaded.
func (idx *Index) Stats() *StatsSnapshot {
	if idx.stats == nil {
		return nil
	}
	s := *idx.stats
	s.ByCategory = make(map[string]CategoryStats, len(idx.stats.ByCategory))
	for k, v := range idx.stats.ByCategory {
		s.ByCategory[k] = v
	}
	return &s
}

func copyDimensions(d DimensionConfig) DimensionConfig {
	if d == nil {
		return nil
	}
	out := make(DimensionConfig, len(d))
	for metric, entries := range d {
		m := make(map[string]DimensionEntry, len(entries))
		for k, v := range entries {
			m[k] = v
		}
		out[metric] = m
	}
	return out
}

func refIDs(refs []Ref) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}
