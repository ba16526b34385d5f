// Package registry holds the static protocol metadata registry and the read-only
// indices built over it.
//
// This package is pure domain code: it has no knowledge of YAML, adapters or
// the filesystem. The loader in internal/application/loader fills a Registry and
// the consistency checker reads it through an Index.
//
// # Records
//
// Protocol, ParentProtocol, Treasury, EmissionsAdapter, DimensionConfig and
// StatsSnapshot mirror the hand-maintained metadata files. Records are plain
// value types; nothing in the registry is mutated after loading.
//
// # Index
//
// NewIndex builds multiset lookups keyed by id, folded name (including
// previousNames), slug, module and gecko id. A key mapping to more than one
// record is a duplicate, reported by Duplicates. With WithStrict the first
// duplicate instead fails construction with a *DuplicateKeyError.
//
//	idx, err := registry.NewIndex(reg)
//	for key, ids := range idx.Duplicates(registry.IndexName) { ... }
package registry
