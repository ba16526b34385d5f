// Package adapter is the boundary to adapter modules. Modules are never
// executed: a Resolver describes a module's top-level entries and the kind of
// each export, which is all the consistency checks inspect.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Adapter errors
var (
	ErrModuleNotFound  = errors.New("adapter module not found")
	ErrInvalidManifest = errors.New("invalid adapter manifest")
	ErrEmptyRef        = errors.New("adapter module ref cannot be empty")
)

// MarkerLazy is the placeholder some treasury adapters export instead of a
// function when the value is filled in later.
const MarkerLazy = "_lmtf"

// EntryKind is the shape of a module's top-level entry.
type EntryKind int

const (
	EntryObject EntryKind = iota
	EntryFunction
	EntryMarker
	EntryValue
)

// String returns a human-readable representation of the EntryKind.
func (k EntryKind) String() string {
	switch k {
	case EntryObject:
		return "object"
	case EntryFunction:
		return "function"
	case EntryMarker:
		return "marker"
	case EntryValue:
		return "value"
	default:
		return "unknown"
	}
}

// ExportKind is the kind of one export inside an object entry.
type ExportKind int

const (
	ExportFunction ExportKind = iota
	ExportMarker
	ExportValue
)

// String returns a human-readable representation of the ExportKind.
func (k ExportKind) String() string {
	switch k {
	case ExportFunction:
		return "function"
	case ExportMarker:
		return "marker"
	case ExportValue:
		return "value"
	default:
		return "unknown"
	}
}

// Entry is one top-level key of a module.
type Entry struct {
	Kind    EntryKind
	Exports map[string]ExportKind // set only for EntryObject
}

// Module describes an adapter module.
type Module struct {
	Ref     string
	Entries map[string]Entry
}

// ObjectKeys returns the keys of object entries, sorted.
func (m Module) ObjectKeys() []string {
	keys := make([]string, 0, len(m.Entries))
	for k, e := range m.Entries {
		if e.Kind == EntryObject {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether the module has a top-level entry named key.
func (m Module) Has(key string) bool {
	_, ok := m.Entries[key]
	return ok
}

// Resolver turns a module ref into a Module description.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Module, error)
}

// AdapterLoadError attributes a failed resolve to the record that declared the module.
type AdapterLoadError struct {
	EntityID string
	Module   string
	Treasury bool
	Err      error
}

func (e *AdapterLoadError) Error() string {
	if e.Treasury {
		return fmt.Sprintf("load adapter %s for treasury %s: %v", e.Module, e.EntityID, e.Err)
	}
	return fmt.Sprintf("load adapter %s for %s: %v", e.Module, e.EntityID, e.Err)
}

func (e *AdapterLoadError) Unwrap() error {
	return e.Err
}
