package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	stdpath "path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/regcheck/internal/log"
)

// ManifestDir is the directory, relative to the registry root, holding adapter manifests.
const ManifestDir = "adapters"

// ManifestResolver reads module descriptions from YAML manifests at
// adapters/<ref>.yaml. A manifest maps each top-level entry either to a scalar
// kind ("function", "_lmtf" or any other value) or to a mapping of export
// names to scalar kinds:
//
//	entries:
//	  methodology: value
//	  ethereum:
//	    tvl: function
//	    ownTokens: _lmtf
type ManifestResolver struct {
	fsys fs.FS
}

// NewManifestResolver creates a resolver reading manifests from fsys.
func NewManifestResolver(fsys fs.FS) *ManifestResolver {
	return &ManifestResolver{fsys: fsys}
}

type manifestFile struct {
	Entries map[string]yaml.Node `yaml:"entries"`
}

// ManifestPath returns the manifest path for a module ref.
func ManifestPath(ref string) string {
	return stdpath.Join(ManifestDir, strings.TrimPrefix(stdpath.Clean("/"+ref), "/")+".yaml")
}

// Resolve reads and parses the manifest for ref.
func (r *ManifestResolver) Resolve(ctx context.Context, ref string) (Module, error) {
	if strings.TrimSpace(ref) == "" {
		return Module{}, ErrEmptyRef
	}
	if err := ctx.Err(); err != nil {
		return Module{}, err
	}

	path := ManifestPath(ref)
	content, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Module{}, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
		}
		return Module{}, fmt.Errorf("read %s: %w", path, err)
	}

	mod, err := ParseManifest(ref, content)
	if err != nil {
		return Module{}, err
	}
	log.Debug(log.CatAdapter, "resolved manifest", "ref", ref, "entries", len(mod.Entries))
	return mod, nil
}

// ParseManifest decodes manifest content into a Module.
func ParseManifest(ref string, content []byte) (Module, error) {
	var file manifestFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return Module{}, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, ref, err)
	}

	mod := Module{Ref: ref, Entries: make(map[string]Entry, len(file.Entries))}
	for key, node := range file.Entries {
		entry, err := parseEntry(&node)
		if err != nil {
			return Module{}, fmt.Errorf("%w: %s entry %q: %v", ErrInvalidManifest, ref, key, err)
		}
		mod.Entries[key] = entry
	}
	return mod, nil
}

func parseEntry(node *yaml.Node) (Entry, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Value {
		case "function":
			return Entry{Kind: EntryFunction}, nil
		case MarkerLazy:
			return Entry{Kind: EntryMarker}, nil
		default:
			return Entry{Kind: EntryValue}, nil
		}
	case yaml.MappingNode:
		var exports map[string]yaml.Node
		if err := node.Decode(&exports); err != nil {
			return Entry{}, err
		}
		entry := Entry{Kind: EntryObject, Exports: make(map[string]ExportKind, len(exports))}
		for name, export := range exports {
			entry.Exports[name] = parseExport(&export)
		}
		return entry, nil
	case yaml.SequenceNode:
		return Entry{Kind: EntryValue}, nil
	default:
		return Entry{}, fmt.Errorf("unsupported yaml node kind %d", node.Kind)
	}
}

func parseExport(node *yaml.Node) ExportKind {
	if node.Kind != yaml.ScalarNode {
		return ExportValue
	}
	switch node.Value {
	case "function":
		return ExportFunction
	case MarkerLazy:
		return ExportMarker
	default:
		return ExportValue
	}
}
