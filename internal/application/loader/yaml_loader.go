package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/registry"
	"github.com/zjrosen/regcheck/internal/log"
)

// Registry file names, relative to the registry root.
const (
	ChainsFile     = "chains.yaml"
	ProtocolsFile  = "protocols.yaml"
	ParentsFile    = "parents.yaml"
	TreasuriesFile = "treasuries.yaml"
	EmissionsGlob  = "emissions/*.yaml"
	DimensionsFile = "dimensions.yaml"
	StatsFile      = "stats.yaml"
)

// Loader errors
var (
	ErrNilFS           = errors.New("registry filesystem cannot be nil")
	ErrMissingRequired = errors.New("required registry file missing")
)

// FileError attributes a read or decode failure to one registry file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Load reads the registry directory rooted at fsys.
func Load(fsys fs.FS) (*registry.Registry, chain.AliasTable, error) {
	if fsys == nil {
		return nil, chain.AliasTable{}, ErrNilFS
	}

	table, err := LoadChains(fsys)
	if err != nil {
		return nil, chain.AliasTable{}, err
	}

	reg := &registry.Registry{}

	var protocols protocolsFile
	if err := decodeFile(fsys, ProtocolsFile, true, &protocols); err != nil {
		return nil, chain.AliasTable{}, err
	}
	for _, p := range protocols.Protocols {
		reg.Protocols = append(reg.Protocols, p.toDomain())
	}

	var parents parentsFile
	if err := decodeFile(fsys, ParentsFile, false, &parents); err != nil {
		return nil, chain.AliasTable{}, err
	}
	for _, p := range parents.Parents {
		reg.Parents = append(reg.Parents, p.toDomain())
	}

	var treasuries treasuriesFile
	if err := decodeFile(fsys, TreasuriesFile, false, &treasuries); err != nil {
		return nil, chain.AliasTable{}, err
	}
	for _, t := range treasuries.Treasuries {
		reg.Treasuries = append(reg.Treasuries, registry.Treasury(t))
	}

	emissions, err := loadEmissions(fsys)
	if err != nil {
		return nil, chain.AliasTable{}, err
	}
	reg.Emissions = emissions

	var dims dimensionsFile
	if err := decodeFile(fsys, DimensionsFile, false, &dims); err != nil {
		return nil, chain.AliasTable{}, err
	}
	if len(dims) > 0 {
		reg.Dimensions = make(registry.DimensionConfig, len(dims))
		for metric, entries := range dims {
			m := make(map[string]registry.DimensionEntry, len(entries))
			for key, e := range entries {
				m[key] = registry.DimensionEntry{ID: e.ID}
			}
			reg.Dimensions[metric] = m
		}
	}

	var stats *statsYAML
	if err := decodeFile(fsys, StatsFile, false, &stats); err != nil {
		return nil, chain.AliasTable{}, err
	}
	if stats != nil {
		reg.Stats = stats.toDomain()
	}

	log.Info(log.CatLoader, "registry loaded",
		"protocols", len(reg.Protocols),
		"parents", len(reg.Parents),
		"treasuries", len(reg.Treasuries),
		"emissions", len(reg.Emissions),
		"chains", len(table.Chains))

	return reg, table, nil
}

// LoadChains reads only the chain alias table.
func LoadChains(fsys fs.FS) (chain.AliasTable, error) {
	if fsys == nil {
		return chain.AliasTable{}, ErrNilFS
	}
	var chains chainsFile
	if err := decodeFile(fsys, ChainsFile, true, &chains); err != nil {
		return chain.AliasTable{}, err
	}
	return chains.toDomain(), nil
}

func loadEmissions(fsys fs.FS) ([]registry.EmissionsAdapter, error) {
	files, err := fs.Glob(fsys, EmissionsGlob)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", EmissionsGlob, err)
	}

	out := make([]registry.EmissionsAdapter, 0, len(files))
	for _, f := range files {
		var e emissionsYAML
		if err := decodeFile(fsys, f, true, &e); err != nil {
			return nil, err
		}
		out = append(out, registry.EmissionsAdapter{
			Key:         strings.TrimSuffix(path.Base(f), path.Ext(f)),
			Token:       e.Token,
			ProtocolIDs: e.ProtocolIDs,
			Notes:       e.Notes,
			Sources:     e.Sources,
		})
	}
	log.Debug(log.CatLoader, "emissions loaded", "files", len(files))
	return out, nil
}

// decodeFile decodes one YAML file into out, rejecting unknown fields.
// An absent optional file leaves out untouched.
func decodeFile(fsys fs.FS, name string, required bool, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		if required {
			return &FileError{Path: name, Err: ErrMissingRequired}
		}
		log.Debug(log.CatLoader, "optional registry file absent", "file", name)
		return nil
	}
	if err != nil {
		return &FileError{Path: name, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &FileError{Path: name, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
