// Package testutil provides fixture builders for registry tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/registry"
)

// Builder accumulates registry records and a chain alias table.
type Builder struct {
	t     *testing.T
	reg   registry.Registry
	table chain.AliasTable
}

// NewBuilder creates an empty builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithProtocol adds a protocol with optional configuration.
func (b *Builder) WithProtocol(id string, opts ...ProtocolOption) *Builder {
	p := defaultProtocol(id)
	for _, opt := range opts {
		opt(&p)
	}
	b.reg.Protocols = append(b.reg.Protocols, p)
	return b
}

// WithParent adds a parent protocol with optional configuration.
func (b *Builder) WithParent(id string, opts ...ParentOption) *Builder {
	p := registry.ParentProtocol{ID: id, Name: id}
	for _, opt := range opts {
		opt(&p)
	}
	b.reg.Parents = append(b.reg.Parents, p)
	return b
}

// WithTreasury adds a treasury record.
func (b *Builder) WithTreasury(id, name, module string, chains ...string) *Builder {
	b.reg.Treasuries = append(b.reg.Treasuries, registry.Treasury{ID: id, Name: name, Module: module, Chains: chains})
	return b
}

// WithEmissions adds emissions adapter metadata.
func (b *Builder) WithEmissions(e registry.EmissionsAdapter) *Builder {
	b.reg.Emissions = append(b.reg.Emissions, e)
	return b
}

// WithDimension adds one dimension config entry.
func (b *Builder) WithDimension(metric, key, id string) *Builder {
	if b.reg.Dimensions == nil {
		b.reg.Dimensions = make(registry.DimensionConfig)
	}
	if b.reg.Dimensions[metric] == nil {
		b.reg.Dimensions[metric] = make(map[string]registry.DimensionEntry)
	}
	b.reg.Dimensions[metric][key] = registry.DimensionEntry{ID: id}
	return b
}

// WithStats sets the stats snapshot.
func (b *Builder) WithStats(total float64, byCategory map[string]registry.CategoryStats) *Builder {
	b.reg.Stats = &registry.StatsSnapshot{TotalOnChainMcap: total, ByCategory: byCategory}
	return b
}

// WithChain adds a canonical chain to the alias table.
func (b *Builder) WithChain(c chain.Chain, aliases ...string) *Builder {
	b.table.Chains = append(b.table.Chains, chain.Entry{Chain: c, Aliases: aliases})
	return b
}

// WithSynonym adds a symmetric synonym to the alias table.
func (b *Builder) WithSynonym(from, to string) *Builder {
	if b.table.Synonyms == nil {
		b.table.Synonyms = make(map[string]string)
	}
	b.table.Synonyms[from] = to
	return b
}

// WithIgnoredChain adds a pseudo chain name accepted in declared chains.
func (b *Builder) WithIgnoredChain(name string) *Builder {
	b.table.Ignored = append(b.table.Ignored, name)
	return b
}

// Registry returns the accumulated registry.
func (b *Builder) Registry() *registry.Registry {
	reg := b.reg
	return &reg
}

// AliasTable returns the accumulated alias table.
func (b *Builder) AliasTable() chain.AliasTable {
	return b.table
}

// Index builds a non-strict index over the accumulated registry.
func (b *Builder) Index(opts ...registry.IndexOption) *registry.Index {
	b.t.Helper()
	idx, err := registry.NewIndex(b.Registry(), opts...)
	require.NoError(b.t, err)
	return idx
}

// Canonicalizer builds a canonicalizer over the accumulated alias table.
func (b *Builder) Canonicalizer() *chain.Canonicalizer {
	b.t.Helper()
	c, err := chain.NewCanonicalizer(b.table)
	require.NoError(b.t, err)
	return c
}
