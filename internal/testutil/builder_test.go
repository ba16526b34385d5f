package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/domain/registry"
)

func TestBuilder_WithProtocol_Defaults(t *testing.T) {
	reg := NewBuilder(t).WithProtocol("7").Registry()

	require.Len(t, reg.Protocols, 1)
	require.Equal(t, registry.Protocol{
		ID:       "7",
		Name:     "Protocol 7",
		Category: "Dexs",
		Chains:   []string{"Ethereum"},
		Module:   "protocol-7/index.js",
	}, reg.Protocols[0])
}

func TestBuilder_WithProtocol_AllOptions(t *testing.T) {
	reg := NewBuilder(t).
		WithProtocol("7",
			Name("Seven"), PreviousNames("Old Seven"), Category("Lending"),
			Chains("BSC"), LegacyChain("Polygon"), Parent("parent#7"),
			Governance("snapshot:seven.eth"), Github("seven"), TreasuryRef("seven.js"),
			Oracles("Pyth"), GeckoID("seven"), ForkedFrom("3"), Module("seven/index.js"),
		).
		Registry()

	p := reg.Protocols[0]
	require.Equal(t, "Seven", p.Name)
	require.Equal(t, []string{"Old Seven"}, p.PreviousNames)
	require.Equal(t, []string{"BSC", "Polygon"}, p.DeclaredChains())
	require.Equal(t, "parent#7", p.ParentProtocol)
	require.Equal(t, []string{"snapshot:seven.eth"}, p.GovernanceID)
	require.Equal(t, "seven.js", p.Treasury)
	require.Equal(t, []string{"3"}, p.ForkedFromIDs)
	require.Equal(t, "seven/index.js", p.Module)
}

func TestBuilder_IndexAndCanonicalizer(t *testing.T) {
	b := NewBuilder(t).WithStandardRegistry()

	idx := b.Index()
	require.Len(t, idx.Protocols(), 5)
	require.Len(t, idx.Parents(), 1)

	chains := b.Canonicalizer()
	c, err := chains.Canonicalize("avalanche")
	require.NoError(t, err)
	require.Equal(t, "Avalanche", c.Name)
	require.True(t, chains.Ignored("multi-chain"))
}

func TestBuilder_RegistryIsACopy(t *testing.T) {
	b := NewBuilder(t).WithProtocol("1")
	reg := b.Registry()
	b.WithProtocol("2")

	require.Len(t, reg.Protocols, 1)
	require.Len(t, b.Registry().Protocols, 2)
}
