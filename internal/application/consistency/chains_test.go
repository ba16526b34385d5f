package consistency

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/application/adapter"
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/violation"
	"github.com/zjrosen/regcheck/internal/testutil"
)

func tvlModule(ref string, keys ...string) adapter.Module {
	m := adapter.Module{Ref: ref, Entries: make(map[string]adapter.Entry, len(keys))}
	for _, k := range keys {
		m.Entries[k] = adapter.Entry{Kind: adapter.EntryObject, Exports: map[string]adapter.ExportKind{"tvl": adapter.ExportFunction}}
	}
	return m
}

func modules(ms map[string]adapter.Module) Option {
	return WithModules(adapter.Result{Modules: ms})
}

func TestChainAdapterCoverage_SynonymSatisfiesDeclaredChain(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().
		WithProtocol("1", testutil.Chains("Ethereum", "avax"), testutil.Module("x.js"))
	c := newChecker(t, b, modules(map[string]adapter.Module{
		"1": tvlModule("x.js", "ethereum", "avalanche"),
	}))

	report := run(t, c)
	require.Empty(t, report.All())
}

func TestChainAdapterCoverage_MissingChain(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().
		WithProtocol("1", testutil.Chains("Ethereum", "Binance"), testutil.Module("x.js"))
	c := newChecker(t, b, modules(map[string]adapter.Module{
		"1": tvlModule("x.js", "ethereum", "staking"),
	}))

	report := run(t, c)
	require.Equal(t, 1, report.Count())
	got := report.Group(violation.KindMissingChainAdapter)
	require.Len(t, got, 1)
	require.Contains(t, got[0].Detail, `"Binance"`)
}

func TestChainAdapterCoverage_Skips(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().
		WithProtocol("1", testutil.Chains("Ethereum", "BSC"), testutil.Module("dummy.js")).
		WithProtocol("2", testutil.Chains("Ethereum", "BSC"), testutil.Module("volumes/x.js")).
		WithProtocol("3", testutil.Chains("Polygon"), testutil.Module("single.js")).
		WithProtocol("4", testutil.Chains("Ethereum", "eth"), testutil.Module("same.js")).
		WithProtocol("5", testutil.Chains("Ethereum", "BSC"), testutil.Module("unloaded.js"))
	c := newChecker(t, b, modules(map[string]adapter.Module{
		"1": tvlModule("dummy.js"),
		"2": tvlModule("volumes/x.js", "ethereum"),
		"3": tvlModule("single.js"),
		"4": tvlModule("same.js", "ethereum"),
	}))

	require.Empty(t, c.ChainAdapterCoverage())
}

func TestChainsResolve(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().
		WithProtocol("1", testutil.Chains("Ethereum", "Multi-Chain"), testutil.LegacyChain("Mars")).
		WithProtocol("2", testutil.Chains("Ethereum"), testutil.Module("x.js")).
		WithTreasury("3", "Treasury", "t.js", "Venus")
	c := newChecker(t, b, modules(map[string]adapter.Module{
		"2": tvlModule("x.js", "ethereum", "staking", "hallmarks", "jupiter"),
	}))

	got := c.ChainsResolve()
	require.Len(t, got, 3)
	require.Equal(t, "1", got[0].EntityID)
	require.Contains(t, got[0].Detail, `"Mars"`)
	require.Equal(t, "2", got[1].EntityID)
	require.Contains(t, got[1].Detail, `"jupiter"`)
	require.Equal(t, "3", got[2].EntityID)
	require.ErrorIs(t, got[2], chain.ErrUnknownChain)
}

func TestChainsResolve_NonObjectKeysIgnored(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().WithProtocol("1", testutil.Module("x.js"))
	mod := tvlModule("x.js", "ethereum")
	mod.Entries["methodology"] = adapter.Entry{Kind: adapter.EntryValue}
	mod.Entries["timetravel"] = adapter.Entry{Kind: adapter.EntryValue}
	c := newChecker(t, b, modules(map[string]adapter.Module{"1": mod}))

	require.Empty(t, c.ChainsResolve())
}

func TestChainIDsUnique(t *testing.T) {
	b := testutil.NewBuilder(t).
		WithChain(chain.Chain{Name: "Ethereum", GeckoID: "ethereum"}).
		WithChain(chain.Chain{Name: "Ethereum Classic", GeckoID: "ethereum"}).
		WithChain(chain.Chain{Name: "Nowhere"}).
		WithChain(chain.Chain{Name: "Linea", ChainID: 59144})
	c := newChecker(t, b)

	report := run(t, c, "chain-ids-unique")
	require.Len(t, report.Group(violation.KindDuplicateChainID), 2)
	missing := report.Group(violation.KindMissingChainID)
	require.Len(t, missing, 1)
	require.Equal(t, "Nowhere", missing[0].EntityID)
}

func TestDimensionIDs(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().
		WithProtocol("100").
		WithParent("parent#x").
		WithDimension("fees", "a", "100").
		WithDimension("fees", "b", "100").
		WithDimension("fees", "c", "42161").
		WithDimension("fees", "d", "42161").
		WithDimension("fees", "e", "999").
		WithDimension("fees", "f", "parent#x").
		WithDimension("dexs", "a", "100")
	c := newChecker(t, b)

	report := run(t, c, "dimension-ids")
	require.Equal(t, 3, report.Count())

	unknown := report.Group(violation.KindUnknownDimensionID)
	require.Len(t, unknown, 1)
	require.Equal(t, "fees:e", unknown[0].EntityID)

	dups := report.Group(violation.KindDuplicateDimensionID)
	require.Len(t, dups, 2)
	require.Equal(t, "fees:a", dups[0].EntityID)
	require.Equal(t, "fees:b", dups[1].EntityID)
}
