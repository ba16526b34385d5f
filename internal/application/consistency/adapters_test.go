package consistency

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/application/adapter"
	"github.com/zjrosen/regcheck/internal/domain/violation"
	"github.com/zjrosen/regcheck/internal/testutil"
)

func TestTreasuryExports(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().
		WithTreasury("t1", "Treasury One", "treasury/one.js", "Ethereum", "Arbitrum")
	mod := adapter.Module{Ref: "treasury/one.js", Entries: map[string]adapter.Entry{
		"ethereum": {Kind: adapter.EntryObject, Exports: map[string]adapter.ExportKind{
			"tvl":       adapter.ExportFunction,
			"ownTokens": adapter.ExportMarker,
		}},
		"arbitrum": {Kind: adapter.EntryObject, Exports: map[string]adapter.ExportKind{
			"tvl":     adapter.ExportValue,
			"staking": adapter.ExportFunction,
		}},
		"default": {Kind: adapter.EntryObject, Exports: map[string]adapter.ExportKind{
			"anything": adapter.ExportValue,
		}},
	}}
	c := newChecker(t, b, WithModules(adapter.Result{Treasuries: map[string]adapter.Module{"t1": mod}}))

	got := c.TreasuryExports()
	require.Len(t, got, 2)
	require.Contains(t, got[0].Detail, `"staking" as function`)
	require.Contains(t, got[1].Detail, `"tvl" as value`)

	report := run(t, c, "treasury-exports")
	require.Equal(t, 1, report.Count())
	require.Contains(t, report.All()[0].Detail, "; ")
}

func TestTreasuryExports_WithoutModules(t *testing.T) {
	b := testutil.NewBuilder(t).WithTreasury("t1", "Treasury One", "treasury/one.js")
	c := newChecker(t, b)

	require.Empty(t, c.TreasuryExports())
	require.Empty(t, c.AdapterLoads())
}

func TestAdapterLoads(t *testing.T) {
	b := testutil.NewBuilder(t)
	c := newChecker(t, b, WithModules(adapter.Result{Failures: []*adapter.AdapterLoadError{
		{EntityID: "1", Module: "a.js", Err: adapter.ErrModuleNotFound},
		{EntityID: "t1", Module: "t.js", Err: adapter.ErrInvalidManifest},
	}}))

	got := c.AdapterLoads()
	require.Len(t, got, 2)
	require.Equal(t, violation.KindAdapterLoad, got[1].Kind)
	require.Equal(t, "t1", got[1].EntityID)
	require.ErrorIs(t, got[0], violation.ErrAdapterLoad)
}

func TestTreasuryExports_ProtocolAndTreasuryShareID(t *testing.T) {
	b := testutil.NewBuilder(t).WithStandardChains().
		WithProtocol("7", testutil.Chains("Ethereum"), testutil.Module("foo/index.js")).
		WithTreasury("7", "Foo Treasury", "treasury/foo.js", "Ethereum")
	res := adapter.Result{
		Modules: map[string]adapter.Module{"7": tvlModule("foo/index.js", "ethereum")},
		Treasuries: map[string]adapter.Module{"7": {Ref: "treasury/foo.js", Entries: map[string]adapter.Entry{
			"ethereum": {Kind: adapter.EntryObject, Exports: map[string]adapter.ExportKind{
				"tvl":       adapter.ExportFunction,
				"badExport": adapter.ExportFunction,
			}},
			"mars": {Kind: adapter.EntryObject, Exports: map[string]adapter.ExportKind{"tvl": adapter.ExportFunction}},
		}}},
	}
	c := newChecker(t, b, WithModules(res))

	exports := c.TreasuryExports()
	require.Len(t, exports, 1)
	require.Equal(t, "7", exports[0].EntityID)
	require.Contains(t, exports[0].Detail, "treasury/foo.js")
	require.Contains(t, exports[0].Detail, `"badExport"`)

	unknown := c.ChainsResolve()
	require.Len(t, unknown, 1)
	require.Contains(t, unknown[0].Detail, "treasury/foo.js")
	require.Contains(t, unknown[0].Detail, `"mars"`)
}

func TestAdapterLoads_TreasuryFailure(t *testing.T) {
	c := newChecker(t, testutil.NewBuilder(t), WithModules(adapter.Result{Failures: []*adapter.AdapterLoadError{
		{EntityID: "7", Module: "treasury/foo.js", Treasury: true, Err: adapter.ErrModuleNotFound},
	}}))

	got := c.AdapterLoads()
	require.Len(t, got, 1)
	require.Contains(t, got[0].Detail, "treasury module treasury/foo.js")
}
