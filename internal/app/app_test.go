package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/application/adapter"
	"github.com/zjrosen/regcheck/internal/application/consistency"
	"github.com/zjrosen/regcheck/internal/application/loader"
	"github.com/zjrosen/regcheck/internal/cachemanager"
	"github.com/zjrosen/regcheck/internal/config"
	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/domain/registry"
	"github.com/zjrosen/regcheck/internal/domain/violation"
	"github.com/zjrosen/regcheck/internal/flags"
	"github.com/zjrosen/regcheck/internal/infrastructure/sqlite"
	"github.com/zjrosen/regcheck/internal/log"
)

const chainsYAML = `
chains:
  - name: Ethereum
    key: ethereum
    gecko_id: ethereum
    chain_id: 1
`

const protocolsYAML = `
protocols:
  - id: "1"
    name: Aave
    category: Lending
    chains: [Ethereum]
    module: aave.js
  - id: "2"
    name: AAVE
    category: Lending
    chains: [Ethereum]
    module: aave-v2.js
  - id: "3"
    name: Child
    category: Dexs
    chains: [Ethereum]
    parentProtocol: parent#x
    github: [childorg]
    module: child.js
`

func registryFS() fstest.MapFS {
	return fstest.MapFS{
		loader.ChainsFile:    {Data: []byte(chainsYAML)},
		loader.ProtocolsFile: {Data: []byte(protocolsYAML)},
		loader.ParentsFile:   {Data: []byte("parents:\n  - id: parent#x\n    name: X\n")},
	}
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Registry.Path = "/registry"
	cfg.Adapters.CacheTTL = 0
	return cfg
}

func newRunner(cfg config.Config, opts ...Option) *Runner {
	base := []Option{WithRegistryFS(registryFS()), WithManifestFS(fstest.MapFS{})}
	return New(cfg, append(base, opts...)...)
}

func openHistory(t *testing.T) history.RunRepository {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.RunRepository()
}

func TestRunner_FullRun(t *testing.T) {
	res, err := newRunner(testConfig()).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Full.Checks, len(CheckCatalog()))
	require.Len(t, res.Report.Group(violation.KindDuplicateName), 2)
	require.Len(t, res.Report.Group(violation.KindGithubOnChild), 1)
	require.Empty(t, res.Report.Group(violation.KindAdapterLoad))
	require.Same(t, res.Full, res.Report)
	require.Nil(t, res.Run)
	require.True(t, res.Failed())
}

func TestRunner_SelectedChecks(t *testing.T) {
	res, err := newRunner(testConfig(), WithChecks("github-on-parent")).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"github-on-parent"}, res.Report.Checks)
	require.Equal(t, 0, res.Report.Hard())
	require.Equal(t, 1, res.Report.Soft())
	require.Equal(t, violation.Hard, res.Gate)
	require.False(t, res.Failed())
}

func TestRunner_UnknownCheck(t *testing.T) {
	_, err := newRunner(testConfig(), WithChecks("nope")).Run(context.Background())
	require.ErrorIs(t, err, consistency.ErrUnknownCheck)
}

func TestRunner_Gate(t *testing.T) {
	cfg := testConfig()
	require.Equal(t, violation.Hard, newRunner(cfg).Gate())

	require.Equal(t, violation.Soft, newRunner(cfg, WithFlags(flags.New(map[string]bool{flags.FlagSoftAsHard: true}))).Gate())

	cfg.Output.FailOn = "soft"
	res, err := newRunner(cfg, WithChecks("github-on-parent")).Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Failed())
}

func TestRunner_Strict(t *testing.T) {
	cfg := testConfig()
	cfg.Registry.Strict = true

	_, err := newRunner(cfg).Run(context.Background())
	require.ErrorIs(t, err, registry.ErrDuplicateKey)

	_, err = newRunner(testConfig(), WithFlags(flags.New(map[string]bool{flags.FlagStrictIndex: true}))).Run(context.Background())
	require.ErrorIs(t, err, registry.ErrDuplicateKey)
}

func TestRunner_LoadError(t *testing.T) {
	r := New(testConfig(), WithRegistryFS(fstest.MapFS{}), WithManifestFS(fstest.MapFS{}))

	_, err := r.Run(context.Background())
	require.ErrorIs(t, err, loader.ErrMissingRequired)
}

func TestRunner_Adapters(t *testing.T) {
	manifests := fstest.MapFS{
		"adapters/aave.js.yaml":  {Data: []byte("entries:\n  ethereum:\n    tvl: function\n")},
		"adapters/child.js.yaml": {Data: []byte("entries:\n  ethereum:\n    tvl: function\n")},
	}
	cfg := testConfig()
	cfg.Adapters.CacheTTL = time.Minute

	r := New(cfg, WithRegistryFS(registryFS()), WithManifestFS(manifests), WithChecks("adapter-loads"))
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	loads := res.Report.Group(violation.KindAdapterLoad)
	require.Len(t, loads, 1)
	require.Equal(t, "2", loads[0].EntityID)

	manifests["adapters/aave-v2.js.yaml"] = &fstest.MapFile{Data: []byte("entries:\n  ethereum:\n    tvl: function\n")}
	r.Invalidate(context.Background())

	res, err = r.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Report.Group(violation.KindAdapterLoad))
}

func TestRunner_AdaptersDisabled(t *testing.T) {
	manifests := fstest.MapFS{"adapters/other.js.yaml": {Data: []byte("entries: {}\n")}}
	cfg := testConfig()
	cfg.Adapters.Enabled = false

	res, err := New(cfg, WithRegistryFS(registryFS()), WithManifestFS(manifests), WithChecks("adapter-loads")).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.Report.Count())
}

func TestRunner_History(t *testing.T) {
	repo := openHistory(t)
	r := newRunner(testConfig(), WithHistory(repo), WithChecks("unique-names"))

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Run)

	stored, err := repo.FindByID(res.Run.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Hard())
	require.Equal(t, "/registry", stored.Registry)
}

func TestRunner_HistoryPrunes(t *testing.T) {
	repo := openHistory(t)
	cfg := testConfig()
	cfg.History.Keep = 2
	r := newRunner(cfg, WithHistory(repo), WithChecks("unique-ids"))

	for i := 0; i < 4; i++ {
		_, err := r.Run(context.Background())
		require.NoError(t, err)
	}

	runs, err := repo.List(history.ListFilter{Registry: "/registry"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestRunner_NewOnly(t *testing.T) {
	repo := openHistory(t)

	first, err := newRunner(testConfig(), WithHistory(repo), WithNewOnly(true), WithChecks("unique-names")).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.Report.Count(), "first run reports everything")

	second, err := newRunner(testConfig(), WithHistory(repo), WithNewOnly(true), WithChecks("unique-names", "github-on-parent")).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, second.Full.Count())
	require.Equal(t, 1, second.Report.Count())
	require.Len(t, second.Report.Group(violation.KindGithubOnChild), 1)
}

func TestRunner_NewOnlyRequiresHistory(t *testing.T) {
	_, err := newRunner(testConfig(), WithNewOnly(true)).Run(context.Background())
	require.ErrorIs(t, err, ErrHistoryRequired)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(run *history.Run) error {
	return m.Called(run).Error(0)
}

func (m *mockRepository) FindByID(id string) (*history.Run, error) {
	args := m.Called(id)
	run, _ := args.Get(0).(*history.Run)
	return run, args.Error(1)
}

func (m *mockRepository) Latest(registry string) (*history.Run, error) {
	args := m.Called(registry)
	run, _ := args.Get(0).(*history.Run)
	return run, args.Error(1)
}

func (m *mockRepository) List(filter history.ListFilter) ([]*history.Run, error) {
	args := m.Called(filter)
	runs, _ := args.Get(0).([]*history.Run)
	return runs, args.Error(1)
}

func (m *mockRepository) Prune(registry string, keep int) (int, error) {
	args := m.Called(registry, keep)
	return args.Int(0), args.Error(1)
}

func TestRunner_HistoryErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	repo := &mockRepository{}
	repo.On("Latest", "/registry").Return(nil, boom)
	_, err := newRunner(testConfig(), WithHistory(repo)).Run(context.Background())
	require.ErrorIs(t, err, boom)

	repo = &mockRepository{}
	repo.On("Latest", "/registry").Return(nil, &history.RunNotFoundError{Registry: "/registry"})
	repo.On("Save", mock.Anything).Return(boom)
	_, err = newRunner(testConfig(), WithHistory(repo)).Run(context.Background())
	require.ErrorIs(t, err, boom)
	repo.AssertExpectations(t)
}

func TestRunner_PruneFailureIsNotFatal(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Latest", "/registry").Return(nil, &history.RunNotFoundError{Registry: "/registry"})
	repo.On("Save", mock.Anything).Return(nil)
	repo.On("Prune", "/registry", 50).Return(0, errors.New("locked"))

	res, err := newRunner(testConfig(), WithHistory(repo), WithChecks("unique-ids")).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Run)
	repo.AssertExpectations(t)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(testConfig()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckCatalog(t *testing.T) {
	checks := CheckCatalog()
	require.NotEmpty(t, checks)
	require.Equal(t, "unique-ids", checks[0].Name)
	for _, ch := range checks {
		require.NotEmpty(t, ch.Description)
		require.NotEmpty(t, ch.Kinds)
	}
}

const twoChainsYAML = `
chains:
  - name: Ethereum
    key: ethereum
    gecko_id: ethereum
    chain_id: 1
  - name: BSC
    key: bsc
    gecko_id: binancecoin
    chain_id: 56
`

func TestRunner_SentinelModulesStillResolved(t *testing.T) {
	registryFS := fstest.MapFS{
		loader.ChainsFile: {Data: []byte(twoChainsYAML)},
		loader.ProtocolsFile: {Data: []byte(`
protocols:
  - id: "1"
    name: Hedge
    category: Derivatives
    chains: [Ethereum, BSC]
    module: anyhedge/index.js
  - id: "2"
    name: Other Hedge
    category: Derivatives
    chains: [Ethereum]
    module: anyhedge/index.js
`)},
	}
	manifests := fstest.MapFS{
		"adapters/anyhedge/index.js.yaml": {Data: []byte("entries:\n  ethereum:\n    tvl: function\n  mars:\n    tvl: function\n")},
	}

	r := New(testConfig(), WithRegistryFS(registryFS), WithManifestFS(manifests),
		WithChecks("chains-resolve", "chain-adapter-coverage", "unique-modules", "adapter-loads"))
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	unknown := res.Report.Group(violation.KindUnknownChain)
	require.Len(t, unknown, 2)
	require.Equal(t, "1", unknown[0].EntityID)
	require.Contains(t, unknown[0].Detail, `"mars"`)

	coverage := res.Report.Group(violation.KindMissingChainAdapter)
	require.Len(t, coverage, 1)
	require.Equal(t, "1", coverage[0].EntityID)
	require.Contains(t, coverage[0].Detail, `"BSC"`)

	require.Empty(t, res.Report.Group(violation.KindDuplicateModule))
	require.Empty(t, res.Report.Group(violation.KindAdapterLoad))
}

func TestRunner_TreasurySharingProtocolID(t *testing.T) {
	registryFS := fstest.MapFS{
		loader.ChainsFile: {Data: []byte(chainsYAML)},
		loader.ProtocolsFile: {Data: []byte(`
protocols:
  - id: "7"
    name: Foo
    category: Dexs
    chains: [Ethereum]
    module: foo/index.js
`)},
		loader.TreasuriesFile: {Data: []byte(`
treasuries:
  - id: "7"
    name: Foo Treasury
    chains: [Ethereum]
    module: treasury/foo.js
`)},
	}
	manifests := fstest.MapFS{
		"adapters/foo/index.js.yaml":    {Data: []byte("entries:\n  ethereum:\n    tvl: function\n")},
		"adapters/treasury/foo.js.yaml": {Data: []byte("entries:\n  ethereum:\n    tvl: function\n    badExport: function\n")},
	}

	res, err := New(testConfig(), WithRegistryFS(registryFS), WithManifestFS(manifests),
		WithChecks("treasury-exports", "adapter-loads")).Run(context.Background())
	require.NoError(t, err)

	exports := res.Report.Group(violation.KindInvalidTreasuryExport)
	require.Len(t, exports, 1)
	require.Equal(t, "7", exports[0].EntityID)
	require.Contains(t, exports[0].Detail, "treasury/foo.js")
	require.Empty(t, res.Report.Group(violation.KindAdapterLoad))
}

type flushFailingCache struct {
	*cachemanager.InMemoryCacheManager[string, adapter.Module]
}

var errFlushFailed = errors.New("flush failed")

func (flushFailingCache) Flush(context.Context) error { return errFlushFailed }

func TestRunner_InvalidateLogsFlushError(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf, log.LevelDebug)
	t.Cleanup(func() { log.InitWriter(io.Discard, log.LevelError) })

	r := newRunner(testConfig())
	r.cache = flushFailingCache{cachemanager.NewInMemoryCacheManager[string, adapter.Module]("adapter-modules", time.Minute, time.Minute)}

	r.Invalidate(context.Background())
	require.Contains(t, buf.String(), "failed to flush adapter cache")
	require.Contains(t, buf.String(), "error=\"flush failed\"")
	require.NotContains(t, buf.String(), "adapter cache flushed")
}
