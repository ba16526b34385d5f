// Package app runs one complete registry check: load the registry, build the
// index, resolve adapter modules, run the checks, and record the run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/regcheck/internal/application/adapter"
	"github.com/zjrosen/regcheck/internal/application/consistency"
	"github.com/zjrosen/regcheck/internal/application/loader"
	"github.com/zjrosen/regcheck/internal/cachemanager"
	"github.com/zjrosen/regcheck/internal/config"
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/domain/registry"
	"github.com/zjrosen/regcheck/internal/domain/violation"
	"github.com/zjrosen/regcheck/internal/flags"
	"github.com/zjrosen/regcheck/internal/log"
	"github.com/zjrosen/regcheck/internal/tracing"
)

// ErrHistoryRequired is returned for a new-only run without a history store.
var ErrHistoryRequired = errors.New("--new-only requires run history")

// Result is the outcome of one Run.
type Result struct {
	// Report is what should be printed: the full report, or only the
	// violations new since the previous run when NewOnly is set.
	Report *violation.Report
	// Full is the report of every violation found.
	Full *violation.Report
	// Run is the recorded run, nil when history is disabled.
	Run *history.Run
	// Gate is the severity the exit code is decided on.
	Gate violation.Severity
}

// Failed reports whether the printed report fails the gate.
func (r *Result) Failed() bool {
	return r.Report.Failed(r.Gate)
}

// moduleCache holds resolved adapter modules between runs.
type moduleCache interface {
	cachemanager.CacheManager[string, adapter.Module]
	Stats() cachemanager.Stats
}

// Runner wires the loader, checker and history store together. A Runner is
// reused across watch iterations so its adapter cache survives between runs.
type Runner struct {
	cfg        config.Config
	flags      *flags.Registry
	policy     consistency.Policy
	registryFS fs.FS
	manifestFS fs.FS
	history    history.RunRepository
	tracer     trace.Tracer
	cache      moduleCache
	resolver   adapter.Resolver
	only       []string
	newOnly    bool
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithFlags sets the feature flags.
func WithFlags(f *flags.Registry) Option {
	return func(r *Runner) {
		r.flags = f
	}
}

// WithRegistryFS reads the registry from fsys instead of the configured path.
func WithRegistryFS(fsys fs.FS) Option {
	return func(r *Runner) {
		r.registryFS = fsys
	}
}

// WithManifestFS reads adapter manifests from fsys instead of the configured dir.
func WithManifestFS(fsys fs.FS) Option {
	return func(r *Runner) {
		r.manifestFS = fsys
	}
}

// WithHistory records every run in repo.
func WithHistory(repo history.RunRepository) Option {
	return func(r *Runner) {
		r.history = repo
	}
}

// WithTracer sets the tracer for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithChecks restricts the run to the named checks.
func WithChecks(names ...string) Option {
	return func(r *Runner) {
		r.only = names
	}
}

// WithNewOnly reports only violations absent from the previous run.
func WithNewOnly(enabled bool) Option {
	return func(r *Runner) {
		r.newOnly = enabled
	}
}

// New creates a Runner for cfg.
func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		policy: cfg.Policy.Apply(consistency.DefaultPolicy()),
		tracer: noop.NewTracerProvider().Tracer(tracing.ServiceName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registryFS == nil {
		r.registryFS = os.DirFS(cfg.Registry.Path)
	}
	if r.manifestFS == nil {
		r.manifestFS = os.DirFS(cfg.ManifestDir())
	}

	var resolver adapter.Resolver = adapter.NewManifestResolver(r.manifestFS)
	if cfg.Adapters.CacheTTL > 0 {
		cache := cachemanager.NewInMemoryCacheManager[string, adapter.Module]("adapter-modules", cfg.Adapters.CacheTTL, 2*cfg.Adapters.CacheTTL)
		resolver = adapter.NewCachedResolver(resolver, cache, cfg.Adapters.CacheTTL)
		r.cache = cache
	}
	r.resolver = resolver
	return r
}

// Gate returns the severity the exit code is decided on.
func (r *Runner) Gate() violation.Severity {
	if r.cfg.Output.FailOn == "soft" || r.flags.Enabled(flags.FlagSoftAsHard) {
		return violation.Soft
	}
	return violation.Hard
}

// Invalidate drops cached adapter modules, e.g. after manifests changed.
func (r *Runner) Invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	stats := r.cache.Stats()
	if err := r.cache.Flush(ctx); err != nil {
		log.ErrorErr(log.CatCache, "failed to flush adapter cache", err)
		return
	}
	log.Debug(log.CatCache, "adapter cache flushed", "hits", stats.Hits, "misses", stats.Misses)
}

// Run performs one check of the registry.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.newOnly && r.history == nil {
		return nil, ErrHistoryRequired
	}

	registryKey := r.registryKey()
	ctx, span := r.tracer.Start(ctx, tracing.SpanCheckRun,
		trace.WithAttributes(attribute.String(tracing.AttrRegistryPath, registryKey)))
	defer span.End()

	started := r.now()

	idx, chains, err := r.load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	opts := []consistency.Option{consistency.WithTracer(r.tracer)}
	if modules, ok := r.loadAdapters(ctx, idx); ok {
		opts = append(opts, consistency.WithModules(modules))
	}

	checker, err := consistency.New(idx, chains, r.policy, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating checker: %w", err)
	}
	full, err := checker.Run(ctx, r.only...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := &Result{Report: full, Full: full, Gate: r.Gate()}
	if r.history != nil {
		if err := r.record(res, registryKey, started); err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(attribute.String(tracing.AttrRunID, res.Run.ID))
	}

	tracing.RecordReport(span, res.Report, res.Gate)
	return res, nil
}

func (r *Runner) load(ctx context.Context) (*registry.Index, *chain.Canonicalizer, error) {
	_, span := r.tracer.Start(ctx, tracing.SpanLoadRegistry)
	defer span.End()

	reg, table, err := loader.Load(r.registryFS)
	if err != nil {
		return nil, nil, fmt.Errorf("loading registry: %w", err)
	}
	chains, err := chain.NewCanonicalizer(table)
	if err != nil {
		return nil, nil, fmt.Errorf("building chain table: %w", err)
	}

	indexOpts := []registry.IndexOption{registry.WithExemptKeys(registry.IndexModule, r.policy.ModuleSentinels...)}
	if r.cfg.Registry.Strict || r.flags.Enabled(flags.FlagStrictIndex) {
		indexOpts = append(indexOpts, registry.WithStrict())
	}
	idx, err := registry.NewIndex(reg, indexOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("indexing registry: %w", err)
	}

	span.SetAttributes(attribute.Int(tracing.AttrProtocolCount, len(reg.Protocols)))
	return idx, chains, nil
}

// loadAdapters resolves every declared module. It reports false when adapter
// checks are disabled or no manifest directory exists.
func (r *Runner) loadAdapters(ctx context.Context, idx *registry.Index) (adapter.Result, bool) {
	if !r.cfg.Adapters.Enabled {
		return adapter.Result{}, false
	}
	if info, err := fs.Stat(r.manifestFS, adapter.ManifestDir); err != nil || !info.IsDir() {
		log.Info(log.CatAdapter, "no adapter manifests, skipping adapter checks", "dir", filepath.Join(r.cfg.ManifestDir(), adapter.ManifestDir))
		return adapter.Result{}, false
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanLoadAdapters)
	defer span.End()

	targets := adapter.Targets(idx)
	l := adapter.NewLoader(r.resolver,
		adapter.WithConcurrency(r.cfg.Adapters.Concurrency),
		adapter.WithLoadTimeout(r.cfg.Adapters.Timeout),
	)
	res := l.Load(ctx, targets)

	span.SetAttributes(attribute.Int(tracing.AttrModuleCount, len(res.Modules)+len(res.Treasuries)))
	return res, true
}

// record saves the run and, for new-only runs, narrows the report to what
// the previous run did not have.
func (r *Runner) record(res *Result, registryKey string, started time.Time) error {
	previous, err := r.history.Latest(registryKey)
	if err != nil && !errors.Is(err, history.ErrRunNotFound) {
		return fmt.Errorf("loading previous run: %w", err)
	}

	run := history.NewRun(registryKey, res.Full, started, r.now())
	if err := r.history.Save(run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	res.Run = run

	if keep := r.cfg.History.Keep; keep > 0 {
		pruned, err := r.history.Prune(registryKey, keep)
		if err != nil {
			log.ErrorErr(log.CatDB, "Failed to prune run history", err, "registry", registryKey)
		} else if pruned > 0 {
			log.Debug(log.CatDB, "pruned run history", "registry", registryKey, "deleted", pruned)
		}
	}

	if r.newOnly {
		res.Report = history.NewSince(res.Full, previous)
	}
	return nil
}

// registryKey identifies the registry in the history store.
func (r *Runner) registryKey() string {
	if abs, err := filepath.Abs(r.cfg.Registry.Path); err == nil {
		return abs
	}
	return r.cfg.Registry.Path
}
