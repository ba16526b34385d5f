package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/regcheck/internal/log"
)

const (
	DefaultConcurrency = 8
	DefaultLoadTimeout = 10 * time.Second
)

// Target is one record whose adapter module should be resolved. Protocol
// and treasury ids are separate namespaces.
type Target struct {
	EntityID string
	Name     string
	Module   string
	Treasury bool
}

type targetKey struct {
	treasury bool
	id       string
}

func (t Target) key() targetKey { return targetKey{t.Treasury, t.EntityID} }

// Result holds the outcome of a Load. Modules holds protocol modules and
// Treasuries treasury modules, both keyed by record id.
type Result struct {
	Modules    map[string]Module
	Treasuries map[string]Module
	Failures   []*AdapterLoadError
}

// Module returns the resolved module of a protocol.
func (r Result) Module(entityID string) (Module, bool) {
	m, ok := r.Modules[entityID]
	return m, ok
}

// TreasuryModule returns the resolved module of a treasury.
func (r Result) TreasuryModule(entityID string) (Module, bool) {
	m, ok := r.Treasuries[entityID]
	return m, ok
}

// Loader resolves many modules concurrently. A failing or slow module is
// recorded against its entity and never stops the others.
type Loader struct {
	resolver    Resolver
	concurrency int
	timeout     time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConcurrency bounds the number of in-flight resolves.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLoadTimeout bounds each resolve.
func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewLoader creates a loader over resolver.
func NewLoader(resolver Resolver, opts ...LoaderOption) *Loader {
	l := &Loader{
		resolver:    resolver,
		concurrency: DefaultConcurrency,
		timeout:     DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves every target. When two targets of the same record kind share
// an id only the first is resolved; a protocol and a treasury with the same id
// are resolved separately.
func (l *Loader) Load(ctx context.Context, targets []Target) Result {
	res := Result{
		Modules:    make(map[string]Module, len(targets)),
		Treasuries: make(map[string]Module),
	}

	var mu sync.Mutex
	seen := make(map[targetKey]struct{}, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, t := range targets {
		if _, dup := seen[t.key()]; dup {
			log.Warn(log.CatAdapter, "duplicate adapter target skipped", "entity", t.EntityID, "treasury", t.Treasury, "module", t.Module)
			continue
		}
		seen[t.key()] = struct{}{}

		g.Go(func() error {
			mod, err := l.resolve(gctx, t)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn(log.CatAdapter, "adapter load failed", "entity", t.EntityID, "module", t.Module, "error", err)
				res.Failures = append(res.Failures, &AdapterLoadError{EntityID: t.EntityID, Module: t.Module, Treasury: t.Treasury, Err: err})
				return nil
			}
			if t.Treasury {
				res.Treasuries[t.EntityID] = mod
			} else {
				res.Modules[t.EntityID] = mod
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(res.Failures, func(i, j int) bool {
		a, b := res.Failures[i], res.Failures[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return !a.Treasury && b.Treasury
	})
	log.Info(log.CatAdapter, "adapters loaded", "modules", len(res.Modules)+len(res.Treasuries), "failures", len(res.Failures))
	return res
}

func (l *Loader) resolve(ctx context.Context, t Target) (Module, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type outcome struct {
		mod Module
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		mod, err := l.resolver.Resolve(ctx, t.Module)
		done <- outcome{mod, err}
	}()

	select {
	case o := <-done:
		return o.mod, o.err
	case <-ctx.Done():
		return Module{}, fmt.Errorf("resolve %s: %w", t.Module, ctx.Err())
	}
}
