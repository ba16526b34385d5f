// Package consistency runs the registry invariant checks. Each check is
// independent and read-only; Run executes a selection of them concurrently
// and merges their violations into one order-independent report.
package consistency

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/regcheck/internal/application/adapter"
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/registry"
	"github.com/zjrosen/regcheck/internal/domain/violation"
	"github.com/zjrosen/regcheck/internal/log"
)

// Checker errors
var (
	ErrNilIndex         = errors.New("registry index cannot be nil")
	ErrNilCanonicalizer = errors.New("chain canonicalizer cannot be nil")
	ErrUnknownCheck     = errors.New("unknown check")
)

// Check is one named invariant check.
type Check struct {
	Name        string
	Description string
	Kinds       []violation.Kind
	Run         func() []violation.Violation
}

// Severity returns the highest severity among the check's kinds.
func (c Check) Severity() violation.Severity {
	s := violation.Soft
	for _, k := range c.Kinds {
		if k.Severity() > s {
			s = k.Severity()
		}
	}
	return s
}

// Checker runs invariant checks over a registry index.
type Checker struct {
	idx    *registry.Index
	chains *chain.Canonicalizer
	policy Policy

	modules    adapter.Result
	hasModules bool
	tracer     trace.Tracer

	categories      map[string]struct{}
	sentinels       map[string]struct{}
	coverageSkip    map[string]struct{}
	govExempt       map[string]struct{}
	ignoredKeys     map[string]struct{}
	treasuryExports map[string]struct{}
	treasuryIgnored map[string]struct{}
	emissionsSkip   map[string]struct{}
}

// Option configures a Checker.
type Option func(*Checker)

// WithModules supplies resolved adapter modules. Without it the adapter
// checks report nothing.
func WithModules(res adapter.Result) Option {
	return func(c *Checker) {
		c.modules = res
		c.hasModules = true
	}
}

// WithTracer records one span per check.
func WithTracer(t trace.Tracer) Option {
	return func(c *Checker) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New creates a checker. A nil index or canonicalizer is a programming error.
func New(idx *registry.Index, chains *chain.Canonicalizer, policy Policy, opts ...Option) (*Checker, error) {
	if idx == nil {
		return nil, ErrNilIndex
	}
	if chains == nil {
		return nil, ErrNilCanonicalizer
	}

	c := &Checker{
		idx:    idx,
		chains: chains,
		policy: policy,
		tracer: noop.NewTracerProvider().Tracer("regcheck"),

		categories:      toSet(policy.Categories),
		sentinels:       toSet(policy.ModuleSentinels),
		coverageSkip:    toSet(policy.CoverageSkipModules),
		govExempt:       toSet(policy.GovernanceExempt),
		ignoredKeys:     toSet(policy.IgnoredAdapterKeys),
		treasuryExports: toSet(policy.TreasuryExports),
		treasuryIgnored: toSet(policy.TreasuryIgnoredKeys),
		emissionsSkip:   toSet(policy.EmissionsExcluded),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Checks returns every check in a stable order.
func (c *Checker) Checks() []Check {
	return []Check{
		{"unique-ids", "no two protocols or parents share an id", []violation.Kind{violation.KindDuplicateID}, c.UniqueIDs},
		{"unique-names", "names and previous names are unique case-insensitively", []violation.Kind{violation.KindDuplicateName}, c.UniqueNames},
		{"unique-slugs", "generated slugs are unique and non-empty", []violation.Kind{violation.KindDuplicateSlug, violation.KindEmptySlug}, c.UniqueSlugs},
		{"parents-exist", "parentProtocol references resolve", []violation.Kind{violation.KindDanglingParent}, c.ParentsExist},
		{"forks-valid", "forkedFromIds are numeric protocol ids", []violation.Kind{violation.KindDanglingFork}, c.ForksValid},
		{"categories-whitelisted", "categories come from the whitelist", []violation.Kind{violation.KindInvalidCategory}, c.CategoriesWhitelisted},
		{"unique-modules", "adapter modules are unique except sentinels", []violation.Kind{violation.KindDuplicateModule}, c.UniqueModules},
		{"chains-resolve", "declared chains and adapter chain keys are known", []violation.Kind{violation.KindUnknownChain}, c.ChainsResolve},
		{"oracle-casing", "oracle names keep their first-seen casing", []violation.Kind{violation.KindOracleCasing}, c.OracleCasing},
		{"unique-gecko-ids", "gecko ids are unique", []violation.Kind{violation.KindDuplicateGeckoID}, c.UniqueGeckoIDs},
		{"treasury-on-parent", "children leave treasury to their parent", []violation.Kind{violation.KindTreasuryOnChild}, c.TreasuryOnParent},
		{"governance-on-parent", "children leave governance ids to their parent", []violation.Kind{violation.KindGovernanceOnChild}, c.GovernanceOnParent},
		{"github-on-parent", "children leave github to their parent", []violation.Kind{violation.KindGithubOnChild}, c.GithubOnParent},
		{"github-orgs-only", "github entries name orgs, not repos", []violation.Kind{violation.KindGithubNotOrg}, c.GithubOrgsOnly},
		{"chain-adapter-coverage", "multi-chain protocols have an adapter entry per chain", []violation.Kind{violation.KindMissingChainAdapter}, c.ChainAdapterCoverage},
		{"treasury-exports", "treasury adapters only export tvl and ownTokens", []violation.Kind{violation.KindInvalidTreasuryExport}, c.TreasuryExports},
		{"adapter-loads", "every declared adapter module resolves", []violation.Kind{violation.KindAdapterLoad}, c.AdapterLoads},
		{"emissions-unique", "emissions metadata is unique across adapters", []violation.Kind{violation.KindMissingEmissionsToken, violation.KindDuplicateEmissions}, c.EmissionsUnique},
		{"chain-ids-unique", "every canonical chain has one unique stable id", []violation.Kind{violation.KindMissingChainID, violation.KindDuplicateChainID}, c.ChainIDsUnique},
		{"dimension-ids", "dimension config ids are unique and known", []violation.Kind{violation.KindDuplicateDimensionID, violation.KindUnknownDimensionID}, c.DimensionIDs},
		{"category-totals", "stats totals agree with their category breakdown", []violation.Kind{violation.KindCategoryTotals}, c.CategoryTotals},
	}
}

// CheckNames returns the names of every check.
func (c *Checker) CheckNames() []string {
	checks := c.Checks()
	names := make([]string, len(checks))
	for i, ch := range checks {
		names[i] = ch.Name
	}
	return names
}

func (c *Checker) selectChecks(names []string) ([]Check, error) {
	all := c.Checks()
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Check, len(all))
	for _, ch := range all {
		byName[ch.Name] = ch
	}

	var selected []Check
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		ch, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, n)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		selected = append(selected, ch)
	}
	return selected, nil
}

// Run executes the named checks, or all of them when names is empty, and
// returns the merged report. Checks run concurrently; the report does not
// depend on scheduling.
func (c *Checker) Run(ctx context.Context, names ...string) (*violation.Report, error) {
	checks, err := c.selectChecks(names)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "consistency.run")
	defer span.End()

	set := violation.NewSet()
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, checkSpan := c.tracer.Start(gctx, "check."+ch.Name,
				trace.WithAttributes(attribute.String("check.name", ch.Name)))
			defer checkSpan.End()

			vs := ch.Run()
			set.Add(vs...)

			checkSpan.SetAttributes(attribute.Int("check.violations", len(vs)))
			if len(vs) > 0 {
				checkSpan.SetStatus(codes.Error, fmt.Sprintf("%d violations", len(vs)))
			}
			for _, v := range vs {
				if v.Severity() == violation.Soft {
					log.Warn(log.CatCheck, "advisory violation", "check", ch.Name, "entity", v.EntityID, "detail", v.Detail)
				}
			}
			log.Debug(log.CatCheck, "check finished", "check", ch.Name, "violations", len(vs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("run checks: %w", err)
	}

	report := set.Report()
	for _, ch := range checks {
		report.Checks = append(report.Checks, ch.Name)
	}
	sort.Strings(report.Checks)

	span.SetAttributes(
		attribute.Int("report.hard", report.Hard()),
		attribute.Int("report.soft", report.Soft()),
	)
	log.Info(log.CatCheck, "checks complete", "checks", len(checks), "hard", report.Hard(), "soft", report.Soft())
	return report, nil
}
