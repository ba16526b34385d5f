// Package violation defines the result model of registry consistency checks:
// violation kinds, their severity tier, an order-independent violation set and
// the grouped report handed to presentation and CI gating.
package violation

import (
	"errors"
	"fmt"

	"github.com/zjrosen/regcheck/internal/domain/chain"
)

// Severity separates invariants that fail a run from advisory ones.
type Severity int

const (
	// Soft violations are logged for manual cleanup and never fail a run gated on Hard.
	Soft Severity = iota
	// Hard violations fail the run.
	Hard
)

// String returns a human-readable representation of the Severity.
func (s Severity) String() string {
	switch s {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	default:
		return "unknown"
	}
}

// ParseSeverity parses "hard" or "soft".
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "hard":
		return Hard, nil
	case "soft":
		return Soft, nil
	default:
		return Hard, fmt.Errorf("severity must be \"hard\" or \"soft\", got %q", s)
	}
}

// Kind identifies the invariant a violation breaks.
type Kind string

const (
	KindDuplicateID           Kind = "duplicate-id"
	KindDuplicateName         Kind = "duplicate-name"
	KindDuplicateSlug         Kind = "duplicate-slug"
	KindEmptySlug             Kind = "empty-slug"
	KindDanglingParent        Kind = "dangling-parent"
	KindDanglingFork          Kind = "dangling-fork"
	KindInvalidCategory       Kind = "invalid-category"
	KindDuplicateModule       Kind = "duplicate-module"
	KindUnknownChain          Kind = "unknown-chain"
	KindOracleCasing          Kind = "oracle-casing"
	KindDuplicateGeckoID      Kind = "duplicate-gecko-id"
	KindTreasuryOnChild       Kind = "treasury-on-child"
	KindGovernanceOnChild     Kind = "governance-on-child"
	KindGithubOnChild         Kind = "github-on-child"
	KindGithubNotOrg          Kind = "github-not-org"
	KindMissingChainAdapter   Kind = "missing-chain-adapter"
	KindInvalidTreasuryExport Kind = "invalid-treasury-export"
	KindAdapterLoad           Kind = "adapter-load"
	KindMissingEmissionsToken Kind = "missing-emissions-token"
	KindDuplicateEmissions    Kind = "duplicate-emissions-meta"
	KindMissingChainID        Kind = "missing-chain-id"
	KindDuplicateChainID      Kind = "duplicate-chain-id"
	KindDuplicateDimensionID  Kind = "duplicate-dimension-id"
	KindUnknownDimensionID    Kind = "unknown-dimension-id"
	KindCategoryTotals        Kind = "category-totals"
)

// Sentinel errors a Violation unwraps to, one per error class.
var (
	ErrDuplicateID      = errors.New("duplicate id")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrDuplicateSlug    = errors.New("duplicate slug")
	ErrDuplicateModule  = errors.New("duplicate module")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrDanglingParent   = errors.New("dangling parent reference")
	ErrDanglingFork     = errors.New("dangling fork reference")
	ErrOracleCasing     = errors.New("oracle casing mismatch")
	ErrUnknownChain     = chain.ErrUnknownChain
	ErrAdapterLoad      = errors.New("adapter load failed")
	ErrDuplicateGeckoID = errors.New("duplicate gecko id")
	ErrMetadataOnChild  = errors.New("metadata belongs on parent protocol")
	ErrInvalidGithub    = errors.New("github entry is not an org")
	ErrAdapterShape     = errors.New("adapter module shape")
	ErrEmissionsMeta    = errors.New("emissions metadata")
	ErrChainTable       = errors.New("chain table")
	ErrDimensionID      = errors.New("dimension id")
	ErrCategoryTotals   = errors.New("category totals out of tolerance")
)

type kindInfo struct {
	severity Severity
	err      error
}

var kinds = map[Kind]kindInfo{
	KindDuplicateID:           {Hard, ErrDuplicateID},
	KindDuplicateName:         {Hard, ErrDuplicateName},
	KindDuplicateSlug:         {Hard, ErrDuplicateSlug},
	KindEmptySlug:             {Hard, ErrDuplicateSlug},
	KindDanglingParent:        {Hard, ErrDanglingParent},
	KindDanglingFork:          {Hard, ErrDanglingFork},
	KindInvalidCategory:       {Hard, ErrInvalidCategory},
	KindDuplicateModule:       {Hard, ErrDuplicateModule},
	KindUnknownChain:          {Hard, ErrUnknownChain},
	KindOracleCasing:          {Hard, ErrOracleCasing},
	KindDuplicateGeckoID:      {Hard, ErrDuplicateGeckoID},
	KindTreasuryOnChild:       {Soft, ErrMetadataOnChild},
	KindGovernanceOnChild:     {Soft, ErrMetadataOnChild},
	KindGithubOnChild:         {Soft, ErrMetadataOnChild},
	KindGithubNotOrg:          {Hard, ErrInvalidGithub},
	KindMissingChainAdapter:   {Hard, ErrAdapterShape},
	KindInvalidTreasuryExport: {Hard, ErrAdapterShape},
	KindAdapterLoad:           {Hard, ErrAdapterLoad},
	KindMissingEmissionsToken: {Hard, ErrEmissionsMeta},
	KindDuplicateEmissions:    {Hard, ErrEmissionsMeta},
	KindMissingChainID:        {Hard, ErrChainTable},
	KindDuplicateChainID:      {Hard, ErrChainTable},
	KindDuplicateDimensionID:  {Hard, ErrDimensionID},
	KindUnknownDimensionID:    {Hard, ErrDimensionID},
	KindCategoryTotals:        {Hard, ErrCategoryTotals},
}

// Severity returns the kind's tier. Unknown kinds are Hard.
func (k Kind) Severity() Severity {
	if info, ok := kinds[k]; ok {
		return info.severity
	}
	return Hard
}

// Kinds returns every known kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sortKinds(out)
	return out
}

// Violation is one broken invariant attributed to one entity.
type Violation struct {
	Kind     Kind
	EntityID string // protocol/parent/treasury id, adapter key, chain name or metric name
	Name     string // display name of the entity, when it has one
	Detail   string
}

// New builds a violation with a formatted detail string.
func New(kind Kind, entityID, name, format string, args ...any) Violation {
	return Violation{
		Kind:     kind,
		EntityID: entityID,
		Name:     name,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// Severity returns the severity of the violation's kind.
func (v Violation) Severity() Severity {
	return v.Kind.Severity()
}

func (v Violation) Error() string {
	if v.Name != "" {
		return fmt.Sprintf("%s: %s (%s): %s", v.Kind, v.EntityID, v.Name, v.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", v.Kind, v.EntityID, v.Detail)
}

// Unwrap returns the sentinel error for the violation's kind.
func (v Violation) Unwrap() error {
	if info, ok := kinds[v.Kind]; ok {
		return info.err
	}
	return nil
}

// key identifies a violation inside a Set.
type key struct {
	kind     Kind
	entityID string
}
