package app

import (
	"github.com/zjrosen/regcheck/internal/application/consistency"
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/registry"
)

// CheckCatalog lists every available check without loading a registry.
func CheckCatalog() []consistency.Check {
	idx, err := registry.NewIndex(&registry.Registry{})
	if err != nil {
		return nil
	}
	chains, err := chain.NewCanonicalizer(chain.AliasTable{})
	if err != nil {
		return nil
	}
	checker, err := consistency.New(idx, chains, consistency.DefaultPolicy())
	if err != nil {
		return nil
	}
	return checker.Checks()
}
