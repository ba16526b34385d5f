package consistency

import (
	"sort"
	"strings"

	"github.com/zjrosen/regcheck/internal/application/adapter"
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// ChainsResolve reports chain strings that have no canonical chain: the
// declared chains of protocols and treasuries, and the object keys of their
// adapter modules when modules were supplied.
func (c *Checker) ChainsResolve() []violation.Violation {
	var out []violation.Violation

	check := func(id, name string, declared []string, lookup func(string) (adapter.Module, bool)) {
		for _, raw := range declared {
			if c.chains.Ignored(raw) {
				continue
			}
			if _, err := c.chains.CanonicalizeFor(id, raw); err != nil {
				out = append(out, violation.New(violation.KindUnknownChain, id, name, "declared chain: %v", err))
			}
		}
		mod, ok := lookup(id)
		if !ok {
			return
		}
		for _, key := range mod.ObjectKeys() {
			if _, ignored := c.ignoredKeys[key]; ignored {
				continue
			}
			if _, err := c.chains.CanonicalizeFor(id, key); err != nil {
				out = append(out, violation.New(violation.KindUnknownChain, id, name, "adapter %s key: %v", mod.Ref, err))
			}
		}
	}

	for _, p := range c.idx.Protocols() {
		check(p.ID, p.Name, p.DeclaredChains(), c.module)
	}
	for _, t := range c.idx.Treasuries() {
		check(t.ID, t.Name, t.Chains, c.treasuryModule)
	}
	return out
}

func (c *Checker) module(entityID string) (adapter.Module, bool) {
	if !c.hasModules {
		return adapter.Module{}, false
	}
	return c.modules.Module(entityID)
}

func (c *Checker) treasuryModule(entityID string) (adapter.Module, bool) {
	if !c.hasModules {
		return adapter.Module{}, false
	}
	return c.modules.TreasuryModule(entityID)
}

// ChainAdapterCoverage reports multi-chain protocols whose adapter module has
// no entry for one of the declared chains. Module keys and declared chains are
// compared as canonical chains, so "avax" matches an "avalanche" entry.
func (c *Checker) ChainAdapterCoverage() []violation.Violation {
	var out []violation.Violation
	for _, p := range c.idx.Protocols() {
		if _, skip := c.coverageSkip[p.Module]; skip || c.derivedChains(p.Module) {
			continue
		}
		mod, ok := c.module(p.ID)
		if !ok {
			continue
		}

		declared := make(map[string]string) // canonical name -> raw
		for _, raw := range p.Chains {
			if raw == "" || c.chains.Ignored(raw) {
				continue
			}
			ch, err := c.chains.Canonicalize(raw)
			if err != nil {
				continue // reported by ChainsResolve
			}
			if _, seen := declared[ch.Name]; !seen {
				declared[ch.Name] = raw
			}
		}
		if len(declared) < 2 {
			continue
		}

		covered := make(map[string]struct{}, len(mod.Entries))
		for key := range mod.Entries {
			if ch, err := c.chains.Canonicalize(key); err == nil {
				covered[ch.Name] = struct{}{}
			}
		}

		names := make([]string, 0, len(declared))
		for n := range declared {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			if _, ok := covered[n]; !ok {
				out = append(out, violation.New(violation.KindMissingChainAdapter, p.ID, p.Name,
					"adapter %s has no entry for chain %q", mod.Ref, declared[n]))
			}
		}
	}
	return out
}

func (c *Checker) derivedChains(module string) bool {
	for _, prefix := range c.policy.DerivedChainPrefixes {
		if prefix != "" && strings.HasPrefix(module, prefix) {
			return true
		}
	}
	return false
}

// ChainIDsUnique reports canonical chains without a stable id and stable ids
// shared by several chains.
func (c *Checker) ChainIDsUnique() []violation.Violation {
	var out []violation.Violation
	byID := make(map[string][]chain.Chain)
	for _, ch := range c.chains.Chains() {
		id := ch.StableID()
		if id == "" {
			out = append(out, violation.New(violation.KindMissingChainID, ch.Name, ch.Name,
				"chain has no gecko_id, chain_id or cmc_id"))
			continue
		}
		byID[id] = append(byID[id], ch)
	}
	for id, chains := range byID {
		if len(chains) < 2 {
			continue
		}
		for _, ch := range chains {
			out = append(out, violation.New(violation.KindDuplicateChainID, ch.Name, ch.Name,
				"stable id %q is shared by %d chains", id, len(chains)))
		}
	}
	return out
}

// DimensionIDs reports dimension config entries that reuse an id within one
// metric, and ids that are neither a protocol id nor a numeric chain id.
// Chain ids may repeat.
func (c *Checker) DimensionIDs() []violation.Violation {
	chainIDs := make(map[string]struct{})
	for _, ch := range c.chains.Chains() {
		for _, id := range ch.NumericIDs() {
			chainIDs[id] = struct{}{}
		}
	}

	var out []violation.Violation
	for metric, entries := range c.idx.Dimensions() {
		keysByID := make(map[string][]string)
		for key, entry := range entries {
			if _, isChain := chainIDs[entry.ID]; isChain {
				continue
			}
			entity := metric + ":" + key
			if !c.idx.HasProtocolID(entry.ID) {
				out = append(out, violation.New(violation.KindUnknownDimensionID, entity, "",
					"id %q in %s is not a protocol or chain id", entry.ID, metric))
			}
			keysByID[entry.ID] = append(keysByID[entry.ID], key)
		}
		for id, keys := range keysByID {
			if len(keys) < 2 {
				continue
			}
			sort.Strings(keys)
			for _, key := range keys {
				out = append(out, violation.New(violation.KindDuplicateDimensionID, metric+":"+key, "",
					"id %q repeated in %s by %s", id, metric, strings.Join(keys, ", ")))
			}
		}
	}
	return out
}
