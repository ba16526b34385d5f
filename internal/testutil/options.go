package testutil

import "github.com/zjrosen/regcheck/internal/domain/registry"

// defaultProtocol returns a protocol that passes every check on its own.
func defaultProtocol(id string) registry.Protocol {
	return registry.Protocol{
		ID:       id,
		Name:     "Protocol " + id,
		Category: "Dexs",
		Chains:   []string{"Ethereum"},
		Module:   "protocol-" + id + "/index.js",
	}
}

// ProtocolOption configures a protocol during builder setup.
type ProtocolOption func(*registry.Protocol)

// Name sets the display name.
func Name(name string) ProtocolOption {
	return func(p *registry.Protocol) { p.Name = name }
}

// PreviousNames sets the former names.
func PreviousNames(names ...string) ProtocolOption {
	return func(p *registry.Protocol) { p.PreviousNames = names }
}

// Category sets the category.
func Category(category string) ProtocolOption {
	return func(p *registry.Protocol) { p.Category = category }
}

// Chains sets the declared chains.
func Chains(chains ...string) ProtocolOption {
	return func(p *registry.Protocol) { p.Chains = chains }
}

// LegacyChain sets the legacy single-chain field.
func LegacyChain(c string) ProtocolOption {
	return func(p *registry.Protocol) { p.Chain = c }
}

// Parent sets the parent protocol reference.
func Parent(id string) ProtocolOption {
	return func(p *registry.Protocol) { p.ParentProtocol = id }
}

// Governance sets the governance ids.
func Governance(ids ...string) ProtocolOption {
	return func(p *registry.Protocol) { p.GovernanceID = ids }
}

// Github sets the github orgs.
func Github(orgs ...string) ProtocolOption {
	return func(p *registry.Protocol) { p.Github = orgs }
}

// TreasuryRef sets the treasury module reference.
func TreasuryRef(ref string) ProtocolOption {
	return func(p *registry.Protocol) { p.Treasury = ref }
}

// Oracles sets the oracle names.
func Oracles(names ...string) ProtocolOption {
	return func(p *registry.Protocol) { p.Oracles = names }
}

// GeckoID sets the coingecko id.
func GeckoID(id string) ProtocolOption {
	return func(p *registry.Protocol) { p.GeckoID = id }
}

// ForkedFrom sets the forkedFromIds.
func ForkedFrom(ids ...string) ProtocolOption {
	return func(p *registry.Protocol) { p.ForkedFromIDs = ids }
}

// Module sets the adapter module reference.
func Module(ref string) ProtocolOption {
	return func(p *registry.Protocol) { p.Module = ref }
}

// ParentOption configures a parent protocol during builder setup.
type ParentOption func(*registry.ParentProtocol)

// ParentName sets the parent's display name.
func ParentName(name string) ParentOption {
	return func(p *registry.ParentProtocol) { p.Name = name }
}

// ParentGithub sets the parent's github orgs.
func ParentGithub(orgs ...string) ParentOption {
	return func(p *registry.ParentProtocol) { p.Github = orgs }
}

// ParentOracles sets the parent's oracle names.
func ParentOracles(names ...string) ParentOption {
	return func(p *registry.ParentProtocol) { p.Oracles = names }
}

// ParentGeckoID sets the parent's coingecko id.
func ParentGeckoID(id string) ParentOption {
	return func(p *registry.ParentProtocol) { p.GeckoID = id }
}
