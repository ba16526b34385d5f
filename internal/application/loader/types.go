package loader

import (
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/registry"
)

// chainsFile is the YAML shape of chains.yaml.
type chainsFile struct {
	Chains   []chainYAML       `yaml:"chains"`
	Synonyms map[string]string `yaml:"synonyms"`
	Ignored  []string          `yaml:"ignored"`
}

type chainYAML struct {
	Name    string   `yaml:"name"`
	Key     string   `yaml:"key"`
	GeckoID string   `yaml:"gecko_id"`
	ChainID int64    `yaml:"chain_id"`
	CmcID   string   `yaml:"cmc_id"`
	Aliases []string `yaml:"aliases"`
}

type protocolsFile struct {
	Protocols []protocolYAML `yaml:"protocols"`
}

// protocolYAML keeps the upstream field names so records can be copied
// across without renaming.
type protocolYAML struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	PreviousNames  []string `yaml:"previousNames"`
	Category       string   `yaml:"category"`
	Chains         []string `yaml:"chains"`
	Chain          string   `yaml:"chain"`
	ParentProtocol string   `yaml:"parentProtocol"`
	GovernanceID   []string `yaml:"governanceID"`
	Github         []string `yaml:"github"`
	Treasury       string   `yaml:"treasury"`
	Oracles        []string `yaml:"oracles"`
	GeckoID        string   `yaml:"gecko_id"`
	ForkedFromIDs  []string `yaml:"forkedFromIds"`
	Module         string   `yaml:"module"`
}

type parentsFile struct {
	Parents []parentYAML `yaml:"parents"`
}

type parentYAML struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	PreviousNames []string `yaml:"previousNames"`
	Github        []string `yaml:"github"`
	Oracles       []string `yaml:"oracles"`
	GeckoID       string   `yaml:"gecko_id"`
}

type treasuriesFile struct {
	Treasuries []treasuryYAML `yaml:"treasuries"`
}

type treasuryYAML struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Chains []string `yaml:"chains"`
	Module string   `yaml:"module"`
}

type emissionsYAML struct {
	Token       string   `yaml:"token"`
	ProtocolIDs []string `yaml:"protocolIds"`
	Notes       []string `yaml:"notes"`
	Sources     []string `yaml:"sources"`
}

type dimensionsFile map[string]map[string]struct {
	ID string `yaml:"id"`
}

type statsYAML struct {
	TotalOnChainMcap float64 `yaml:"totalOnChainMcap"`
	TotalActiveMcap  float64 `yaml:"totalActiveMcap"`
	ByCategory       map[string]struct {
		OnChainMcap float64 `yaml:"onChainMcap"`
		ActiveMcap  float64 `yaml:"activeMcap"`
		AssetCount  int     `yaml:"assetCount"`
	} `yaml:"byCategory"`
}

func (f chainsFile) toDomain() chain.AliasTable {
	table := chain.AliasTable{
		Chains:   make([]chain.Entry, 0, len(f.Chains)),
		Synonyms: f.Synonyms,
		Ignored:  f.Ignored,
	}
	for _, c := range f.Chains {
		table.Chains = append(table.Chains, chain.Entry{
			Chain: chain.Chain{
				Name:    c.Name,
				Key:     c.Key,
				GeckoID: c.GeckoID,
				ChainID: c.ChainID,
				CmcID:   c.CmcID,
			},
			Aliases: c.Aliases,
		})
	}
	return table
}

func (p protocolYAML) toDomain() registry.Protocol {
	return registry.Protocol{
		ID:             p.ID,
		Name:           p.Name,
		PreviousNames:  p.PreviousNames,
		Category:       p.Category,
		Chains:         p.Chains,
		Chain:          p.Chain,
		ParentProtocol: p.ParentProtocol,
		GovernanceID:   p.GovernanceID,
		Github:         p.Github,
		Treasury:       p.Treasury,
		Oracles:        p.Oracles,
		GeckoID:        p.GeckoID,
		ForkedFromIDs:  p.ForkedFromIDs,
		Module:         p.Module,
	}
}

func (p parentYAML) toDomain() registry.ParentProtocol {
	return registry.ParentProtocol{
		ID:            p.ID,
		Name:          p.Name,
		PreviousNames: p.PreviousNames,
		Github:        p.Github,
		Oracles:       p.Oracles,
		GeckoID:       p.GeckoID,
	}
}

func (s statsYAML) toDomain() *registry.StatsSnapshot {
	out := &registry.StatsSnapshot{
		TotalOnChainMcap: s.TotalOnChainMcap,
		TotalActiveMcap:  s.TotalActiveMcap,
		ByCategory:       make(map[string]registry.CategoryStats, len(s.ByCategory)),
	}
	for name, c := range s.ByCategory {
		out.ByCategory[name] = registry.CategoryStats{
			OnChainMcap: c.OnChainMcap,
			ActiveMcap:  c.ActiveMcap,
			AssetCount:  c.AssetCount,
		}
	}
	return out
}
