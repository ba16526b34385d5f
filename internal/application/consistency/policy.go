package consistency

// Policy is the immutable configuration the checks read: whitelists,
// documented exceptions and tolerances.
type Policy struct {
	// Categories is the protocol category whitelist.
	Categories []string
	// ModuleSentinels are module refs meaning "no adapter"; they may repeat.
	ModuleSentinels []string
	// CoverageSkipModules are never checked for per-chain adapter entries.
	CoverageSkipModules []string
	// DerivedChainPrefixes mark module refs whose chains come from the module
	// itself, such as "volumes/" adapters; coverage is skipped for them.
	DerivedChainPrefixes []string
	// GovernanceExempt lists child protocol ids allowed to keep governance ids.
	GovernanceExempt []string
	// IgnoredAdapterKeys are top-level module keys that are not chains.
	IgnoredAdapterKeys []string
	// TreasuryExports are the only export names a treasury chain entry may have.
	TreasuryExports []string
	// TreasuryIgnoredKeys are treasury module keys skipped by the export check.
	TreasuryIgnoredKeys []string
	// EmissionsExcluded are emissions adapter keys exempt from uniqueness.
	EmissionsExcluded []string
	// StatsTolerance is the allowed relative gap between the stats total and
	// the sum of its categories.
	StatsTolerance float64
}

// DefaultCategories is the category whitelist used when none is configured.
var DefaultCategories = []string{
	"Dexs", "Bridge", "Lending", "Yield Aggregator", "Synthetics", "CDP", "Services",
	"Insurance", "Cross Chain Bridge", "Options", "Chain", "Derivatives", "Payments",
	"Privacy", "Yield", "RWA", "Indexes", "Algo-Stables", "Liquid Staking", "Farm",
	"Reserve Currency", "Launchpad", "Oracle", "Prediction Market", "NFT Marketplace",
	"NFT Lending", "Gaming", "Uncollateralized Lending", "Exotic Options", "CEX",
	"Leveraged Farming", "RWA Lending", "Options Vault", "Liquidity manager",
	"Staking Pool", "Partially Algorithmic Stablecoin", "SoFi", "DEX Aggregator",
	"Liquid Restaking", "Restaking", "Wallets", "NftFi", "Telegram Bot", "Ponzi",
	"Basis Trading", "MEV", "CeDeFi", "CDP Manager", "Governance Incentives",
	"Restaked BTC", "Security Extension", "Anchor BTC", "AI Agents", "Treasury Manager",
	"OTC Marketplace", "Yield Lottery", "Decentralized BTC", "Token Locker", "Bug Bounty",
	"DCA Tools", "Onchain Capital Allocator", "Developer Tools", "Stablecoin Issuer",
	"Coins Tracker", "Domains", "NFT Launchpad", "Trading App", "Foundation",
	"Bridge Aggregator", "Liquidations", "Portfolio Tracker", "Liquidity Automation",
	"Charity Fundraising", "Volume Boosting", "DOR", "Collateral Management", "Meme",
	"Private Investment Platform", "Risk Curators", "Chain Bribes", "DAO Service Provider",
	"Staking Rental", "Canonical Bridge", "Interface",
}

// DefaultPolicy returns the policy the registry has historically been checked with.
func DefaultPolicy() Policy {
	return Policy{
		Categories:           append([]string(nil), DefaultCategories...),
		ModuleSentinels:      []string{"dummy.js", "anyhedge/index.js"},
		CoverageSkipModules:  []string{"dummy.js"},
		DerivedChainPrefixes: []string{"volumes/"},
		GovernanceExempt:     []string{"1384", "1401", "1853"},
		IgnoredAdapterKeys:   []string{"default", "staking", "pool2", "treasury", "hallmarks", "borrowed", "ownTokens"},
		TreasuryExports:      []string{"ownTokens", "tvl"},
		TreasuryIgnoredKeys:  []string{"default"},
		EmissionsExcluded:    []string{"daomaker"},
		StatsTolerance:       0.05,
	}
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, i := range items {
		s[i] = struct{}{}
	}
	return s
}
