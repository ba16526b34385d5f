package registry

// Protocol is one tracked protocol record.
type Protocol struct {
	ID             string
	Name           string
	PreviousNames  []string
	Category       string
	Chains         []string // raw chain names, in declaration order
	Chain          string   // legacy single-chain field
	ParentProtocol string
	GovernanceID   []string
	Github         []string
	Treasury       string
	Oracles        []string
	GeckoID        string
	ForkedFromIDs  []string
	Module         string
}

// DeclaredChains returns the raw chain names the record declares, the legacy
// Chain field last. Empty strings are skipped.
func (p Protocol) DeclaredChains() []string {
	out := make([]string, 0, len(p.Chains)+1)
	for _, c := range p.Chains {
		if c != "" {
			out = append(out, c)
		}
	}
	if p.Chain != "" {
		out = append(out, p.Chain)
	}
	return out
}

// IsChild reports whether the protocol belongs to a parent protocol.
func (p Protocol) IsChild() bool {
	return p.ParentProtocol != ""
}

// ParentProtocol groups several child protocols.
type ParentProtocol struct {
	ID            string
	Name          string
	PreviousNames []string
	Github        []string
	Oracles       []string
	GeckoID       string
}

// Treasury is a treasury record; its adapter may only expose tvl and ownTokens.
type Treasury struct {
	ID     string
	Name   string
	Chains []string
	Module string
}

// EmissionsAdapter is the metadata of one token unlock adapter.
type EmissionsAdapter struct {
	Key         string // adapter file name without extension
	Token       string
	ProtocolIDs []string
	Notes       []string
	Sources     []string
}

// DimensionConfig maps a metric name (fees, dexs, ...) to its adapter entries,
// each keyed by adapter key and carrying the protocol or chain id it reports for.
type DimensionConfig map[string]map[string]DimensionEntry

// DimensionEntry is one adapter entry inside a dimension metric.
type DimensionEntry struct {
	ID string
}

// CategoryStats is the per-category slice of a stats snapshot.
type CategoryStats struct {
	OnChainMcap float64
	ActiveMcap  float64
	AssetCount  int
}

// StatsSnapshot is a published aggregate whose totals must agree with its breakdown.
type StatsSnapshot struct {
	TotalOnChainMcap float64
	TotalActiveMcap  float64
	ByCategory       map[string]CategoryStats
}

// Registry is the full set of static metadata for one run.
type Registry struct {
	Protocols  []Protocol
	Parents    []ParentProtocol
	Treasuries []Treasury
	Emissions  []EmissionsAdapter
	Dimensions DimensionConfig
	Stats      *StatsSnapshot
}
