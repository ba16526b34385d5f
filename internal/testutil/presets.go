package testutil

import (
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/domain/registry"
)

// WithStandardChains adds a small alias table: Ethereum, Avalanche (adapter
// key "avax"), BSC, Polygon and Arbitrum, the avax/avalanche synonym and the
// Multi-Chain pseudo chain.
func (b *Builder) WithStandardChains() *Builder {
	return b.
		WithChain(chain.Chain{Name: "Ethereum", Key: "ethereum", GeckoID: "ethereum", ChainID: 1, CmcID: "1027"}, "eth", "mainnet").
		WithChain(chain.Chain{Name: "Avalanche", Key: "avax", GeckoID: "avalanche-2", ChainID: 43114, CmcID: "5805"}, "avalanche-c").
		WithChain(chain.Chain{Name: "BSC", Key: "bsc", GeckoID: "binancecoin", ChainID: 56, CmcID: "1839"}, "Binance", "bnb").
		WithChain(chain.Chain{Name: "Polygon", Key: "polygon", GeckoID: "matic-network", ChainID: 137, CmcID: "3890"}, "matic").
		WithChain(chain.Chain{Name: "Arbitrum", Key: "arbitrum", GeckoID: "arbitrum", ChainID: 42161, CmcID: "11841"}).
		WithSynonym("avax", "avalanche").
		WithIgnoredChain("Multi-Chain")
}

// WithStandardRegistry adds a consistent registry on top of the standard
// chains: a parent with two children, a fork, a multi-chain protocol, a
// placeholder module, a treasury, emissions metadata, dimensions and stats.
//
// Structure:
//
//	parent#aave (Aave)
//	  ├── 1 Aave V2
//	  └── 2 Aave V3
//	3 Uniswap V2
//	4 SushiSwap (forked from 3)
//	5 Placeholder (dummy.js)
func (b *Builder) WithStandardRegistry() *Builder {
	return b.
		WithStandardChains().
		WithParent("parent#aave", ParentName("Aave"), ParentGithub("aave"), ParentGeckoID("aave"), ParentOracles("Chainlink")).
		WithProtocol("1", Name("Aave V2"), Category("Lending"), Chains("Ethereum", "Avalanche", "Polygon"),
			Parent("parent#aave"), Module("aave/v2.js"), Oracles("Chainlink")).
		WithProtocol("2", Name("Aave V3"), Category("Lending"), Chains("Ethereum", "Arbitrum"),
			Parent("parent#aave"), Module("aave/v3.js"), Oracles("Chainlink", "RedStone")).
		WithProtocol("3", Name("Uniswap V2"), Category("Dexs"), Chains("Ethereum"),
			Module("uniswap/v2.js"), Github("Uniswap"), GeckoID("uniswap")).
		WithProtocol("4", Name("SushiSwap"), Category("Dexs"), Chains("Ethereum", "BSC"),
			Module("sushiswap/index.js"), ForkedFrom("3"), GeckoID("sushi")).
		WithProtocol("5", Name("Placeholder"), Category("Services"), Chains("Multi-Chain"), Module("dummy.js")).
		WithTreasury("1-treasury", "Aave Treasury", "treasury/aave.js", "Ethereum").
		WithEmissions(registry.EmissionsAdapter{Key: "aave", Token: "coingecko:aave", ProtocolIDs: []string{"parent#aave"}}).
		WithEmissions(registry.EmissionsAdapter{Key: "uniswap", Token: "coingecko:uniswap", Sources: []string{"https://uniswap.org/blog/uni"}}).
		WithDimension("fees", "aave-v2", "1").
		WithDimension("fees", "uniswap-v2", "3").
		WithDimension("fees", "ethereum", "1027").
		WithDimension("dexs", "uniswap-v2", "3").
		WithStats(100, map[string]registry.CategoryStats{
			"Treasury Bills": {OnChainMcap: 60, ActiveMcap: 50, AssetCount: 3},
			"Private Credit": {OnChainMcap: 39, ActiveMcap: 39, AssetCount: 2},
		})
}
