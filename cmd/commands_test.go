package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/app"
	"github.com/zjrosen/regcheck/internal/application/loader"
	"github.com/zjrosen/regcheck/internal/domain/chain"
)

func chainsFS() fstest.MapFS {
	return fstest.MapFS{loader.ChainsFile: {Data: []byte(`
chains:
  - name: Ethereum
    key: ethereum
    gecko_id: ethereum
    chain_id: 1
    aliases: [eth]
  - name: Avalanche
    key: avax
    chain_id: 43114
ignored: [Multi-Chain]
`)}}
}

func TestResolveChains_Text(t *testing.T) {
	var out bytes.Buffer
	err := resolveChains(&out, chainsFS(), "text", []string{"eth", "AVAX", "Multi-Chain"})

	require.NoError(t, err)
	require.Equal(t, "eth\tEthereum\tkey=ethereum\tid=ethereum\n"+
		"AVAX\tAvalanche\tkey=avax\tid=43114\n"+
		"Multi-Chain\t(ignored)\n", out.String())
}

func TestResolveChains_Unknown(t *testing.T) {
	var out bytes.Buffer
	err := resolveChains(&out, chainsFS(), "json", []string{"Ethereum", "Mars"})

	require.ErrorIs(t, err, chain.ErrUnknownChain)
	require.Equal(t, ExitViolations, ExitCode(err))

	var dtos []ChainDTO
	require.NoError(t, json.Unmarshal(out.Bytes(), &dtos))
	require.Len(t, dtos, 2)
	require.Equal(t, "Ethereum", dtos[0].Name)
	require.Equal(t, `unknown chain "Mars"`, dtos[1].Error)
}

func TestResolveChains_MissingTable(t *testing.T) {
	err := resolveChains(&bytes.Buffer{}, fstest.MapFS{}, "text", []string{"eth"})
	require.ErrorIs(t, err, loader.ErrMissingRequired)
}

func TestPrintSlugs(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printSlugs(&out, "text", []string{"Aave V3", "aave-v3", "Café Finance", "!!!"}))

	require.Equal(t, "Aave V3\taave-v3\t(collides)\n"+
		"aave-v3\taave-v3\t(collides)\n"+
		"Café Finance\tcafe-finance\n"+
		"!!!\t\t(empty slug)\n", out.String())
}

func TestPrintSlugs_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printSlugs(&out, "json", []string{"SushiSwap", "Sushi Swap"}))

	var dtos []SlugDTO
	require.NoError(t, json.Unmarshal(out.Bytes(), &dtos))
	require.Equal(t, []SlugDTO{{Name: "SushiSwap", Slug: "sushiswap"}, {Name: "Sushi Swap", Slug: "sushi-swap"}}, dtos)
}

func TestListChecks(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listChecks(&out, "text"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(app.CheckCatalog())+1)
	require.True(t, strings.HasPrefix(lines[0], "NAME"))
	require.Contains(t, out.String(), "github-on-parent")

	out.Reset()
	require.NoError(t, listChecks(&out, "json"))
	var dtos []CheckDTO
	require.NoError(t, json.Unmarshal(out.Bytes(), &dtos))
	require.Equal(t, "unique-ids", dtos[0].Name)
	require.Equal(t, "hard", dtos[0].Severity)
	for _, d := range dtos {
		if d.Name == "github-on-parent" {
			require.Equal(t, "soft", d.Severity)
		}
	}
}
