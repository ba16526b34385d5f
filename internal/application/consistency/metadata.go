package consistency

import (
	"math"
	"sort"
	"strings"

	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// EmissionsUnique reports emissions adapters without a token and adapters
// sharing a token, protocolIds, notes or sources value with another adapter.
// List fields are compared as whole lists.
func (c *Checker) EmissionsUnique() []violation.Violation {
	var out []violation.Violation
	fields := map[string]map[string][]string{
		"token":       {},
		"protocolIds": {},
		"notes":       {},
		"sources":     {},
	}

	for _, e := range c.idx.Emissions() {
		if _, excluded := c.emissionsSkip[e.Key]; excluded {
			continue
		}
		if strings.TrimSpace(e.Token) == "" {
			out = append(out, violation.New(violation.KindMissingEmissionsToken, e.Key, "", "emissions adapter has no token"))
		} else {
			fields["token"][e.Token] = append(fields["token"][e.Token], e.Key)
		}
		addList := func(field string, values []string) {
			if len(values) == 0 {
				return
			}
			k := strings.Join(values, "\x00")
			fields[field][k] = append(fields[field][k], e.Key)
		}
		addList("protocolIds", e.ProtocolIDs)
		addList("notes", e.Notes)
		addList("sources", e.Sources)
	}

	for field, values := range fields {
		for value, keys := range values {
			if len(keys) < 2 {
				continue
			}
			sort.Strings(keys)
			shown := strings.ReplaceAll(value, "\x00", ", ")
			for _, key := range keys {
				out = append(out, violation.New(violation.KindDuplicateEmissions, key, "",
					"%s %q shared by %s", field, shown, strings.Join(keys, ", ")))
			}
		}
	}
	return out
}

// CategoryTotals reports a stats snapshot whose per-category on-chain mcap
// sum differs from the total by more than the policy tolerance, and
// categories whose active mcap exceeds their on-chain mcap.
func (c *Checker) CategoryTotals() []violation.Violation {
	stats := c.idx.Stats()
	if stats == nil {
		return nil
	}

	categories := make([]string, 0, len(stats.ByCategory))
	for category := range stats.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var out []violation.Violation
	sum := 0.0
	for _, category := range categories {
		s := stats.ByCategory[category]
		sum += s.OnChainMcap
		if s.ActiveMcap > s.OnChainMcap {
			out = append(out, violation.New(violation.KindCategoryTotals, "category:"+category, category,
				"activeMcap %.2f exceeds onChainMcap %.2f", s.ActiveMcap, s.OnChainMcap))
		}
	}

	if len(stats.ByCategory) == 0 {
		return out
	}
	allowed := c.policy.StatsTolerance * math.Abs(stats.TotalOnChainMcap)
	if diff := math.Abs(sum - stats.TotalOnChainMcap); diff > allowed {
		out = append(out, violation.New(violation.KindCategoryTotals, "totalOnChainMcap", "",
			"category sum %.2f differs from total %.2f by %.2f (tolerance %.2f%%)",
			sum, stats.TotalOnChainMcap, diff, c.policy.StatsTolerance*100))
	}
	return out
}
