package chain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonicalizer errors
var (
	ErrUnknownChain   = errors.New("unknown chain")
	ErrEmptyChainName = errors.New("chain name cannot be empty")
	ErrAliasConflict  = errors.New("alias maps to more than one chain")
)

// UnknownChainError reports a chain string with no canonical mapping.
// ProtocolID is empty when the lookup was not made on behalf of a record.
type UnknownChainError struct {
	Raw        string
	ProtocolID string
}

func (e *UnknownChainError) Error() string {
	if e.ProtocolID == "" {
		return fmt.Sprintf("unknown chain %q", e.Raw)
	}
	return fmt.Sprintf("unknown chain %q (found in %s)", e.Raw, e.ProtocolID)
}

// Is makes errors.Is(err, ErrUnknownChain) match.
func (e *UnknownChainError) Is(target error) bool {
	return target == ErrUnknownChain
}

// Chain is a canonical blockchain network.
type Chain struct {
	Name    string // canonical display name, e.g. "Avalanche"
	Key     string // adapter module key, e.g. "avax"
	GeckoID string // coingecko id, e.g. "avalanche-2"
	ChainID int64  // EVM chain id, 0 when not applicable
	CmcID   string // coinmarketcap id
}

// StableID returns the chain's stable identifier: the coingecko id when set,
// otherwise the numeric chain id, otherwise the cmc id. Empty when none is set.
func (c Chain) StableID() string {
	switch {
	case c.GeckoID != "":
		return c.GeckoID
	case c.ChainID != 0:
		return strconv.FormatInt(c.ChainID, 10)
	default:
		return c.CmcID
	}
}

// NumericIDs returns the chain id and cmc id rendered as strings, skipping unset values.
// Dimension configs refer to chains by these.
func (c Chain) NumericIDs() []string {
	var ids []string
	if c.ChainID != 0 {
		ids = append(ids, strconv.FormatInt(c.ChainID, 10))
	}
	if c.CmcID != "" {
		ids = append(ids, c.CmcID)
	}
	return ids
}

// Entry is one row of the alias table.
type Entry struct {
	Chain
	Aliases []string
}

// AliasTable is the immutable configuration a Canonicalizer is built from.
type AliasTable struct {
	Chains   []Entry
	Synonyms map[string]string // symmetric; "avax": "avalanche" also maps avalanche to avax
	Ignored  []string          // pseudo chains accepted in declared chain lists, e.g. "Multi-Chain"
}

// Canonicalizer resolves raw chain strings to canonical chains.
type Canonicalizer struct {
	chains   []Chain
	exact    map[string]int
	folded   map[string]int
	synonyms map[string]string
	ignored  map[string]struct{}
}

// NewCanonicalizer builds lookup tables from the alias table.
// It fails when a chain has no name or one spelling maps to two different chains.
func NewCanonicalizer(table AliasTable) (*Canonicalizer, error) {
	c := &Canonicalizer{
		chains:   make([]Chain, 0, len(table.Chains)),
		exact:    make(map[string]int),
		folded:   make(map[string]int),
		synonyms: make(map[string]string),
		ignored:  make(map[string]struct{}),
	}

	for i, entry := range table.Chains {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("chain %d: %w", i, ErrEmptyChainName)
		}
		c.chains = append(c.chains, entry.Chain)

		spellings := append([]string{entry.Name, entry.Key}, entry.Aliases...)
		for _, s := range spellings {
			if s == "" {
				continue
			}
			if err := c.register(c.exact, s, i); err != nil {
				return nil, err
			}
			if err := c.register(c.folded, Fold(s), i); err != nil {
				return nil, err
			}
		}
	}

	for from, to := range table.Synonyms {
		f, t := Fold(from), Fold(to)
		c.synonyms[f] = t
		if _, exists := c.synonyms[t]; !exists {
			c.synonyms[t] = f
		}
	}

	for _, name := range table.Ignored {
		c.ignored[Fold(name)] = struct{}{}
	}

	return c, nil
}

func (c *Canonicalizer) register(m map[string]int, spelling string, idx int) error {
	if existing, ok := m[spelling]; ok && existing != idx {
		return fmt.Errorf("%w: %q (%s and %s)", ErrAliasConflict, spelling, c.chains[existing].Name, c.chains[idx].Name)
	}
	m[spelling] = idx
	return nil
}

// Fold normalizes a chain spelling for case-insensitive comparison:
// lower-cased, trimmed, inner whitespace collapsed to single spaces.
func Fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Canonicalize resolves raw to its canonical chain.
func (c *Canonicalizer) Canonicalize(raw string) (Chain, error) {
	return c.CanonicalizeFor("", raw)
}

// CanonicalizeFor resolves raw like Canonicalize and records protocolID in
// the error so callers can attribute unknown chains to their source record.
func (c *Canonicalizer) CanonicalizeFor(protocolID, raw string) (Chain, error) {
	if idx, ok := c.exact[raw]; ok {
		return c.chains[idx], nil
	}

	folded := Fold(raw)
	if idx, ok := c.folded[folded]; ok {
		return c.chains[idx], nil
	}

	if syn, ok := c.synonyms[folded]; ok {
		if idx, ok := c.folded[syn]; ok {
			return c.chains[idx], nil
		}
	}

	return Chain{}, &UnknownChainError{Raw: raw, ProtocolID: protocolID}
}

// DisplayName returns the canonical display name for raw.
func (c *Canonicalizer) DisplayName(raw string) (string, error) {
	ch, err := c.Canonicalize(raw)
	if err != nil {
		return "", err
	}
	return ch.Name, nil
}

// Key returns the canonical adapter key for raw, falling back to the folded
// display name for chains without an explicit key.
func (c *Canonicalizer) Key(raw string) (string, error) {
	ch, err := c.Canonicalize(raw)
	if err != nil {
		return "", err
	}
	if ch.Key != "" {
		return ch.Key, nil
	}
	return Fold(ch.Name), nil
}

// Same reports whether a and b resolve to the same canonical chain.
// Unknown spellings are never the same as anything.
func (c *Canonicalizer) Same(a, b string) bool {
	ca, err := c.Canonicalize(a)
	if err != nil {
		return false
	}
	cb, err := c.Canonicalize(b)
	if err != nil {
		return false
	}
	return ca.Name == cb.Name
}

// Ignored reports whether raw is a documented pseudo chain.
func (c *Canonicalizer) Ignored(raw string) bool {
	_, ok := c.ignored[Fold(raw)]
	return ok
}

// Chains returns the canonical chains in table order.
func (c *Canonicalizer) Chains() []Chain {
	out := make([]Chain, len(c.chains))
	copy(out, c.chains)
	return out
}

// Synonyms returns the folded synonym pairs, sorted, for diagnostics.
func (c *Canonicalizer) Synonyms() []string {
	pairs := make([]string, 0, len(c.synonyms))
	for from, to := range c.synonyms {
		pairs = append(pairs, from+"="+to)
	}
	sort.Strings(pairs)
	return pairs
}
