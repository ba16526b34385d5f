// Package chain implements chain-name canonicalization for the protocol registry.
//
// Protocol records, adapter modules and dimension configs all spell chains
// differently: display names ("Avalanche"), adapter keys ("avax"), legacy
// names ("Binance") and free-form aliases. A Canonicalizer maps every known
// spelling to one Chain, which carries the canonical display name, the
// adapter key and the stable identifiers (coingecko id, numeric chain id,
// coinmarketcap id).
//
// The package is pure: it performs no I/O and the alias table is supplied
// by the caller at construction. Lookups never mutate the Canonicalizer, so
// one instance may be shared across goroutines.
//
// # Resolution order
//
//  1. exact match against names, keys and aliases
//  2. case- and whitespace-folded match against the same strings
//  3. explicit synonyms (symmetric, e.g. "avax" ⇄ "avalanche")
//
// Anything else yields an *UnknownChainError carrying the raw string and,
// when known, the id of the protocol it was found in.
package chain
