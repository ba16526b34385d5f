// Package loader reads a registry directory into domain types.
//
// The directory layout mirrors the hand-maintained metadata files:
//
//	chains.yaml        canonical chains, synonyms and ignored pseudo chains (required)
//	protocols.yaml     protocol records (required)
//	parents.yaml       parent protocols
//	treasuries.yaml    treasury records
//	emissions/*.yaml   one file per emissions adapter, keyed by file name
//	dimensions.yaml    metric -> adapter key -> {id}
//	stats.yaml         published aggregate snapshot
//
// Optional files may be absent. A file that exists but does not decode is an
// error: the checks only make sense over a registry that parsed completely.
package loader
