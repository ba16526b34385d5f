// Package flags provides read-only feature flags loaded from the flags section
// of the config. Unknown flags are disabled.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/regcheck/internal/log"
)

const (
	// FlagStrictIndex fails index construction on the first duplicate key,
	// same as check --strict.
	FlagStrictIndex = "strict-index"

	// FlagSoftAsHard gates the exit code on soft violations too, same as
	// check --fail-on soft.
	FlagSoftAsHard = "soft-as-hard"

	// FlagHistory records every check run in the history database even when
	// history.enabled is false.
	FlagHistory = "history"
)

// Known lists the flags regcheck reads.
var Known = []string{FlagStrictIndex, FlagSoftAsHard, FlagHistory}

// Registry holds feature flag state.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. The map is copied.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)

	for name := range r.flags {
		if !slices.Contains(Known, name) {
			log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
		}
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is set to true.
// Nil-safe; unknown flags return false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
