package consistency

import (
	"sort"

	"github.com/zjrosen/regcheck/internal/application/adapter"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// TreasuryExports reports treasury adapter chain entries exporting anything
// other than the permitted keys, or exporting them as something other than a
// function or the lazy marker.
func (c *Checker) TreasuryExports() []violation.Violation {
	var out []violation.Violation
	for _, t := range c.idx.Treasuries() {
		mod, ok := c.treasuryModule(t.ID)
		if !ok {
			continue
		}
		for _, key := range mod.ObjectKeys() {
			if _, ignored := c.treasuryIgnored[key]; ignored {
				continue
			}
			exports := mod.Entries[key].Exports
			names := make([]string, 0, len(exports))
			for n := range exports {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, name := range names {
				kind := exports[name]
				_, allowed := c.treasuryExports[name]
				if allowed && (kind == adapter.ExportFunction || kind == adapter.ExportMarker) {
					continue
				}
				out = append(out, violation.New(violation.KindInvalidTreasuryExport, t.ID, t.Name,
					"adapter %s chain %q exports %q as %s", mod.Ref, key, name, kind))
			}
		}
	}
	return out
}

// AdapterLoads reports every adapter module that failed to resolve, attributed
// to the record that declared it.
func (c *Checker) AdapterLoads() []violation.Violation {
	if !c.hasModules {
		return nil
	}
	out := make([]violation.Violation, 0, len(c.modules.Failures))
	for _, f := range c.modules.Failures {
		if f.Treasury {
			out = append(out, violation.New(violation.KindAdapterLoad, f.EntityID, "",
				"treasury module %s: %v", f.Module, f.Err))
			continue
		}
		out = append(out, violation.New(violation.KindAdapterLoad, f.EntityID, "",
			"module %s: %v", f.Module, f.Err))
	}
	return out
}
