package adapter

import "github.com/zjrosen/regcheck/internal/domain/registry"

// Targets lists the adapter modules declared by the registry's protocols and
// treasuries, sentinel modules included. Records without a module are left out.
func Targets(idx *registry.Index) []Target {
	var out []Target
	for _, p := range idx.Protocols() {
		if p.Module != "" {
			out = append(out, Target{EntityID: p.ID, Name: p.Name, Module: p.Module})
		}
	}
	for _, t := range idx.Treasuries() {
		if t.Module != "" {
			out = append(out, Target{EntityID: t.ID, Name: t.Name, Module: t.Module, Treasury: true})
		}
	}
	return out
}
