package consistency

import (
	"strings"

	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// ParentsExist reports protocols whose parentProtocol matches no parent id.
func (c *Checker) ParentsExist() []violation.Violation {
	var out []violation.Violation
	for _, p := range c.idx.Protocols() {
		if p.ParentProtocol == "" {
			continue
		}
		if _, ok := c.idx.Parent(p.ParentProtocol); !ok {
			out = append(out, violation.New(violation.KindDanglingParent, p.ID, p.Name,
				"parentProtocol %q does not exist", p.ParentProtocol))
		}
	}
	return out
}

// ForksValid reports forkedFromIds entries that are not numeric strings or
// do not match an existing protocol id.
func (c *Checker) ForksValid() []violation.Violation {
	var out []violation.Violation
	for _, p := range c.idx.Protocols() {
		for _, id := range p.ForkedFromIDs {
			switch {
			case !isNumeric(id):
				out = append(out, violation.New(violation.KindDanglingFork, p.ID, p.Name,
					"forkedFromIds entry %q is not numeric", id))
			default:
				if _, ok := c.idx.Protocol(id); !ok {
					out = append(out, violation.New(violation.KindDanglingFork, p.ID, p.Name,
						"forkedFromIds entry %q is not a protocol id", id))
				}
			}
		}
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CategoriesWhitelisted reports protocols whose category is not whitelisted.
func (c *Checker) CategoriesWhitelisted() []violation.Violation {
	var out []violation.Violation
	for _, p := range c.idx.Protocols() {
		if _, ok := c.categories[p.Category]; !ok {
			out = append(out, violation.New(violation.KindInvalidCategory, p.ID, p.Name,
				"category %q is not whitelisted", p.Category))
		}
	}
	return out
}

// OracleCasing reports oracle names whose casing differs from the first
// occurrence of the same lower-cased name. Protocols are visited before
// parents, each in registry order; the first-seen casing is authoritative, so
// this is the one check whose output depends on record order.
func (c *Checker) OracleCasing() []violation.Violation {
	type seen struct {
		casing string
		entity string
	}
	first := make(map[string]seen)
	var out []violation.Violation

	visit := func(id, name string, oracles []string) {
		for _, o := range oracles {
			k := strings.ToLower(o)
			prev, ok := first[k]
			if !ok {
				first[k] = seen{casing: o, entity: id}
				continue
			}
			if prev.casing != o {
				out = append(out, violation.New(violation.KindOracleCasing, id, name,
					"oracle %q should be spelled %q as first seen in %s", o, prev.casing, prev.entity))
			}
		}
	}
	for _, p := range c.idx.Protocols() {
		visit(p.ID, p.Name, p.Oracles)
	}
	for _, p := range c.idx.Parents() {
		visit(p.ID, p.Name, p.Oracles)
	}
	return out
}

// TreasuryOnParent flags child protocols that declare their own treasury.
func (c *Checker) TreasuryOnParent() []violation.Violation {
	var out []violation.Violation
	for _, p := range c.idx.Protocols() {
		if p.IsChild() && p.Treasury != "" {
			out = append(out, violation.New(violation.KindTreasuryOnChild, p.ID, p.Name,
				"treasury %q should move to parent %s", p.Treasury, p.ParentProtocol))
		}
	}
	return out
}

// GovernanceOnParent flags child protocols that declare governance ids,
// except the documented exemptions.
func (c *Checker) GovernanceOnParent() []violation.Violation {
	var out []violation.Violation
	for _, p := range c.idx.Protocols() {
		if !p.IsChild() || len(p.GovernanceID) == 0 {
			continue
		}
		if _, exempt := c.govExempt[p.ID]; exempt {
			continue
		}
		out = append(out, violation.New(violation.KindGovernanceOnChild, p.ID, p.Name,
			"governanceID %s should move to parent %s", strings.Join(p.GovernanceID, ", "), p.ParentProtocol))
	}
	return out
}

// GithubOnParent flags child protocols that declare github orgs.
func (c *Checker) GithubOnParent() []violation.Violation {
	var out []violation.Violation
	for _, p := range c.idx.Protocols() {
		if p.IsChild() && len(p.Github) > 0 {
			out = append(out, violation.New(violation.KindGithubOnChild, p.ID, p.Name,
				"github %s should move to parent %s", strings.Join(p.Github, ", "), p.ParentProtocol))
		}
	}
	return out
}

// GithubOrgsOnly reports github entries that name a repository ("org/repo")
// instead of an org or user.
func (c *Checker) GithubOrgsOnly() []violation.Violation {
	var out []violation.Violation
	check := func(id, name string, github []string) {
		for _, g := range github {
			if strings.Contains(g, "/") {
				out = append(out, violation.New(violation.KindGithubNotOrg, id, name,
					"github entry %q is not an org", g))
			}
		}
	}
	for _, p := range c.idx.Protocols() {
		check(p.ID, p.Name, p.Github)
	}
	for _, p := range c.idx.Parents() {
		check(p.ID, p.Name, p.Github)
	}
	return out
}
