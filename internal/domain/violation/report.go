package violation

// Group holds every violation of one kind.
type Group struct {
	Kind       Kind
	Severity   Severity
	Violations []Violation
}

// Report is the outcome of a checker run, grouped by kind so a maintainer can
// fix a whole class of problems at once.
type Report struct {
	Groups []Group
	Checks []string // names of the checks that ran
}

// NewReport groups violations by kind. Groups are ordered by kind and
// violations within a group by entity id.
func NewReport(vs []Violation) *Report {
	sorted := make([]Violation, len(vs))
	copy(sorted, vs)
	sortViolations(sorted)

	r := &Report{}
	for _, v := range sorted {
		n := len(r.Groups)
		if n == 0 || r.Groups[n-1].Kind != v.Kind {
			r.Groups = append(r.Groups, Group{Kind: v.Kind, Severity: v.Kind.Severity()})
			n++
		}
		r.Groups[n-1].Violations = append(r.Groups[n-1].Violations, v)
	}
	return r
}

// All returns every violation in report order.
func (r *Report) All() []Violation {
	var out []Violation
	for _, g := range r.Groups {
		out = append(out, g.Violations...)
	}
	return out
}

// Count returns the total number of violations.
func (r *Report) Count() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Violations)
	}
	return n
}

// Hard returns the number of hard violations.
func (r *Report) Hard() int {
	return r.countSeverity(Hard)
}

// Soft returns the number of soft violations.
func (r *Report) Soft() int {
	return r.countSeverity(Soft)
}

func (r *Report) countSeverity(s Severity) int {
	n := 0
	for _, g := range r.Groups {
		if g.Severity == s {
			n += len(g.Violations)
		}
	}
	return n
}

// Group returns the violations of one kind, or nil.
func (r *Report) Group(kind Kind) []Violation {
	for _, g := range r.Groups {
		if g.Kind == kind {
			return g.Violations
		}
	}
	return nil
}

// Failed reports whether any violation is at or above the gate severity.
// Gating on Hard ignores soft violations; gating on Soft fails on any violation.
func (r *Report) Failed(gate Severity) bool {
	for _, g := range r.Groups {
		if g.Severity >= gate && len(g.Violations) > 0 {
			return true
		}
	}
	return false
}
