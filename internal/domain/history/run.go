// Package history defines the persisted record of past check runs and the
// repository interface used to store them.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

// RunNotFoundError reports a missing run. ID is empty for "latest" lookups.
type RunNotFoundError struct {
	ID       string
	Registry string
}

func (e *RunNotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("run %s not found", e.ID)
	}
	return fmt.Sprintf("no runs recorded for registry %s", e.Registry)
}

// Is makes errors.Is(err, ErrRunNotFound) match.
func (e *RunNotFoundError) Is(target error) bool {
	return target == ErrRunNotFound
}

// Run is one completed check run over a registry directory.
type Run struct {
	ID         string
	Registry   string // registry directory the run checked
	StartedAt  time.Time
	FinishedAt time.Time
	Checks     []string
	Violations []violation.Violation
}

// NewRun records a finished report as a run with a fresh id.
func NewRun(registry string, report *violation.Report, startedAt, finishedAt time.Time) *Run {
	r := &Run{
		ID:         uuid.NewString(),
		Registry:   registry,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if report != nil {
		r.Checks = append([]string(nil), report.Checks...)
		r.Violations = report.All()
	}
	return r
}

// Report rebuilds the grouped report of the run.
func (r *Run) Report() *violation.Report {
	report := violation.NewReport(r.Violations)
	report.Checks = append([]string(nil), r.Checks...)
	return report
}

// Hard returns the number of hard violations in the run.
func (r *Run) Hard() int {
	return r.count(violation.Hard)
}

// Soft returns the number of soft violations in the run.
func (r *Run) Soft() int {
	return r.count(violation.Soft)
}

func (r *Run) count(s violation.Severity) int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity() == s {
			n++
		}
	}
	return n
}

// NewSince returns the part of current not already reported by previous:
// violations whose kind and entity did not appear in the previous run.
// A nil previous run leaves current unchanged.
func NewSince(current *violation.Report, previous *Run) *violation.Report {
	if previous == nil {
		return current
	}

	type key struct {
		kind     violation.Kind
		entityID string
	}
	seen := make(map[key]struct{}, len(previous.Violations))
	for _, v := range previous.Violations {
		seen[key{v.Kind, v.EntityID}] = struct{}{}
	}

	var fresh []violation.Violation
	for _, v := range current.All() {
		if _, ok := seen[key{v.Kind, v.EntityID}]; !ok {
			fresh = append(fresh, v)
		}
	}
	out := violation.NewReport(fresh)
	out.Checks = append([]string(nil), current.Checks...)
	return out
}
