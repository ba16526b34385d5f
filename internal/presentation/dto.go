package presentation

import (
	"time"

	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// ViolationDTO is one violation as printed by the JSON formatter.
type ViolationDTO struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	EntityID string `json:"entityId"`
	Name     string `json:"name,omitempty"`
	Detail   string `json:"detail"`
}

// GroupDTO holds the violations of one kind.
type GroupDTO struct {
	Kind       string         `json:"kind"`
	Severity   string         `json:"severity"`
	Count      int            `json:"count"`
	Violations []ViolationDTO `json:"violations"`
}

// ReportDTO is the JSON shape of a check report.
type ReportDTO struct {
	Checks []string   `json:"checks"`
	Total  int        `json:"total"`
	Hard   int        `json:"hard"`
	Soft   int        `json:"soft"`
	Failed bool       `json:"failed"`
	Groups []GroupDTO `json:"groups"` // always present, empty when clean
}

// RunDTO summarizes one recorded run.
type RunDTO struct {
	ID         string    `json:"id"`
	Registry   string    `json:"registry"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Checks     int       `json:"checks"`
	Hard       int       `json:"hard"`
	Soft       int       `json:"soft"`
}

// FromViolation converts a domain violation to a DTO.
func FromViolation(v violation.Violation) ViolationDTO {
	return ViolationDTO{
		Kind:     string(v.Kind),
		Severity: v.Severity().String(),
		EntityID: v.EntityID,
		Name:     v.Name,
		Detail:   v.Detail,
	}
}

// FromReport converts a report to a DTO. gate decides the Failed field.
func FromReport(r *violation.Report, gate violation.Severity) ReportDTO {
	dto := ReportDTO{
		Checks: []string{},
		Groups: make([]GroupDTO, 0),
	}
	if r == nil {
		return dto
	}

	dto.Checks = append(dto.Checks, r.Checks...)
	dto.Total = r.Count()
	dto.Hard = r.Hard()
	dto.Soft = r.Soft()
	dto.Failed = r.Failed(gate)

	for _, g := range r.Groups {
		group := GroupDTO{
			Kind:       string(g.Kind),
			Severity:   g.Severity.String(),
			Count:      len(g.Violations),
			Violations: make([]ViolationDTO, len(g.Violations)),
		}
		for i, v := range g.Violations {
			group.Violations[i] = FromViolation(v)
		}
		dto.Groups = append(dto.Groups, group)
	}
	return dto
}

// FromRun converts a recorded run to a summary DTO.
func FromRun(run *history.Run) RunDTO {
	return RunDTO{
		ID:         run.ID,
		Registry:   run.Registry,
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt.UTC(),
		Checks:     len(run.Checks),
		Hard:       run.Hard(),
		Soft:       run.Soft(),
	}
}

// FromRuns converts a slice of runs.
func FromRuns(runs []*history.Run) []RunDTO {
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = FromRun(run)
	}
	return dtos
}
