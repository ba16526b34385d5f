package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// RunModel is the database row for the runs table. Times are Unix
// milliseconds.
type RunModel struct {
	ID         string
	Registry   string
	StartedAt  int64
	FinishedAt int64
	Checks     string // JSON array of check names
	HardCount  int
	SoftCount  int
}

// ViolationModel is the database row for the run_violations table.
type ViolationModel struct {
	RunID    string
	Kind     string
	EntityID string
	Name     string
	Detail   string
}

func toRunModel(r *history.Run) (*RunModel, error) {
	checks := r.Checks
	if checks == nil {
		checks = []string{}
	}
	checksJSON, err := json.Marshal(checks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checks: %w", err)
	}
	return &RunModel{
		ID:         r.ID,
		Registry:   r.Registry,
		StartedAt:  r.StartedAt.UnixMilli(),
		FinishedAt: r.FinishedAt.UnixMilli(),
		Checks:     string(checksJSON),
		HardCount:  r.Hard(),
		SoftCount:  r.Soft(),
	}, nil
}

func toViolationModels(r *history.Run) []ViolationModel {
	out := make([]ViolationModel, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = ViolationModel{
			RunID:    r.ID,
			Kind:     string(v.Kind),
			EntityID: v.EntityID,
			Name:     v.Name,
			Detail:   v.Detail,
		}
	}
	return out
}

// toDomain converts the row to a run without violations.
func (m *RunModel) toDomain() *history.Run {
	var checks []string
	_ = json.Unmarshal([]byte(m.Checks), &checks)
	return &history.Run{
		ID:         m.ID,
		Registry:   m.Registry,
		StartedAt:  time.UnixMilli(m.StartedAt),
		FinishedAt: time.UnixMilli(m.FinishedAt),
		Checks:     checks,
	}
}

func (m ViolationModel) toDomain() violation.Violation {
	return violation.Violation{
		Kind:     violation.Kind(m.Kind),
		EntityID: m.EntityID,
		Name:     m.Name,
		Detail:   m.Detail,
	}
}
