package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/log"
)

const runColumns = `id, registry, started_at, finished_at, checks, hard_count, soft_count`

// runRepository implements history.RunRepository using SQLite.
type runRepository struct {
	db *sql.DB
}

func newRunRepository(db *sql.DB) *runRepository {
	return &runRepository{db: db}
}

var _ history.RunRepository = (*runRepository)(nil)

func scanRun(scanner interface{ Scan(...any) error }) (*RunModel, error) {
	var m RunModel
	err := scanner.Scan(&m.ID, &m.Registry, &m.StartedAt, &m.FinishedAt, &m.Checks, &m.HardCount, &m.SoftCount)
	return &m, err
}

// Save inserts the run and its violations in one transaction.
func (r *runRepository) Save(run *history.Run) error {
	model, err := toRunModel(run)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		model.ID, model.Registry, model.StartedAt, model.FinishedAt, model.Checks, model.HardCount, model.SoftCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_violations (run_id, kind, entity_id, name, detail) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare violation insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, v := range toViolationModels(run) {
		if _, err := stmt.Exec(v.RunID, v.Kind, v.EntityID, v.Name, v.Detail); err != nil {
			return fmt.Errorf("failed to insert violation %s/%s: %w", v.Kind, v.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	log.Debug(log.CatDB, "run saved", "id", run.ID, "violations", len(run.Violations))
	return nil
}

// FindByID returns a run with its violations.
func (r *runRepository) FindByID(id string) (*history.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	model, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &history.RunNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	return r.withViolations(model.toDomain())
}

// Latest returns the most recent run of a registry with its violations.
func (r *runRepository) Latest(registry string) (*history.Run, error) {
	row := r.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE registry = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		registry,
	)
	model, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &history.RunNotFoundError{Registry: registry}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}
	return r.withViolations(model.toDomain())
}

func (r *runRepository) withViolations(run *history.Run) (*history.Run, error) {
	rows, err := r.db.Query(
		`SELECT run_id, kind, entity_id, name, detail FROM run_violations WHERE run_id = ? ORDER BY kind, entity_id`,
		run.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load violations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m ViolationModel
		if err := rows.Scan(&m.RunID, &m.Kind, &m.EntityID, &m.Name, &m.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		run.Violations = append(run.Violations, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate violations: %w", err)
	}
	return run, nil
}

// List returns runs newest first, without violations.
func (r *runRepository) List(filter history.ListFilter) ([]*history.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if filter.Registry != "" {
		query += ` WHERE registry = ?`
		args = append(args, filter.Registry)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*history.Run
	for rows.Next() {
		model, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Prune keeps the newest keep runs of a registry. Violations of deleted runs
// go with them through the foreign key cascade.
func (r *runRepository) Prune(registry string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := r.db.Exec(
		`DELETE FROM runs WHERE registry = ? AND id NOT IN (
			SELECT id FROM runs WHERE registry = ? ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`,
		registry, registry, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Info(log.CatDB, "pruned run history", "registry", registry, "deleted", n)
	}
	return int(n), nil
}
