package store

import (
	"context"
	"fmt"

	"github.com/roach88/sirsim/internal/sir"
)

// Run is a persisted simulation run.
type Run struct {
	ID          string     `json:"id"`
	Seq         int64      `json:"seq"` // assigned by WriteRun
	Name        string     `json:"name"`
	Fingerprint string     `json:"fingerprint"`
	Params      sir.Params `json:"params"`
	Initial     sir.Step   `json:"initial"`
	Days        int        `json:"days"`

	// IncludeInitial records whether the stored steps start at day 0.
	IncludeInitial bool `json:"include_initial"`
}

// WriteRun inserts a run and its steps in one transaction.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same run ID
// twice leaves the first write in place and returns inserted=false.
// Steps are only written together with a new run row.
func (s *Store) WriteRun(ctx context.Context, run Run, steps []sir.Step) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return false, fmt.Errorf("write run: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, name, fingerprint, beta, gamma, total_pop, susceptible0, infected0, removed0, days, include_initial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.Name,
		run.Fingerprint,
		nullableFloat(run.Params.Beta),
		nullableFloat(run.Params.Gamma),
		nullableFloat(run.Params.TotalPop),
		nullableFloat(run.Initial.Susceptible),
		nullableFloat(run.Initial.Infected),
		nullableFloat(run.Initial.Removed),
		run.Days,
		boolToInt(run.IncludeInitial),
	)
	if err != nil {
		return false, fmt.Errorf("write run: insert run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Run already stored; its steps were written with it.
		return false, tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps (run_id, day, susceptible, infected, removed)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("write run: prepare steps: %w", err)
	}
	defer stmt.Close()

	for _, step := range steps {
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			step.Day,
			nullableFloat(step.Susceptible),
			nullableFloat(step.Infected),
			nullableFloat(step.Removed),
		); err != nil {
			return false, fmt.Errorf("write run: insert step day %d: %w", step.Day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

// DeleteRun removes a run and, via ON DELETE CASCADE, its steps.
// Returns ErrNotFound if no such run exists.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
