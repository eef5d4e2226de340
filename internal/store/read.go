package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sirsim/internal/sir"
)

const runColumns = `id, seq, name, fingerprint, beta, gamma, total_pop,
	susceptible0, infected0, removed0, days, include_initial`

// ReadRun retrieves a single run by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// FindByFingerprint returns the earliest stored run with the given
// fingerprint. Returns ErrNotFound if none exists.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE fingerprint = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 1
	`, fingerprint)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// ListRuns returns every run, optionally filtered by name.
// Ordered by seq ASC, id ASC COLLATE BINARY. Returns an empty slice (not nil)
// when there are no runs.
func (s *Store) ListRuns(ctx context.Context, name string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSteps returns the stored snapshots of a run ordered by day.
// Returns ErrNotFound if the run does not exist; a run with zero days
// returns an empty slice.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]sir.Step, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, susceptible, infected, removed
		FROM steps
		WHERE run_id = ?
		ORDER BY day ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []sir.Step{}
	for rows.Next() {
		var (
			step       sir.Step
			sv, iv, rv sql.NullFloat64
		)
		if err := rows.Scan(&step.Day, &sv, &iv, &rv); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Susceptible = floatFromNull(sv)
		step.Infected = floatFromNull(iv)
		step.Removed = floatFromNull(rv)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run            Run
		beta, gamma, n sql.NullFloat64
		s0, i0, r0     sql.NullFloat64
		includeInitial int
	)
	err := sc.Scan(
		&run.ID,
		&run.Seq,
		&run.Name,
		&run.Fingerprint,
		&beta, &gamma, &n,
		&s0, &i0, &r0,
		&run.Days,
		&includeInitial,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Params = sir.Params{
		Beta:     floatFromNull(beta),
		Gamma:    floatFromNull(gamma),
		TotalPop: floatFromNull(n),
	}
	run.Initial = sir.Step{
		Day:         0,
		Susceptible: floatFromNull(s0),
		Infected:    floatFromNull(i0),
		Removed:     floatFromNull(r0),
	}
	run.IncludeInitial = includeInitial != 0
	return run, nil
}
