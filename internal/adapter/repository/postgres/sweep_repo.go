package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

// sweepRepository implements domain.SweepRepository
type sweepRepository struct {
	db *DB
}

// NewSweepRepository creates a new sweep run repository
func NewSweepRepository(db *DB) domain.SweepRepository {
	return &sweepRepository{db: db}
}

// Save inserts a completed sweep run
func (r *sweepRepository) Save(ctx context.Context, run *domain.SweepRun) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to encode sweep params: %w", err)
	}
	series, err := json.Marshal(run.Series)
	if err != nil {
		return fmt.Errorf("failed to encode sweep series: %w", err)
	}

	query := `
		INSERT INTO sweep_runs (id, created_at, params, series)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.CreatedAt, params, series); err != nil {
		return fmt.Errorf("failed to insert sweep run: %w", err)
	}

	return nil
}

// GetByID retrieves a sweep run by its ID
func (r *sweepRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SweepRun, error) {
	query := `
		SELECT id, created_at, params, series
		FROM sweep_runs
		WHERE id = $1
	`

	run, err := scanSweepRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sweep run %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sweep run: %w", err)
	}

	return run, nil
}

// List retrieves the most recent sweep runs, newest first
func (r *sweepRepository) List(ctx context.Context, limit int) ([]*domain.SweepRun, error) {
	query := `
		SELECT id, created_at, params, series
		FROM sweep_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.SweepRun, 0)
	for rows.Next() {
		run, err := scanSweepRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sweep run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sweep runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSweepRun(row rowScanner) (*domain.SweepRun, error) {
	var run domain.SweepRun
	var params, series []byte

	if err := row.Scan(&run.ID, &run.CreatedAt, &params, &series); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &run.Params); err != nil {
		return nil, fmt.Errorf("failed to decode sweep params: %w", err)
	}
	if err := json.Unmarshal(series, &run.Series); err != nil {
		return nil, fmt.Errorf("failed to decode sweep series: %w", err)
	}

	return &run, nil
}
