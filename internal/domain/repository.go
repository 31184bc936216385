package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("not found")

// SweepRepository defines the interface for sweep run persistence operations
type SweepRepository interface {
	// Save stores a completed sweep run
	Save(ctx context.Context, run *SweepRun) error

	// GetByID retrieves a sweep run by its ID
	// Returns an error wrapping ErrNotFound if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*SweepRun, error)

	// List retrieves the most recent sweep runs, newest first
	List(ctx context.Context, limit int) ([]*SweepRun, error)
}
