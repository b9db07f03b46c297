package port

import (
	"context"

	"github.com/google/uuid"

	"daicho/internal/domain"
)

// RunRepository defines the contract for pipeline run persistence.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, offset, limit int) ([]domain.Run, int, error)
	Update(ctx context.Context, run *domain.Run) error
}

// RecordRepository defines the contract for persisted record entries.
// Entries are written once per run; UpdateClassification rewrites the
// lifted columns and payload when a backfill re-classifies a record.
type RecordRepository interface {
	CreateBatch(ctx context.Context, entries []domain.RecordEntry) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.RecordEntry, error)
	UpdateClassification(ctx context.Context, entry *domain.RecordEntry) error
}

// CorrectionRepository defines the contract for the normalization audit.
type CorrectionRepository interface {
	CreateBatch(ctx context.Context, corrections []domain.Correction) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Correction, error)
	DeleteByRun(ctx context.Context, runID uuid.UUID) error
}

// MasterRepository defines the contract for stored hierarchy masters.
// At most one master is active at a time; SetActive flips the flag
// atomically.
type MasterRepository interface {
	Upsert(ctx context.Context, master *domain.Master) error
	GetByName(ctx context.Context, name string) (*domain.Master, error)
	GetActive(ctx context.Context) (*domain.Master, error)
	List(ctx context.Context) ([]domain.Master, error)
	SetActive(ctx context.Context, name string) error
}
