package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"daicho/internal/domain"
	"daicho/internal/port"
)

type correctionRepo struct {
	db *sqlx.DB
}

// NewCorrectionRepo creates a new PostgreSQL-backed CorrectionRepository.
func NewCorrectionRepo(db *sqlx.DB) port.CorrectionRepository {
	return &correctionRepo{db: db}
}

func (r *correctionRepo) CreateBatch(ctx context.Context, corrections []domain.Correction) error {
	if len(corrections) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range corrections {
		corrections[i].CreatedAt = now
	}

	query := `INSERT INTO corrections (
		id, run_id, record_index, file_name, field,
		original_value, corrected_value, reason, created_at
	) VALUES (
		:id, :run_id, :record_index, :file_name, :field,
		:original_value, :corrected_value, :reason, :created_at
	)`

	_, err := r.db.NamedExecContext(ctx, query, corrections)
	if err != nil {
		return fmt.Errorf("correctionRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *correctionRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Correction, error) {
	var corrections []domain.Correction
	err := r.db.SelectContext(ctx, &corrections,
		"SELECT * FROM corrections WHERE run_id = $1 ORDER BY created_at ASC, record_index ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("correctionRepo.ListByRun: %w", err)
	}
	return corrections, nil
}

func (r *correctionRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM corrections WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("correctionRepo.DeleteByRun: %w", err)
	}
	return nil
}
