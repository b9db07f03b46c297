package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"daicho/internal/domain"
	"daicho/internal/port"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	query := `INSERT INTO runs (
		id, status, source, master_name, title, photos_per_page,
		record_count, matched_count, unmatched_count, ambiguous_sets,
		correction_count, error_message,
		created_at, updated_at, completed_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12,
		$13, $14, $15
	)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.Source, run.MasterName, run.Title, run.PhotosPerPage,
		run.RecordCount, run.MatchedCount, run.UnmatchedCount, run.AmbiguousSets,
		run.CorrectionCount, run.ErrorMessage,
		run.CreatedAt, run.UpdatedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	var run domain.Run
	err := r.db.GetContext(ctx, &run,
		"SELECT * FROM runs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("runRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *runRepo) List(ctx context.Context, offset, limit int) ([]domain.Run, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM runs")
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List count: %w", err)
	}

	var runs []domain.Run
	err = r.db.SelectContext(ctx, &runs,
		"SELECT * FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List: %w", err)
	}
	return runs, total, nil
}

func (r *runRepo) Update(ctx context.Context, run *domain.Run) error {
	run.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs SET
			status = $1, record_count = $2, matched_count = $3,
			unmatched_count = $4, ambiguous_sets = $5, correction_count = $6,
			error_message = $7, updated_at = $8, completed_at = $9
		 WHERE id = $10`,
		run.Status, run.RecordCount, run.MatchedCount,
		run.UnmatchedCount, run.AmbiguousSets, run.CorrectionCount,
		run.ErrorMessage, run.UpdatedAt, run.CompletedAt,
		run.ID)
	if err != nil {
		return fmt.Errorf("runRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
