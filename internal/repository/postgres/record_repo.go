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

type recordRepo struct {
	db *sqlx.DB
}

// NewRecordRepo creates a new PostgreSQL-backed RecordRepository.
func NewRecordRepo(db *sqlx.DB) port.RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) CreateBatch(ctx context.Context, entries []domain.RecordEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range entries {
		entries[i].CreatedAt = now
	}

	// sqlx expands a struct slice into a multi-row VALUES clause.
	query := `INSERT INTO records (
		id, run_id, seq, file_name,
		work_type, variety, subphase, station,
		provenance, payload, created_at
	) VALUES (
		:id, :run_id, :seq, :file_name,
		:work_type, :variety, :subphase, :station,
		:provenance, :payload, :created_at
	)`

	_, err := r.db.NamedExecContext(ctx, query, entries)
	if err != nil {
		return fmt.Errorf("recordRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *recordRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.RecordEntry, error) {
	var entries []domain.RecordEntry
	err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM records WHERE run_id = $1 ORDER BY seq ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("recordRepo.ListByRun: %w", err)
	}
	return entries, nil
}

func (r *recordRepo) UpdateClassification(ctx context.Context, entry *domain.RecordEntry) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE records SET
			work_type = $1, variety = $2, subphase = $3, station = $4,
			provenance = $5, payload = $6
		 WHERE id = $7`,
		entry.WorkType, entry.Variety, entry.Subphase, entry.Station,
		entry.Provenance, entry.Payload,
		entry.ID)
	if err != nil {
		return fmt.Errorf("recordRepo.UpdateClassification: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
