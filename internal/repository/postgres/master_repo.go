package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"daicho/internal/domain"
	"daicho/internal/port"
)

type masterRepo struct {
	db *sqlx.DB
}

// NewMasterRepo creates a new PostgreSQL-backed MasterRepository.
func NewMasterRepo(db *sqlx.DB) port.MasterRepository {
	return &masterRepo{db: db}
}

func (r *masterRepo) Upsert(ctx context.Context, master *domain.Master) error {
	query := `
		INSERT INTO masters (
			id, name, format, content, leaf_count, is_active,
			created_at, updated_at
		) VALUES (
			:id, :name, :format, :content, :leaf_count, :is_active,
			NOW(), NOW()
		)
		ON CONFLICT (name) DO UPDATE SET
			format = EXCLUDED.format,
			content = EXCLUDED.content,
			leaf_count = EXCLUDED.leaf_count,
			updated_at = NOW()`

	_, err := r.db.NamedExecContext(ctx, query, master)
	if err != nil {
		return fmt.Errorf("masterRepo.Upsert: %w", err)
	}
	return nil
}

func (r *masterRepo) GetByName(ctx context.Context, name string) (*domain.Master, error) {
	var master domain.Master
	err := r.db.GetContext(ctx, &master,
		"SELECT * FROM masters WHERE name = $1", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("masterRepo.GetByName: %w", err)
	}
	return &master, nil
}

func (r *masterRepo) GetActive(ctx context.Context) (*domain.Master, error) {
	var master domain.Master
	err := r.db.GetContext(ctx, &master,
		"SELECT * FROM masters WHERE is_active = TRUE ORDER BY updated_at DESC LIMIT 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("masterRepo.GetActive: %w", err)
	}
	return &master, nil
}

func (r *masterRepo) List(ctx context.Context) ([]domain.Master, error) {
	var masters []domain.Master
	err := r.db.SelectContext(ctx, &masters,
		"SELECT id, name, format, leaf_count, is_active, created_at, updated_at FROM masters ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("masterRepo.List: %w", err)
	}
	return masters, nil
}

func (r *masterRepo) SetActive(ctx context.Context, name string) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM masters WHERE name = $1)", name)
	if err != nil {
		return fmt.Errorf("masterRepo.SetActive: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	// One statement so the active flag never lands on two rows.
	_, err = r.db.ExecContext(ctx,
		"UPDATE masters SET is_active = (name = $1), updated_at = NOW()", name)
	if err != nil {
		return fmt.Errorf("masterRepo.SetActive: %w", err)
	}
	return nil
}
