package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/model"
)

type HistoryRepository interface {
	RecordLogin(ctx context.Context, rec *model.LoginRecord) error
	RecordBrowse(ctx context.Context, userID uuid.UUID, slug, name string) error
}

type pgHistoryRepo struct{ db DBTX }

func NewHistoryRepository(db DBTX) HistoryRepository {
	return &pgHistoryRepo{db: db}
}

func (r *pgHistoryRepo) RecordLogin(ctx context.Context, rec *model.LoginRecord) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO login_history (user_id, ip_address, user_agent) VALUES ($1, $2, $3) RETURNING created_at`,
		rec.UserID, rec.IP, rec.UserAgent,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (r *pgHistoryRepo) RecordBrowse(ctx context.Context, userID uuid.UUID, slug, name string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO browsing_history (user_id, product_slug, product_name) VALUES ($1, $2, $3)`,
		userID, slug, name,
	)
	if err != nil {
		return fmt.Errorf("record browse: %w", err)
	}
	return nil
}
