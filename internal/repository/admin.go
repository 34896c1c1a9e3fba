package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/model"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *model.AdminUser) error
	GetByUsername(ctx context.Context, username string) (*model.AdminUser, error)
}

type pgAdminRepo struct{ db DBTX }

func NewAdminRepository(db DBTX) AdminRepository {
	return &pgAdminRepo{db: db}
}

func (r *pgAdminRepo) Create(ctx context.Context, admin *model.AdminUser) error {
	admin.ID = uuid.New()
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_users (id, username, password_hash) VALUES ($1, $2, $3)`,
		admin.ID, admin.Username, admin.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (r *pgAdminRepo) GetByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	admin := &model.AdminUser{}
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash FROM admin_users WHERE username = $1`, username,
	).Scan(&admin.ID, &admin.Username, &admin.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}
