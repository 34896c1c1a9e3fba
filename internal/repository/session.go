package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, session *model.AdminSession) error
	// GetValid returns the session only when it expires strictly after now.
	GetValid(ctx context.Context, token string, now time.Time) (*model.AdminSession, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type pgSessionRepo struct{ db DBTX }

func NewSessionRepository(db DBTX) SessionRepository {
	return &pgSessionRepo{db: db}
}

func (r *pgSessionRepo) Create(ctx context.Context, session *model.AdminSession) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_sessions (token, admin_id, expires_at) VALUES ($1, $2, $3)`,
		session.Token, session.AdminID, session.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *pgSessionRepo) GetValid(ctx context.Context, token string, now time.Time) (*model.AdminSession, error) {
	s := &model.AdminSession{}
	err := r.db.QueryRow(ctx,
		`SELECT s.token, s.admin_id, a.username, s.expires_at
		 FROM admin_sessions s JOIN admin_users a ON a.id = s.admin_id
		 WHERE s.token = $1 AND s.expires_at > $2`,
		token, now,
	).Scan(&s.Token, &s.AdminID, &s.Username, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *pgSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return ct.RowsAffected(), nil
}
