package repository

import (
	"context"
	"fmt"

	"github.com/flicky/go-storefront/internal/model"
)

type AuditRepository interface {
	// Record stores the audit result once; a repeated audit of the same order
	// is ignored.
	Record(ctx context.Context, audit *model.OrderAudit) error
}

type pgAuditRepo struct{ db DBTX }

func NewAuditRepository(db DBTX) AuditRepository {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) Record(ctx context.Context, audit *model.OrderAudit) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO order_audits (order_id, declared_total, items_total, mismatch, audited_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (order_id) DO NOTHING`,
		audit.OrderID, audit.DeclaredTotal, audit.ItemsTotal, audit.Mismatch,
	)
	if err != nil {
		return fmt.Errorf("record order audit: %w", err)
	}
	return nil
}
