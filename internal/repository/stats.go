package repository

import (
	"context"
	"fmt"

	"github.com/flicky/go-storefront/internal/model"
)

type StatsRepository interface {
	Dashboard(ctx context.Context, recent int) (*model.Stats, error)
}

type pgStatsRepo struct{ db DBTX }

func NewStatsRepository(db DBTX) StatsRepository {
	return &pgStatsRepo{db: db}
}

func (r *pgStatsRepo) Dashboard(ctx context.Context, recent int) (*model.Stats, error) {
	st := &model.Stats{}
	err := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM categories),
			(SELECT COALESCE(SUM(total), 0) FROM orders),
			(SELECT COUNT(*) FROM orders WHERE status = 'pending')`,
	).Scan(&st.TotalProducts, &st.TotalOrders, &st.TotalUsers, &st.TotalCategories, &st.TotalRevenue, &st.PendingOrders)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	orderRows, err := r.db.Query(ctx,
		`SELECT order_id, email, total, status, created_at FROM orders ORDER BY created_at DESC LIMIT $1`, recent,
	)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer orderRows.Close()
	for orderRows.Next() {
		var o model.Order
		if err := orderRows.Scan(&o.OrderID, &o.Email, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent order: %w", err)
		}
		st.RecentOrders = append(st.RecentOrders, o)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent orders: %w", err)
	}

	userRows, err := r.db.Query(ctx,
		`SELECT id, email, created_at FROM users ORDER BY created_at DESC LIMIT $1`, recent,
	)
	if err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var u model.User
		if err := userRows.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent user: %w", err)
		}
		st.RecentUsers = append(st.RecentUsers, u)
	}
	if err := userRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent users: %w", err)
	}
	return st, nil
}
