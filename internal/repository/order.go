package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItems(ctx context.Context, orderID string, items []model.OrderItem) error
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (bool, error)
}

type pgOrderRepo struct{ db DBTX }

func NewOrderRepository(db DBTX) OrderRepository {
	return &pgOrderRepo{db: db}
}

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO orders (order_id, user_id, email, first_name, last_name, address, city, state, postcode, total, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.OrderID, order.UserID, order.Email, order.FirstName, order.LastName,
		order.Address, order.City, order.State, order.Postcode, order.Total, order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) CreateItems(ctx context.Context, orderID string, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
		err := r.db.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, price, qty)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			orderID, items[i].ProductID, items[i].Name, items[i].Price, items[i].Quantity,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	order := &model.Order{}
	err := r.db.QueryRow(ctx,
		`SELECT order_id, user_id, email, first_name, last_name, address, city, state, postcode,
				total, status, created_at, updated_at
		 FROM orders WHERE order_id = $1`, orderID,
	).Scan(
		&order.OrderID, &order.UserID, &order.Email, &order.FirstName, &order.LastName,
		&order.Address, &order.City, &order.State, &order.Postcode,
		&order.Total, &order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, product_id, product_name, price, qty FROM order_items WHERE order_id = $1 ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	order.Items = []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = order.OrderID
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) List(ctx context.Context, status string, limit, offset int) ([]model.Order, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT order_id, user_id, email, first_name, last_name, total, status, created_at
		 FROM orders WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.OrderID, &o.UserID, &o.Email, &o.FirstName, &o.LastName, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, total, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE order_id = $1`, orderID, status,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
