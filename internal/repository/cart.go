package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/model"
)

type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	InsertItems(ctx context.Context, userID uuid.UUID, items []model.CartItem) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type pgCartRepo struct{ db DBTX }

func NewCartRepository(db DBTX) CartRepository {
	return &pgCartRepo{db: db}
}

func (r *pgCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT product_id, product_name, price, qty, image, updated_at
		 FROM cart_items WHERE user_id = $1 ORDER BY updated_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.Image, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

func (r *pgCartRepo) InsertItems(ctx context.Context, userID uuid.UUID, items []model.CartItem) error {
	for i := range items {
		err := r.db.QueryRow(ctx,
			`INSERT INTO cart_items (user_id, product_id, product_name, price, qty, image, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 RETURNING updated_at`,
			userID, items[i].ProductID, items[i].Name, items[i].Price, items[i].Quantity, items[i].Image,
		).Scan(&items[i].UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}
	return nil
}

func (r *pgCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
