package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

// CartService mirrors the client-held cart. The server only supports full
// replacement; merging local and remote carts is the client's job.
type CartService struct {
	store repository.Store
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store}
}

// ReplaceCart swaps the user's cart for items in one transaction. Lines
// without an id or name are dropped, not rejected.
func (s *CartService) ReplaceCart(ctx context.Context, userID uuid.UUID, items []dto.CartItemInput) error {
	normalized := normalizeCartItems(items)

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Users().Lock(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if !ok {
			return ErrUserNotFound
		}
		if err := tx.Carts().Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if err := tx.Carts().InsertItems(ctx, userID, normalized); err != nil {
			return fmt.Errorf("insert cart items: %w", err)
		}
		return nil
	})
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	ok, err := s.store.Users().Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	items, err := s.store.Carts().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

func normalizeCartItems(in []dto.CartItemInput) []model.CartItem {
	out := make([]model.CartItem, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, it := range in {
		id, name, image := it.ID, it.Name, it.Image
		missing := applyFields([]field{
			{name: "id", value: &id, max: maxProductIDLen, required: true},
			{name: "name", value: &name, max: maxProductNameLen, required: true},
			{name: "image", value: &image, max: maxImageLen},
		})
		if len(missing) > 0 {
			continue
		}
		price := normalizePrice(it.Price)
		if !amountInRange(price) || it.Qty > maxQty {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		out = append(out, model.CartItem{
			ProductID: id,
			Name:      name,
			Price:     price,
			Quantity:  max(it.Qty, 1),
			Image:     image,
		})
	}
	return out
}

func normalizePrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p.Round(2)
}
