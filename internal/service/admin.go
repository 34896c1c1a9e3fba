package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

const (
	adminPageSize = 20
	recentCount   = 5

	// keeps the OFFSET inside int32 range
	maxAdminPage = math.MaxInt32/adminPageSize + 1
)

// Page is one slice of an admin listing.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Pages int
}

func newPage[T any](items []T, total, page int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := (total + adminPageSize - 1) / adminPageSize
	return Page[T]{Items: items, Total: total, Page: page, Pages: max(pages, 1)}
}

func pageOffset(page int) (int, int) {
	page = min(max(page, 1), maxAdminPage)
	return page, (page - 1) * adminPageSize
}

// AdminService backs the admin console. Callers are expected to have passed
// session validation already.
type AdminService struct {
	store repository.Store
}

func NewAdminService(store repository.Store) *AdminService {
	return &AdminService{store: store}
}

func (s *AdminService) Stats(ctx context.Context) (*model.Stats, error) {
	st, err := s.store.Stats().Dashboard(ctx, recentCount)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return st, nil
}

func (s *AdminService) ListProducts(ctx context.Context, page int, q string) (Page[model.Product], error) {
	page, offset := pageOffset(page)
	products, total, err := s.store.Products().Page(ctx, strings.TrimSpace(q), adminPageSize, offset)
	if err != nil {
		return Page[model.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return newPage(products, total, page), nil
}

// ListOrders filters by status when one is given.
func (s *AdminService) ListOrders(ctx context.Context, page int, status string) (Page[model.Order], error) {
	status = strings.TrimSpace(status)
	if status != "" && !model.OrderStatus(status).Valid() {
		return Page[model.Order]{}, newValidationError("status must be one of pending, shipped, completed, cancelled")
	}
	page, offset := pageOffset(page)
	orders, total, err := s.store.Orders().List(ctx, status, adminPageSize, offset)
	if err != nil {
		return Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return newPage(orders, total, page), nil
}

func (s *AdminService) ListUsers(ctx context.Context, page int) (Page[model.UserSummary], error) {
	page, offset := pageOffset(page)
	users, total, err := s.store.Users().List(ctx, adminPageSize, offset)
	if err != nil {
		return Page[model.UserSummary]{}, fmt.Errorf("list users: %w", err)
	}
	return newPage(users, total, page), nil
}

func (s *AdminService) Categories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.store.Products().Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// DeleteUser removes the account; the schema cascades to everything it owns.
func (s *AdminService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.store.Users().Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}
