package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/repository"
)

type HistoryService struct {
	store repository.Store
}

func NewHistoryService(store repository.Store) *HistoryService {
	return &HistoryService{store: store}
}

func (s *HistoryService) RecordBrowse(ctx context.Context, userID uuid.UUID, req dto.RecordBrowseRequest) error {
	slug, name := req.ProductSlug, req.ProductName
	if missing := applyFields([]field{
		{name: "product_slug", value: &slug, max: maxSlugLen, required: true},
		{name: "product_name", value: &name, max: maxProductNameLen},
	}); len(missing) > 0 {
		return missingFieldsError(missing)
	}

	ok, err := s.store.Users().Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	if err := s.store.History().RecordBrowse(ctx, userID, slug, name); err != nil {
		return fmt.Errorf("record browse: %w", err)
	}
	return nil
}
