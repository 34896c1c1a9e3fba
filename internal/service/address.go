package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

const missingAddressFields = "missing required address fields (first_name, address, city, postcode)"

type AddressService struct {
	store repository.Store
}

func NewAddressService(store repository.Store) *AddressService {
	return &AddressService{store: store}
}

// UpsertDefault saves fields as the user's single default address, replacing
// any previous one.
func (s *AddressService) UpsertDefault(ctx context.Context, userID uuid.UUID, in dto.AddressInput) error {
	addr, ok := normalizeAddress(in)
	if !ok {
		return newValidationError(missingAddressFields)
	}

	exists, err := s.store.Users().Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	if err := s.store.Addresses().UpsertDefault(ctx, userID, addr); err != nil {
		return fmt.Errorf("upsert address: %w", err)
	}
	return nil
}

// GetDefault returns nil without error when the user has no saved address.
func (s *AddressService) GetDefault(ctx context.Context, userID uuid.UUID) (*model.Address, error) {
	addr, err := s.store.Addresses().GetDefault(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return addr, nil
}

// normalizeAddress trims and truncates every field and reports whether the
// required ones survived.
func normalizeAddress(in dto.AddressInput) (*model.Address, bool) {
	a := &model.Address{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Address:   in.Address,
		Address2:  in.Address2,
		City:      in.City,
		State:     in.State,
		Postcode:  in.Postcode,
		Phone:     in.Phone,
		Email:     in.Email,
	}
	missing := applyFields([]field{
		{name: "first_name", value: &a.FirstName, max: maxNameLen, required: true},
		{name: "last_name", value: &a.LastName, max: maxNameLen},
		{name: "address", value: &a.Address, max: maxAddressLen, required: true},
		{name: "address_2", value: &a.Address2, max: maxAddressLen},
		{name: "city", value: &a.City, max: maxCityLen, required: true},
		{name: "state", value: &a.State, max: maxStateLen},
		{name: "postcode", value: &a.Postcode, max: maxPostcodeLen, required: true},
		{name: "phone", value: &a.Phone, max: maxPhoneLen},
		{name: "email", value: &a.Email, max: maxEmailLen},
	})
	return a, len(missing) == 0
}

func missingFieldsError(missing []string) error {
	return newValidationError("missing required fields: " + strings.Join(missing, ", "))
}
