package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/model"
)

type AddressRepository interface {
	UpsertDefault(ctx context.Context, userID uuid.UUID, addr *model.Address) error
	GetDefault(ctx context.Context, userID uuid.UUID) (*model.Address, error)
}

type pgAddressRepo struct{ db DBTX }

func NewAddressRepository(db DBTX) AddressRepository {
	return &pgAddressRepo{db: db}
}

// UpsertDefault relies on the user_addresses_one_default partial unique index,
// so concurrent callers for the same user converge on a single row.
func (r *pgAddressRepo) UpsertDefault(ctx context.Context, userID uuid.UUID, addr *model.Address) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_addresses
			(user_id, first_name, last_name, address, address_2, city, state, postcode, phone, email, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		 ON CONFLICT (user_id) WHERE is_default DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			address    = EXCLUDED.address,
			address_2  = EXCLUDED.address_2,
			city       = EXCLUDED.city,
			state      = EXCLUDED.state,
			postcode   = EXCLUDED.postcode,
			phone      = EXCLUDED.phone,
			email      = EXCLUDED.email,
			updated_at = NOW()`,
		userID, addr.FirstName, addr.LastName, addr.Address, addr.Address2,
		addr.City, addr.State, addr.Postcode, addr.Phone, addr.Email,
	)
	if err != nil {
		return fmt.Errorf("upsert default address: %w", err)
	}
	return nil
}

func (r *pgAddressRepo) GetDefault(ctx context.Context, userID uuid.UUID) (*model.Address, error) {
	a := &model.Address{}
	err := r.db.QueryRow(ctx,
		`SELECT first_name, last_name, address, address_2, city, state, postcode, phone, email
		 FROM user_addresses WHERE user_id = $1 AND is_default`, userID,
	).Scan(&a.FirstName, &a.LastName, &a.Address, &a.Address2, &a.City, &a.State, &a.Postcode, &a.Phone, &a.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default address: %w", err)
	}
	return a, nil
}
