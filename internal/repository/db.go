package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

// DBTX is the subset of pgx used by the repositories.
// Both *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store hands out repositories bound to one connection handle: the pool, or a
// transaction when obtained inside WithTx.
type Store interface {
	Users() UserRepository
	Admins() AdminRepository
	Sessions() SessionRepository
	Carts() CartRepository
	Orders() OrderRepository
	Addresses() AddressRepository
	History() HistoryRepository
	Products() ProductRepository
	Stats() StatsRepository
	Audits() AuditRepository

	// WithTx runs fn inside a transaction. The transaction is committed when
	// fn returns nil and rolled back otherwise, including on panic.
	// Nested calls become savepoints.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type pgStore struct{ db DBTX }

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool}
}

func (s *pgStore) Users() UserRepository { return NewUserRepository(s.db) }
func (s *pgStore) Admins() AdminRepository { return NewAdminRepository(s.db) }
func (s *pgStore) Sessions() SessionRepository { return NewSessionRepository(s.db) }
func (s *pgStore) Carts() CartRepository { return NewCartRepository(s.db) }
func (s *pgStore) Orders() OrderRepository { return NewOrderRepository(s.db) }
func (s *pgStore) Addresses() AddressRepository { return NewAddressRepository(s.db) }
func (s *pgStore) History() HistoryRepository { return NewHistoryRepository(s.db) }
func (s *pgStore) Products() ProductRepository { return NewProductRepository(s.db) }
func (s *pgStore) Stats() StatsRepository { return NewStatsRepository(s.db) }
func (s *pgStore) Audits() AuditRepository { return NewAuditRepository(s.db) }

func (s *pgStore) WithTx(ctx context.Context, fn func(tx Store) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	err = fn(&pgStore{db: tx})
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
