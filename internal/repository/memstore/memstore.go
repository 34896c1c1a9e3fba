// Package memstore is an in-memory repository.Store for tests. Transactions
// are serialized and roll back by restoring a snapshot.
package memstore

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

// ErrInjected is a convenient error to pass to FailWith.
var ErrInjected = errors.New("injected storage failure")

// DB holds the tables. Tests may read the exported fields directly once no
// other goroutine is using the store.
type DB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	Users     map[uuid.UUID]model.User
	Admins    map[string]model.AdminUser
	Sessions  map[string]model.AdminSession
	Carts     map[uuid.UUID][]model.CartItem
	Orders    map[string]model.Order
	Addresses map[uuid.UUID]model.Address
	Logins    []model.LoginRecord
	Browses   []BrowseRecord
	Products  []model.Product
	Audits    map[string]model.OrderAudit

	nextItemID     int64
	SessionLookups int
	fail           map[string]error
}

type BrowseRecord struct {
	UserID     uuid.UUID
	Slug, Name string
}

func newDB() *DB {
	return &DB{
		Users:     map[uuid.UUID]model.User{},
		Admins:    map[string]model.AdminUser{},
		Sessions:  map[string]model.AdminSession{},
		Carts:     map[uuid.UUID][]model.CartItem{},
		Orders:    map[string]model.Order{},
		Addresses: map[uuid.UUID]model.Address{},
		Audits:    map[string]model.OrderAudit{},
		fail:      map[string]error{},
	}
}

type memSnapshot struct {
	users     map[uuid.UUID]model.User
	admins    map[string]model.AdminUser
	sessions  map[string]model.AdminSession
	carts     map[uuid.UUID][]model.CartItem
	orders    map[string]model.Order
	addresses map[uuid.UUID]model.Address
	logins    []model.LoginRecord
	browses   []BrowseRecord
	audits    map[string]model.OrderAudit
}

func (db *DB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	carts := make(map[uuid.UUID][]model.CartItem, len(db.Carts))
	for k, v := range db.Carts {
		carts[k] = slices.Clone(v)
	}
	orders := make(map[string]model.Order, len(db.Orders))
	for k, v := range db.Orders {
		v.Items = slices.Clone(v.Items)
		orders[k] = v
	}
	return memSnapshot{
		users:     maps.Clone(db.Users),
		admins:    maps.Clone(db.Admins),
		sessions:  maps.Clone(db.Sessions),
		carts:     carts,
		orders:    orders,
		addresses: maps.Clone(db.Addresses),
		logins:    slices.Clone(db.Logins),
		browses:   slices.Clone(db.Browses),
		audits:    maps.Clone(db.Audits),
	}
}

func (db *DB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.Users, db.Admins, db.Sessions = s.users, s.admins, s.sessions
	db.Carts, db.Orders, db.Addresses = s.carts, s.orders, s.addresses
	db.Logins, db.Browses, db.Audits = s.logins, s.browses, s.audits
}

// failing returns the injected error for op, if any. Callers hold db.mu.
func (db *DB) failing(op string) error {
	return db.fail[op]
}

// FailWith makes every later call of op return err. A nil err clears it.
func (db *DB) FailWith(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail[op] = err
}

func (db *DB) CartLen(userID uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.Carts[userID])
}

func (db *DB) AddressCount(userID uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.Addresses[userID]; ok {
		return 1
	}
	return 0
}

// Store implements repository.Store over a DB.
type Store struct {
	db   *DB
	inTx bool
}

func New() (*Store, *DB) {
	db := newDB()
	return &Store{db: db}, db
}

func (s *Store) Users() repository.UserRepository { return memUsers{s.db} }
func (s *Store) Admins() repository.AdminRepository { return memAdmins{s.db} }
func (s *Store) Sessions() repository.SessionRepository { return memSessions{s.db} }
func (s *Store) Carts() repository.CartRepository { return memCarts{s.db} }
func (s *Store) Orders() repository.OrderRepository { return memOrders{s.db} }
func (s *Store) Addresses() repository.AddressRepository { return memAddresses{s.db} }
func (s *Store) History() repository.HistoryRepository { return memHistory{s.db} }
func (s *Store) Products() repository.ProductRepository { return memProducts{s.db} }
func (s *Store) Stats() repository.StatsRepository { return memStats{s.db} }
func (s *Store) Audits() repository.AuditRepository { return memAudits{s.db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	snap := s.db.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.db.restore(snap)
			panic(p)
		}
		if err != nil {
			s.db.restore(snap)
		}
	}()
	return fn(&Store{db: s.db, inTx: true})
}

type memUsers struct{ db *DB }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failing("Users.Create"); err != nil {
		return err
	}
	for _, u := range r.db.Users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	r.db.Users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.Users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.Users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r memUsers) Lock(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, id)
}

func (r memUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.Users[id]
	return ok, nil
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Users[id]; !ok {
		return false, nil
	}
	delete(r.db.Users, id)
	delete(r.db.Carts, id)
	delete(r.db.Addresses, id)
	for k, o := range r.db.Orders {
		if o.UserID != nil && *o.UserID == id {
			delete(r.db.Orders, k)
		}
	}
	r.db.Logins = slices.DeleteFunc(r.db.Logins, func(l model.LoginRecord) bool { return l.UserID == id })
	r.db.Browses = slices.DeleteFunc(r.db.Browses, func(b BrowseRecord) bool { return b.UserID == id })
	return true, nil
}

func (r memUsers) List(_ context.Context, limit, offset int) ([]model.UserSummary, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var all []model.UserSummary
	for _, u := range r.db.Users {
		s := model.UserSummary{ID: u.ID, Email: u.Email, RegisterIP: u.RegisterIP, CreatedAt: u.CreatedAt}
		for _, o := range r.db.Orders {
			if o.UserID != nil && *o.UserID == u.ID {
				s.OrderCount++
			}
		}
		for _, l := range r.db.Logins {
			if l.UserID == u.ID {
				s.LoginCount++
			}
		}
		all = append(all, s)
	}
	slices.SortFunc(all, func(a, b model.UserSummary) int { return strings.Compare(a.Email, b.Email) })
	return window(all, limit, offset), len(all), nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	return all[offset:min(offset+limit, len(all))]
}

type memAdmins struct{ db *DB }

func (r memAdmins) Create(_ context.Context, admin *model.AdminUser) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Admins[admin.Username]; ok {
		return repository.ErrDuplicate
	}
	admin.ID = uuid.New()
	r.db.Admins[admin.Username] = *admin
	return nil
}

func (r memAdmins) GetByUsername(_ context.Context, username string) (*model.AdminUser, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.Admins[username]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type memSessions struct{ db *DB }

func (r memSessions) Create(_ context.Context, session *model.AdminSession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Sessions[session.Token]; ok {
		return repository.ErrDuplicate
	}
	r.db.Sessions[session.Token] = *session
	return nil
}

func (r memSessions) GetValid(_ context.Context, token string, now time.Time) (*model.AdminSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.SessionLookups++
	if err := r.db.failing("Sessions.GetValid"); err != nil {
		return nil, err
	}
	s, ok := r.db.Sessions[token]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	return &s, nil
}

func (r memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failing("Sessions.DeleteExpired"); err != nil {
		return 0, err
	}
	var n int64
	for k, s := range r.db.Sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.db.Sessions, k)
			n++
		}
	}
	return n, nil
}

type memCarts struct{ db *DB }

func (r memCarts) ListByUser(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := slices.Clone(r.db.Carts[userID])
	slices.Reverse(items)
	if items == nil {
		items = []model.CartItem{}
	}
	return items, nil
}

func (r memCarts) InsertItems(_ context.Context, userID uuid.UUID, items []model.CartItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range items {
		if err := r.db.failing("Carts.InsertItems"); err != nil {
			return err
		}
		for _, existing := range r.db.Carts[userID] {
			if existing.ProductID == items[i].ProductID {
				return repository.ErrDuplicate
			}
		}
		items[i].UpdatedAt = time.Now()
		r.db.Carts[userID] = append(r.db.Carts[userID], items[i])
	}
	return nil
}

func (r memCarts) Clear(_ context.Context, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failing("Carts.Clear"); err != nil {
		return err
	}
	delete(r.db.Carts, userID)
	return nil
}

type memOrders struct{ db *DB }

func (r memOrders) Create(_ context.Context, order *model.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Orders[order.OrderID]; ok {
		return repository.ErrDuplicate
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	stored.Items = nil
	r.db.Orders[order.OrderID] = stored
	return nil
}

func (r memOrders) CreateItems(_ context.Context, orderID string, items []model.OrderItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failing("Orders.CreateItems"); err != nil {
		return err
	}
	o := r.db.Orders[orderID]
	for i := range items {
		r.db.nextItemID++
		items[i].ID = r.db.nextItemID
		items[i].OrderID = orderID
		o.Items = append(o.Items, items[i])
	}
	r.db.Orders[orderID] = o
	return nil
}

func (r memOrders) GetByID(_ context.Context, orderID string) (*model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.Orders[orderID]
	if !ok {
		return nil, nil
	}
	o.Items = slices.Clone(o.Items)
	if o.Items == nil {
		o.Items = []model.OrderItem{}
	}
	return &o, nil
}

func (r memOrders) List(_ context.Context, status string, limit, offset int) ([]model.Order, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var all []model.Order
	for _, o := range r.db.Orders {
		if status == "" || string(o.Status) == status {
			o.Items = nil
			all = append(all, o)
		}
	}
	slices.SortFunc(all, func(a, b model.Order) int { return strings.Compare(a.OrderID, b.OrderID) })
	return window(all, limit, offset), len(all), nil
}

func (r memOrders) UpdateStatus(_ context.Context, orderID string, status model.OrderStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.Orders[orderID]
	if !ok {
		return false, nil
	}
	o.Status = status
	r.db.Orders[orderID] = o
	return true, nil
}

type memAddresses struct{ db *DB }

func (r memAddresses) UpsertDefault(_ context.Context, userID uuid.UUID, addr *model.Address) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failing("Addresses.UpsertDefault"); err != nil {
		return err
	}
	r.db.Addresses[userID] = *addr
	return nil
}

func (r memAddresses) GetDefault(_ context.Context, userID uuid.UUID) (*model.Address, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.Addresses[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type memHistory struct{ db *DB }

func (r memHistory) RecordLogin(_ context.Context, rec *model.LoginRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failing("History.RecordLogin"); err != nil {
		return err
	}
	rec.CreatedAt = time.Now()
	r.db.Logins = append(r.db.Logins, *rec)
	return nil
}

func (r memHistory) RecordBrowse(_ context.Context, userID uuid.UUID, slug, name string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Browses = append(r.db.Browses, BrowseRecord{UserID: userID, Slug: slug, Name: name})
	return nil
}

type memProducts struct{ db *DB }

func (r memProducts) List(_ context.Context, category string) ([]model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.Product{}
	for _, p := range r.db.Products {
		if category == "" || slices.Contains(p.Categories, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) GetBySlug(_ context.Context, slug string) (*model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.Products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memProducts) Search(_ context.Context, q string, limit int) ([]model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.Product{}
	for _, p := range r.db.Products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return window(out, limit, 0), nil
}

func (r memProducts) Page(ctx context.Context, q string, limit, offset int) ([]model.Product, int, error) {
	all, _ := r.Search(ctx, q, len(r.db.Products))
	return window(all, limit, offset), len(all), nil
}

func (r memProducts) Categories(_ context.Context) ([]model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := map[string]int{}
	for _, p := range r.db.Products {
		for _, c := range p.Categories {
			counts[c]++
		}
	}
	out := []model.Category{}
	for i, name := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, model.Category{ID: int64(i + 1), Name: name, ProductCount: counts[name], ActualCount: counts[name]})
	}
	return out, nil
}

type memStats struct{ db *DB }

func (r memStats) Dashboard(_ context.Context, _ int) (*model.Stats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	st := &model.Stats{
		TotalProducts: len(r.db.Products),
		TotalOrders:   len(r.db.Orders),
		TotalUsers:    len(r.db.Users),
		TotalRevenue:  decimal.Zero,
	}
	for _, o := range r.db.Orders {
		st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		if o.Status == model.OrderStatusPending {
			st.PendingOrders++
		}
	}
	return st, nil
}

type memAudits struct{ db *DB }

func (r memAudits) Record(_ context.Context, audit *model.OrderAudit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Audits[audit.OrderID]; !ok {
		r.db.Audits[audit.OrderID] = *audit
	}
	return nil
}
