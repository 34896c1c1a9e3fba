package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/model"
)

func createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hashed", RegisterIP: "127.0.0.1"}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	resetDB(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createUser(t, "test@example.com")
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "127.0.0.1", found.RegisterIP)

	missing, err := repo.GetByEmail(ctx, "TEST@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &model.User{Email: "test@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepo_DeleteCascades(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	store := NewStore(testPool)
	user := createUser(t, "gone@example.com")

	require.NoError(t, store.Carts().InsertItems(ctx, user.ID, []model.CartItem{
		{ProductID: "sku1", Name: "Widget", Price: decimal.NewFromInt(1), Quantity: 1},
	}))
	require.NoError(t, store.Orders().Create(ctx, &model.Order{
		OrderID: "CASCADE1", UserID: &user.ID, Email: "gone@example.com", FirstName: "G", LastName: "O",
		Address: "A", City: "C", Postcode: "P", Total: decimal.NewFromInt(1), Status: model.OrderStatusPending,
	}))
	require.NoError(t, store.Orders().CreateItems(ctx, "CASCADE1", []model.OrderItem{{ProductID: "sku1", Quantity: 1}}))
	require.NoError(t, store.Addresses().UpsertDefault(ctx, user.ID, &model.Address{FirstName: "G", Address: "A", City: "C", Postcode: "P"}))
	require.NoError(t, store.History().RecordLogin(ctx, &model.LoginRecord{UserID: user.ID}))
	require.NoError(t, store.History().RecordBrowse(ctx, user.ID, "slug", "name"))

	ok, err := store.Users().Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, table := range []string{"cart_items", "orders", "order_items", "user_addresses", "login_history", "browsing_history"} {
		var n int
		require.NoError(t, testPool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	ok, err = store.Users().Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	store := NewStore(testPool)
	user := createUser(t, "tx@example.com")
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx Store) error {
		ok, err := tx.Users().Lock(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.Carts().InsertItems(ctx, user.ID, []model.CartItem{
			{ProductID: "sku1", Name: "Widget", Price: decimal.NewFromInt(5), Quantity: 1},
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	items, err := store.Carts().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRepo_ReplaceSequence(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewCartRepository(testPool)
	user := createUser(t, "cart@example.com")

	require.NoError(t, repo.InsertItems(ctx, user.ID, []model.CartItem{
		{ProductID: "sku1", Name: "Widget", Price: decimal.RequireFromString("9.99"), Quantity: 2, Image: "/x.jpg"},
	}))
	items, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 2, items[0].Quantity)

	err = repo.InsertItems(ctx, user.ID, []model.CartItem{{ProductID: "sku1", Name: "Again", Quantity: 1}})
	assert.Error(t, err)

	require.NoError(t, repo.Clear(ctx, user.ID))
	items, err = repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(testPool)
	user := createUser(t, "order@example.com")

	order := &model.Order{
		OrderID: "ORD1", UserID: &user.ID, Email: "order@example.com", FirstName: "O", LastName: "U",
		Address: "1 St", City: "City", Postcode: "PC", Total: decimal.RequireFromString("19.98"),
		Status: model.OrderStatusPending,
	}
	require.NoError(t, repo.Create(ctx, order))
	require.NoError(t, repo.CreateItems(ctx, "ORD1", []model.OrderItem{
		{ProductID: "sku1", Name: "Widget", Price: decimal.RequireFromString("9.99"), Quantity: 2},
	}))

	found, err := repo.GetByID(ctx, "ORD1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.OrderStatusPending, found.Status)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("19.98")))
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)

	dup := *order
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	ok, err := repo.UpdateStatus(ctx, "ORD1", model.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, ok)

	list, total, err := repo.List(ctx, "shipped", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)

	_, total, err = repo.List(ctx, "pending", 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	missing, err := repo.GetByID(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepo_GuestOrder(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	require.NoError(t, repo.Create(ctx, &model.Order{
		OrderID: "GUEST1", Email: "g@example.com", FirstName: "G", LastName: "U",
		Address: "A", City: "C", Postcode: "P", Status: model.OrderStatusPending,
	}))
	found, err := repo.GetByID(ctx, "GUEST1")
	require.NoError(t, err)
	assert.Nil(t, found.UserID)
	assert.NotNil(t, found.Items)
}

func TestAddressRepo_ConcurrentUpsertsKeepOneDefault(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewAddressRepository(testPool)
	user := createUser(t, "addr@example.com")

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.UpsertDefault(ctx, user.ID, &model.Address{
				FirstName: "A", Address: "Street", City: "City", Postcode: string(rune('0' + i)),
			})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var n int
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_addresses WHERE user_id = $1`, user.ID).Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, repo.UpsertDefault(ctx, user.ID, &model.Address{FirstName: "B", Address: "New", City: "Town", Postcode: "Z9"}))
	addr, err := repo.GetDefault(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", addr.Address)
	assert.Equal(t, "Z9", addr.Postcode)
}

func TestSessionRepo_Expiry(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	admin := &model.AdminUser{Username: "root", PasswordHash: "x"}
	require.NoError(t, NewAdminRepository(testPool).Create(ctx, admin))
	repo := NewSessionRepository(testPool)

	now := time.Now().UTC().Truncate(time.Second)
	live := &model.AdminSession{Token: hexToken('a'), AdminID: admin.ID, ExpiresAt: now.Add(time.Hour)}
	dead := &model.AdminSession{Token: hexToken('b'), AdminID: admin.ID, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, dead))

	got, err := repo.GetValid(ctx, live.Token, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "root", got.Username)

	got, err = repo.GetValid(ctx, live.Token, live.ExpiresAt)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = repo.GetValid(ctx, dead.Token, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func hexToken(c byte) string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func TestProductRepo_Catalog(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	_, err := testPool.Exec(ctx, `
		INSERT INTO categories (slug, name, product_count) VALUES ('kitchen', 'Kitchen', 2), ('sale', 'Sale', 0);
		INSERT INTO products (slug, name, price) VALUES ('red-mug', 'Red Mug', 8.00), ('pct', '100% Cotton', 12.50);
		INSERT INTO product_images (product_id, image_url, sort_order) VALUES (1, '/b.jpg', 2), (1, '/a.jpg', 1);
		INSERT INTO product_categories (product_id, category_id) VALUES (1, 1), (1, 2), (2, 1);`)
	require.NoError(t, err)
	repo := NewProductRepository(testPool)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sale, err := repo.List(ctx, "Sale")
	require.NoError(t, err)
	require.Len(t, sale, 1)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, sale[0].Images)
	assert.Equal(t, []string{"Kitchen", "Sale"}, sale[0].Categories)

	p, err := repo.GetBySlug(ctx, "pct")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.50")))

	res, err := repo.Search(ctx, "%", 50)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "pct", res[0].Slug)

	page, total, err := repo.Page(ctx, "", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, 2, cats[0].ActualCount)
}

func TestStatsAndAudits(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	store := NewStore(testPool)
	user := createUser(t, "stats@example.com")

	require.NoError(t, store.Orders().Create(ctx, &model.Order{
		OrderID: "S1", UserID: &user.ID, Email: "e", FirstName: "f", LastName: "l", Address: "a",
		City: "c", Postcode: "p", Total: decimal.RequireFromString("10.50"), Status: model.OrderStatusPending,
	}))

	st, err := store.Stats().Dashboard(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalUsers)
	assert.Equal(t, 1, st.PendingOrders)
	assert.True(t, st.TotalRevenue.Equal(decimal.RequireFromString("10.50")))
	assert.Len(t, st.RecentOrders, 1)

	audit := &model.OrderAudit{OrderID: "S1", DeclaredTotal: decimal.RequireFromString("10.50"), ItemsTotal: decimal.Zero, Mismatch: true}
	require.NoError(t, store.Audits().Record(ctx, audit))
	require.NoError(t, store.Audits().Record(ctx, audit))

	var n int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM order_audits`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_x\\`, EscapeLike(`100% _x\`))
}
