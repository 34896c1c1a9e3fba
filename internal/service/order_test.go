package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository/memstore"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	msgs []amqp.Publishing
	err  error
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, msg)
	return nil
}

func orderRequest(userID *uuid.UUID, orderID string) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		UserID:    userID,
		OrderID:   orderID,
		Email:     "a@b.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address:   "1 Analytical St",
		City:      "London",
		State:     "LDN",
		Postcode:  "N1 9GU",
		Phone:     "555-0100",
		Total:     price("19.98"),
		Items: []dto.OrderItemInput{
			{ID: "sku1", Name: "Widget", Price: price("9.99"), Qty: 2},
		},
	}
}

func TestOrderService_PlaceOrder_RoundTrip(t *testing.T) {
	store, db := memstore.New()
	pub := &recordingPublisher{}
	svc := NewOrderService(store, pub, testLogger())
	userID := seedUser(t, store, "a@b.com")

	req := orderRequest(&userID, "ORD1001")
	req.Items = append(req.Items,
		dto.OrderItemInput{ID: "sku2", Name: "Gadget", Price: price("4.50"), Qty: 1},
		dto.OrderItemInput{ID: "sku3", Name: "Gizmo", Price: price("0.99"), Qty: 3},
	)
	id, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ORD1001", id)

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, order.Items, 3)
	for i, in := range req.Items {
		assert.Equal(t, in.ID, order.Items[i].ProductID)
		assert.True(t, in.Price.Equal(order.Items[i].Price))
		assert.Equal(t, in.Qty, order.Items[i].Quantity)
	}
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(price("19.98")))
	require.NotNil(t, order.UserID)
	assert.Equal(t, userID, *order.UserID)

	addr := db.Addresses[userID]
	assert.Equal(t, "Ada", addr.FirstName)
	assert.Equal(t, "555-0100", addr.Phone)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, model.OrdersQueue, pub.keys[0])
	var msg model.OrderMessage
	require.NoError(t, json.Unmarshal(pub.msgs[0].Body, &msg))
	assert.Equal(t, "ORD1001", msg.OrderID)
	assert.True(t, msg.Total.Equal(price("19.98")))
}

func TestOrderService_PlaceOrder_ClearsCart(t *testing.T) {
	store, db := memstore.New()
	svc := NewOrderService(store, nil, testLogger())
	carts := NewCartService(store)
	userID := seedUser(t, store, "a@b.com")

	require.NoError(t, carts.ReplaceCart(context.Background(), userID, []dto.CartItemInput{
		{ID: "sku1", Name: "Widget", Qty: 2},
	}))

	req := orderRequest(&userID, "ORD1")
	req.Items = nil
	_, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, db.CartLen(userID))
}

func TestOrderService_PlaceOrder_DuplicateID(t *testing.T) {
	store, db := memstore.New()
	svc := NewOrderService(store, nil, testLogger())
	carts := NewCartService(store)
	userID := seedUser(t, store, "a@b.com")

	_, err := svc.PlaceOrder(context.Background(), orderRequest(&userID, "DUP1"))
	require.NoError(t, err)

	require.NoError(t, carts.ReplaceCart(context.Background(), userID, []dto.CartItemInput{
		{ID: "sku9", Name: "Other", Qty: 1},
	}))

	second := orderRequest(&userID, "DUP-1")
	second.Items = []dto.OrderItemInput{{ID: "other", Name: "Other", Price: price("1"), Qty: 5}}
	_, err = svc.PlaceOrder(context.Background(), second)
	assert.ErrorIs(t, err, ErrOrderAlreadyExists)
	assert.ErrorIs(t, err, ErrConflict)

	order, err := svc.GetOrder(context.Background(), "DUP1")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "sku1", order.Items[0].ProductID)
	assert.Len(t, db.Orders, 1)
	assert.Equal(t, 1, db.CartLen(userID))
}

func TestOrderService_PlaceOrder_RollsBackOnFailure(t *testing.T) {
	store, db := memstore.New()
	svc := NewOrderService(store, nil, testLogger())
	carts := NewCartService(store)
	userID := seedUser(t, store, "a@b.com")
	require.NoError(t, carts.ReplaceCart(context.Background(), userID, []dto.CartItemInput{
		{ID: "sku1", Name: "Widget", Qty: 2},
	}))

	for _, op := range []string{"Orders.CreateItems", "Carts.Clear", "Addresses.UpsertDefault"} {
		t.Run(op, func(t *testing.T) {
			db.FailWith(op, memstore.ErrInjected)
			defer db.FailWith(op, nil)

			_, err := svc.PlaceOrder(context.Background(), orderRequest(&userID, "FAIL1"))
			require.ErrorIs(t, err, memstore.ErrInjected)

			_, err = svc.GetOrder(context.Background(), "FAIL1")
			assert.ErrorIs(t, err, ErrOrderNotFound)
			assert.Equal(t, 1, db.CartLen(userID))
			assert.Zero(t, db.AddressCount(userID))
		})
	}
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	store, db := memstore.New()
	svc := NewOrderService(store, nil, testLogger())
	userID := seedUser(t, store, "a@b.com")

	req := orderRequest(&userID, "--!!--")
	req.City = "   "
	req.Email = ""
	_, err := svc.PlaceOrder(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"missing required fields: order_id, email, city"}, verr.Problems)
	assert.Empty(t, db.Orders)
}

func TestOrderService_PlaceOrder_NormalizesOrderID(t *testing.T) {
	store, _ := memstore.New()
	svc := NewOrderService(store, nil, testLogger())

	long := "ab-cd_ef" + strings.Repeat("0123456789", 6)
	id, err := svc.PlaceOrder(context.Background(), orderRequest(nil, long))
	require.NoError(t, err)
	assert.Equal(t, alnumOnly(long[:maxOrderIDLen]), id)
	assert.Len(t, id, maxOrderIDLen-2)
}

func TestOrderService_PlaceOrder_SkipsBadLines(t *testing.T) {
	store, _ := memstore.New()
	svc := NewOrderService(store, nil, testLogger())

	req := orderRequest(nil, "LINES1")
	req.Items = []dto.OrderItemInput{
		{ID: " ", Name: "blank", Qty: 1},
		{ID: "sku1", Name: "Widget", Price: price("9.99"), Qty: 0},
	}
	id, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)
}

func TestOrderService_PlaceOrder_AmountRange(t *testing.T) {
	store, db := memstore.New()
	svc := NewOrderService(store, nil, testLogger())

	req := orderRequest(nil, "RANGE1")
	req.Total = price("10000000000")
	_, err := svc.PlaceOrder(context.Background(), req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"total is out of range"}, verr.Problems)
	assert.Empty(t, db.Orders)

	req = orderRequest(nil, "RANGE2")
	req.Items = append(req.Items,
		dto.OrderItemInput{ID: "sku2", Name: "Yacht", Price: price("-10000000000"), Qty: 1},
		dto.OrderItemInput{ID: "sku3", Name: "Bulk", Price: price("1"), Qty: maxQty + 1},
	)
	id, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, db.Orders[id].Items, 1)
	assert.Equal(t, "sku1", db.Orders[id].Items[0].ProductID)
}

func TestOrderService_PlaceOrder_Guest(t *testing.T) {
	store, db := memstore.New()
	svc := NewOrderService(store, nil, testLogger())

	id, err := svc.PlaceOrder(context.Background(), orderRequest(nil, "GUEST1"))
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Empty(t, db.Addresses)
}

func TestOrderService_PlaceOrder_UnknownUser(t *testing.T) {
	store, db := memstore.New()
	svc := NewOrderService(store, nil, testLogger())
	ghost := uuid.New()

	_, err := svc.PlaceOrder(context.Background(), orderRequest(&ghost, "GHOST1"))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, db.Orders)
}

func TestOrderService_PublishFailureDoesNotFailOrder(t *testing.T) {
	store, _ := memstore.New()
	pub := &recordingPublisher{err: memstore.ErrInjected}
	svc := NewOrderService(store, pub, testLogger())

	id, err := svc.PlaceOrder(context.Background(), orderRequest(nil, "PUB1"))
	require.NoError(t, err)
	_, err = svc.GetOrder(context.Background(), id)
	assert.NoError(t, err)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	store, _ := memstore.New()
	svc := NewOrderService(store, nil, testLogger())
	id, err := svc.PlaceOrder(context.Background(), orderRequest(nil, "ST1"))
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), id, model.OrderStatusShipped))
	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, order.Status)

	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), id, "lost"), ErrValidation)
	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), "NOPE", model.OrderStatusCancelled), ErrOrderNotFound)
}
