package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository/memstore"
)

type ackRecorder struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(uint64, bool) error { return nil }

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (m *memIdempotency) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.keys[key], nil
}

func (m *memIdempotency) Mark(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = true
	return nil
}

type chanConsumer struct {
	ch chan amqp.Delivery
}

func (c chanConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.ch, nil
}

func seedOrder(t *testing.T, store *memstore.Store, id, total string, items ...model.OrderItem) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Orders().Create(ctx, &model.Order{
		OrderID: id, Total: decimal.RequireFromString(total), Status: model.OrderStatusPending,
	}))
	require.NoError(t, store.Orders().CreateItems(ctx, id, items))
}

func delivery(t *testing.T, ack amqp.Acknowledger, orderID string) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(model.OrderMessage{OrderID: orderID})
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func newTestWorker() (*OrderWorker, *memstore.Store, *memstore.DB, *memIdempotency) {
	store, db := memstore.New()
	seen := &memIdempotency{keys: map[string]bool{}}
	w := NewOrderWorker(nil, store, seen, slog.New(slog.DiscardHandler))
	return w, store, db, seen
}

func TestOrderWorker_RecordsMatchingTotal(t *testing.T) {
	w, store, db, seen := newTestWorker()
	seedOrder(t, store, "A1", "19.98", model.OrderItem{ProductID: "sku1", Price: decimal.RequireFromString("9.99"), Quantity: 2})

	ack := &ackRecorder{}
	w.processMessage(context.Background(), delivery(t, ack, "A1"))

	assert.Equal(t, 1, ack.acked)
	audit, ok := db.Audits["A1"]
	require.True(t, ok)
	assert.False(t, audit.Mismatch)
	assert.True(t, audit.ItemsTotal.Equal(decimal.RequireFromString("19.98")))
	assert.True(t, seen.keys["order_audited:A1"])
}

func TestOrderWorker_FlagsMismatchWithoutTouchingOrder(t *testing.T) {
	w, store, db, _ := newTestWorker()
	seedOrder(t, store, "B1", "1.00", model.OrderItem{ProductID: "sku1", Price: decimal.RequireFromString("9.99"), Quantity: 2})

	ack := &ackRecorder{}
	w.processMessage(context.Background(), delivery(t, ack, "B1"))

	assert.Equal(t, 1, ack.acked)
	assert.True(t, db.Audits["B1"].Mismatch)
	assert.True(t, db.Orders["B1"].Total.Equal(decimal.RequireFromString("1.00")))
	assert.Equal(t, model.OrderStatusPending, db.Orders["B1"].Status)
}

func TestOrderWorker_SkipsAlreadyAudited(t *testing.T) {
	w, _, db, seen := newTestWorker()
	seen.keys["order_audited:C1"] = true

	ack := &ackRecorder{}
	w.processMessage(context.Background(), delivery(t, ack, "C1"))

	assert.Equal(t, 1, ack.acked)
	assert.Empty(t, db.Audits)
}

func TestOrderWorker_DeadLettersUnknownOrder(t *testing.T) {
	w, _, _, _ := newTestWorker()

	ack := &ackRecorder{}
	w.processMessage(context.Background(), delivery(t, ack, "missing"))

	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestOrderWorker_DeadLettersGarbage(t *testing.T) {
	w, _, _, _ := newTestWorker()

	ack := &ackRecorder{}
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestOrderWorker_RequeuesWhenIdempotencyUnavailable(t *testing.T) {
	w, _, _, seen := newTestWorker()
	seen.err = errors.New("redis down")

	ack := &ackRecorder{}
	w.processMessage(context.Background(), delivery(t, ack, "D1"))

	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestOrderWorker_StartStop(t *testing.T) {
	_, store, db, seen := newTestWorker()
	seedOrder(t, store, "E1", "5.00", model.OrderItem{ProductID: "p", Price: decimal.RequireFromString("5"), Quantity: 1})

	ch := make(chan amqp.Delivery, 1)
	w := NewOrderWorker(chanConsumer{ch: ch}, store, seen, slog.New(slog.DiscardHandler))
	require.NoError(t, w.Start(context.Background()))

	ack := &ackRecorder{}
	ch <- delivery(t, ack, "E1")
	assert.Eventually(t, func() bool {
		ack.mu.Lock()
		defer ack.mu.Unlock()
		return ack.acked == 1
	}, time.Second, 10*time.Millisecond)

	w.Stop()
	w.Stop()
	assert.Contains(t, db.Audits, "E1")
}
