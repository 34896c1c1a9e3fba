package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

const (
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

// Consumer is satisfied by *amqp.Channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Idempotency remembers which orders were already audited.
type Idempotency interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

// OrderWorker audits committed orders: it compares the declared total with
// the sum of the stored lines and records the result. Orders are never
// modified.
type OrderWorker struct {
	consumer Consumer
	store    repository.Store
	seen     Idempotency
	log      *slog.Logger
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewOrderWorker(consumer Consumer, store repository.Store, seen Idempotency, log *slog.Logger) *OrderWorker {
	return &OrderWorker{
		consumer: consumer,
		store:    store,
		seen:     seen,
		log:      log,
		done:     make(chan struct{}),
	}
}

// SetupRabbitMQ declares the orders queue with its dead-letter exchange and
// queue.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, model.OrdersQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(model.OrdersQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": model.OrdersQueue,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.consumer.Consume(model.OrdersQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order audit worker started")
	return nil
}

// Stop signals the consume loop and waits for the message in flight.
func (w *OrderWorker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil || orderMsg.OrderID == "" {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID)

	key := "order_audited:" + orderMsg.OrderID
	seen, err := w.seen.Seen(ctx, key)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("order already audited, skipping")
		_ = msg.Ack(false)
		return
	}

	audit, err := w.auditOrder(ctx, orderMsg.OrderID)
	if err != nil {
		log.Error("audit order failed", "error", err)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}
	if audit.Mismatch {
		log.Warn("order total does not match its lines",
			"declared_total", audit.DeclaredTotal, "items_total", audit.ItemsTotal)
	}

	if err := w.seen.Mark(ctx, key, idempotencyTTL); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order audited", "mismatch", audit.Mismatch)
}

func (w *OrderWorker) auditOrder(ctx context.Context, orderID string) (*model.OrderAudit, error) {
	order, err := w.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order not found: %s", orderID)
	}

	itemsTotal := order.ItemsTotal()
	audit := &model.OrderAudit{
		OrderID:       order.OrderID,
		DeclaredTotal: order.Total,
		ItemsTotal:    itemsTotal,
		Mismatch:      !order.Total.Equal(itemsTotal),
	}
	if err := w.store.Audits().Record(ctx, audit); err != nil {
		return nil, fmt.Errorf("record audit: %w", err)
	}
	return audit, nil
}
