package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type OrderService struct {
	store     repository.Store
	publisher Publisher
	log       *slog.Logger
}

// NewOrderService builds the order engine. publisher may be nil, in which
// case no order events are emitted.
func NewOrderService(store repository.Store, publisher Publisher, log *slog.Logger) *OrderService {
	return &OrderService{store: store, publisher: publisher, log: log}
}

// PlaceOrder stores the order header and its lines, empties the buyer's cart
// and saves the shipping fields as their default address, all in one
// transaction. The declared total is stored as given.
func (s *OrderService) PlaceOrder(ctx context.Context, req dto.CreateOrderRequest) (string, error) {
	order, addr, err := buildOrder(req)
	if err != nil {
		return "", err
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if order.UserID != nil {
			ok, err := tx.Users().Lock(ctx, *order.UserID)
			if err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
			if !ok {
				return ErrUserNotFound
			}
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrOrderAlreadyExists
			}
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.Orders().CreateItems(ctx, order.OrderID, order.Items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		if order.UserID == nil {
			return nil
		}
		if err := tx.Carts().Clear(ctx, *order.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if addr != nil {
			if err := tx.Addresses().UpsertDefault(ctx, *order.UserID, addr); err != nil {
				return fmt.Errorf("save address: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, order)
	return order.OrderID, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if !status.Valid() {
		return newValidationError("status must be one of pending, shipped, completed, cancelled")
	}
	ok, err := s.store.Orders().UpdateStatus(ctx, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return ErrOrderNotFound
	}
	return nil
}

func (s *OrderService) publish(ctx context.Context, order *model.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(model.OrderMessage{OrderID: order.OrderID, UserID: order.UserID, Total: order.Total})
	if err != nil {
		s.log.Error("marshal order message", "order_id", order.OrderID, "error", err)
		return
	}
	err = s.publisher.PublishWithContext(ctx, "", model.OrdersQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		s.log.Error("publish order", "order_id", order.OrderID, "error", err)
	}
}

// buildOrder validates and normalizes a checkout request. The returned
// address is nil when the contact fields are not enough to save one.
func buildOrder(req dto.CreateOrderRequest) (*model.Order, *model.Address, error) {
	orderID := alnumOnly(truncate(req.OrderID, maxOrderIDLen))

	o := &model.Order{
		OrderID:   orderID,
		UserID:    req.UserID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Postcode:  req.Postcode,
		Total:     req.Total.Round(2),
		Status:    model.OrderStatusPending,
	}
	missing := applyFields([]field{
		{name: "email", value: &o.Email, max: maxEmailLen, required: true},
		{name: "first_name", value: &o.FirstName, max: maxNameLen, required: true},
		{name: "last_name", value: &o.LastName, max: maxNameLen, required: true},
		{name: "address", value: &o.Address, max: maxAddressLen, required: true},
		{name: "city", value: &o.City, max: maxCityLen, required: true},
		{name: "state", value: &o.State, max: maxStateLen},
		{name: "postcode", value: &o.Postcode, max: maxPostcodeLen, required: true},
	})
	if orderID == "" {
		missing = append([]string{"order_id"}, missing...)
	}
	if len(missing) > 0 {
		return nil, nil, missingFieldsError(missing)
	}
	if !amountInRange(o.Total) {
		return nil, nil, newValidationError("total is out of range")
	}
	if o.UserID != nil && *o.UserID == uuid.Nil {
		o.UserID = nil
	}

	o.Items = make([]model.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		id, name := it.ID, it.Name
		if m := applyFields([]field{
			{name: "id", value: &id, max: maxProductIDLen, required: true},
			{name: "name", value: &name, max: maxProductNameLen},
		}); len(m) > 0 {
			continue
		}
		price := it.Price.Round(2)
		if !amountInRange(price) || it.Qty > maxQty {
			continue
		}
		o.Items = append(o.Items, model.OrderItem{
			ProductID: id,
			Name:      name,
			Price:     price,
			Quantity:  max(it.Qty, 1),
		})
	}

	addr, ok := normalizeAddress(dto.AddressInput{
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Address:   o.Address,
		Address2:  req.Address2,
		City:      o.City,
		State:     o.State,
		Postcode:  o.Postcode,
		Phone:     req.Phone,
		Email:     o.Email,
	})
	if !ok {
		addr = nil
	}
	return o, addr, nil
}
