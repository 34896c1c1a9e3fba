package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	RegisterIP   string
	CreatedAt    time.Time
}

type AdminUser struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
}

type AdminSession struct {
	Token     string
	AdminID   uuid.UUID
	Username  string
	ExpiresAt time.Time
}

type LoginRecord struct {
	UserID    uuid.UUID
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// CartItem is a snapshot of a product taken when the client synced its cart.
type CartItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Image     string
	UpdatedAt time.Time
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	OrderID   string
	UserID    *uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Address   string
	City      string
	State     string
	Postcode  string
	Total     decimal.Decimal
	Status    OrderStatus
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        int64
	OrderID   string
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// ItemsTotal sums price*qty over the order's line items.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type Address struct {
	FirstName string
	LastName  string
	Address   string
	Address2  string
	City      string
	State     string
	Postcode  string
	Phone     string
	Email     string
}

type Product struct {
	ID          int64
	Slug        string
	Name        string
	SKU         string
	Price       decimal.Decimal
	Stock       int
	Description string
	Img1        string
	Img2        string
	Images      []string
	Categories  []string
}

type Category struct {
	ID           int64
	Slug         string
	Name         string
	Image        string
	ProductCount int
	ActualCount  int
}

type UserSummary struct {
	ID         uuid.UUID
	Email      string
	RegisterIP string
	CreatedAt  time.Time
	OrderCount int
	LoginCount int
}

type OrderAudit struct {
	OrderID       string
	DeclaredTotal decimal.Decimal
	ItemsTotal    decimal.Decimal
	Mismatch      bool
	AuditedAt     time.Time
}

type Stats struct {
	TotalProducts   int
	TotalOrders     int
	TotalUsers      int
	TotalCategories int
	TotalRevenue    decimal.Decimal
	PendingOrders   int
	RecentOrders    []Order
	RecentUsers     []User
}

// OrdersQueue is the durable queue that carries one OrderMessage per
// committed order.
const OrdersQueue = "orders"

type OrderMessage struct {
	OrderID string          `json:"order_id"`
	UserID  *uuid.UUID      `json:"user_id,omitempty"`
	Total   decimal.Decimal `json:"total"`
}
