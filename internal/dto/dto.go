package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token     string    `json:"token"`
	AdminID   uuid.UUID `json:"adminId"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- Cart ---

type CartItemInput struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
	Image string          `json:"image"`
}

type SyncCartRequest struct {
	Items []CartItemInput `json:"items"`
}

type CartItemResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
	Image string          `json:"image"`
}

type CartResponse struct {
	Success bool               `json:"success"`
	Items   []CartItemResponse `json:"items"`
}

// --- Order ---

type OrderItemInput struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

// CreateOrderRequest is the checkout payload. UserID is absent for guest
// orders. Address2 and Phone only feed the saved default address.
type CreateOrderRequest struct {
	UserID    *uuid.UUID       `json:"user_id"`
	OrderID   string           `json:"order_id"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Address   string           `json:"address"`
	Address2  string           `json:"address_2"`
	City      string           `json:"city"`
	State     string           `json:"state"`
	Postcode  string           `json:"postcode"`
	Phone     string           `json:"phone"`
	Total     decimal.Decimal  `json:"total"`
	Items     []OrderItemInput `json:"items"`
}

type CreateOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Qty         int             `json:"qty"`
}

type OrderResponse struct {
	OrderID   string              `json:"order_id"`
	UserID    *uuid.UUID          `json:"user_id"`
	Email     string              `json:"email"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Address   string              `json:"address,omitempty"`
	City      string              `json:"city,omitempty"`
	State     string              `json:"state,omitempty"`
	Postcode  string              `json:"postcode,omitempty"`
	Total     decimal.Decimal     `json:"total"`
	Status    string              `json:"status"`
	Items     []OrderItemResponse `json:"items,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Address ---

type AddressInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type AddressResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type GetAddressResponse struct {
	Success bool             `json:"success"`
	Address *AddressResponse `json:"address"`
}

// --- Browsing ---

type RecordBrowseRequest struct {
	ProductSlug string `json:"product_slug"`
	ProductName string `json:"product_name"`
}

// --- Catalog ---

type ProductResponse struct {
	ID            int64           `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Description   string          `json:"description,omitempty"`
	Img1          string          `json:"img1"`
	Img2          string          `json:"img2,omitempty"`
	Images        []string        `json:"images"`
	Category      string          `json:"category"`
	AllCategories []string        `json:"all_categories"`
}

type CategoryResponse struct {
	ID           int64  `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	ProductCount int    `json:"product_count"`
	ActualCount  int    `json:"actual_count"`
}

// --- Admin ---

type PageQuery struct {
	Page   int    `form:"page,default=1"`
	Q      string `form:"q"`
	Status string `form:"status"`
}

type PageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type AdminUserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	RegisterIP string    `json:"register_ip"`
	CreatedAt  time.Time `json:"created_at"`
	OrderCount int       `json:"order_count"`
	LoginCount int       `json:"login_count"`
}

type RecentUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type StatsResponse struct {
	TotalProducts   int                  `json:"total_products"`
	TotalOrders     int                  `json:"total_orders"`
	TotalUsers      int                  `json:"total_users"`
	TotalCategories int                  `json:"total_categories"`
	TotalRevenue    decimal.Decimal      `json:"total_revenue"`
	PendingOrders   int                  `json:"pending_orders"`
	RecentOrders    []OrderResponse      `json:"recent_orders"`
	RecentUsers     []RecentUserResponse `json:"recent_users"`
}
