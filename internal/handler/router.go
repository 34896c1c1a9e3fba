package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/middleware"
)

type Handlers struct {
	Auth    *AuthHandler
	Cart    *CartHandler
	Address *AddressHandler
	History *HistoryHandler
	Order   *OrderHandler
	Product *ProductHandler
	Admin   *AdminHandler
	Health  *HealthHandler
}

// NewRouter wires every route onto a fresh engine. trustedProxies controls
// which forwarding headers gin believes for ClientIP.
func NewRouter(h Handlers, sessions middleware.SessionValidator, trustedProxies []string, log *slog.Logger) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	if h.Health != nil {
		router.GET("/healthz", h.Health.Healthz)
		router.GET("/readyz", h.Health.Readyz)
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		users := v1.Group("/users/:id")
		users.GET("/cart", h.Cart.GetCart)
		users.PUT("/cart", h.Cart.SyncCart)
		users.GET("/address", h.Address.Get)
		users.PUT("/address", h.Address.Save)
		users.POST("/browse", h.History.RecordBrowse)

		v1.POST("/orders", h.Order.CreateOrder)

		v1.GET("/products", h.Product.List)
		v1.GET("/products/search", h.Product.Search)
		v1.GET("/products/:slug", h.Product.GetBySlug)
		v1.GET("/categories", h.Product.Categories)

		v1.POST("/admin/login", h.Auth.AdminLogin)

		admin := v1.Group("/admin", middleware.AdminAuth(sessions))
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/products", h.Admin.Products)
		admin.GET("/orders", h.Admin.Orders)
		admin.GET("/orders/:id", h.Admin.OrderDetail)
		admin.PATCH("/orders/:id/status", h.Admin.UpdateOrderStatus)
		admin.GET("/users", h.Admin.Users)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.GET("/categories", h.Admin.Categories)
	}

	return router, nil
}
