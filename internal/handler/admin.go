package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

type AdminHandler struct {
	admin  *service.AdminService
	orders *service.OrderService
}

func NewAdminHandler(admin *service.AdminService, orders *service.OrderService) *AdminHandler {
	return &AdminHandler{admin: admin, orders: orders}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.StatsResponse{
		TotalProducts:   st.TotalProducts,
		TotalOrders:     st.TotalOrders,
		TotalUsers:      st.TotalUsers,
		TotalCategories: st.TotalCategories,
		TotalRevenue:    st.TotalRevenue,
		PendingOrders:   st.PendingOrders,
		RecentOrders:    make([]dto.OrderResponse, 0, len(st.RecentOrders)),
		RecentUsers:     make([]dto.RecentUserResponse, 0, len(st.RecentUsers)),
	}
	for i := range st.RecentOrders {
		resp.RecentOrders = append(resp.RecentOrders, toOrderResponse(&st.RecentOrders[i]))
	}
	for _, u := range st.RecentUsers {
		resp.RecentUsers = append(resp.RecentUsers, dto.RecentUserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) Products(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	page, err := h.admin.ListProducts(c.Request.Context(), q.Page, q.Q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PageResponse[dto.ProductResponse]{
		Items: toProductResponses(page.Items),
		Total: page.Total,
		Page:  page.Page,
		Pages: page.Pages,
	})
}

func (h *AdminHandler) Orders(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	page, err := h.admin.ListOrders(c.Request.Context(), q.Page, q.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.OrderResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toOrderResponse(&page.Items[i]))
	}
	c.JSON(http.StatusOK, dto.PageResponse[dto.OrderResponse]{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Pages: page.Pages,
	})
}

func (h *AdminHandler) OrderDetail(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), model.OrderStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) Users(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	page, err := h.admin.ListUsers(c.Request.Context(), q.Page)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.AdminUserResponse, 0, len(page.Items))
	for _, u := range page.Items {
		items = append(items, dto.AdminUserResponse{
			ID:         u.ID,
			Email:      u.Email,
			RegisterIP: u.RegisterIP,
			CreatedAt:  u.CreatedAt,
			OrderCount: u.OrderCount,
			LoginCount: u.LoginCount,
		})
	}
	c.JSON(http.StatusOK, dto.PageResponse[dto.AdminUserResponse]{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Pages: page.Pages,
	})
}

func (h *AdminHandler) Categories(c *gin.Context) {
	cats, err := h.admin.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponses(cats))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
