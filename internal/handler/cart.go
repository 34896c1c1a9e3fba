package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	items, err := h.svc.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.CartResponse{Success: true, Items: make([]dto.CartItemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, toCartItemResponse(it))
	}
	c.JSON(http.StatusOK, resp)
}

// SyncCart replaces the stored cart with the client's copy.
func (h *CartHandler) SyncCart(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req dto.SyncCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.svc.ReplaceCart(c.Request.Context(), userID, req.Items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
