package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/service"
)

type AddressHandler struct {
	svc *service.AddressService
}

func NewAddressHandler(svc *service.AddressService) *AddressHandler {
	return &AddressHandler{svc: svc}
}

func (h *AddressHandler) Save(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req dto.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.svc.UpsertDefault(c.Request.Context(), userID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AddressHandler) Get(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	addr, err := h.svc.GetDefault(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetAddressResponse{Success: true, Address: toAddressResponse(addr)})
}
