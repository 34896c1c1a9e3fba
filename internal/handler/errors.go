package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/service"
)

var notFoundMessages = []struct {
	err error
	msg string
}{
	{service.ErrUserNotFound, "user not found"},
	{service.ErrOrderNotFound, "order not found"},
	{service.ErrProductNotFound, "product not found"},
}

// respondError maps service errors onto HTTP statuses. Anything unexpected is
// attached to the context for the request logger and answered generically.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": verr.Problems})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrOrderAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "order already exists"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, service.ErrNotFound):
		msg := "not found"
		for _, m := range notFoundMessages {
			if errors.Is(err, m.err) {
				msg = m.msg
				break
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindError answers a body that could not be decoded. The decoder's message
// names Go types, so it only goes to the request log.
func bindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}
