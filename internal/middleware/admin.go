package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

const (
	adminIDKey       = "adminID"
	adminUsernameKey = "adminUsername"
)

type SessionValidator interface {
	Validate(ctx context.Context, token string) (*model.AdminSession, error)
}

// AdminAuth requires a valid admin bearer token. Every rejection gets the
// same 401 body.
func AdminAuth(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		session, err := sessions.Validate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(adminIDKey, session.AdminID)
		c.Set(adminUsernameKey, session.Username)
		c.Next()
	}
}

func GetAdminID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(adminIDKey)
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetAdminUsername(c *gin.Context) string {
	name, _ := c.Get(adminUsernameKey)
	s, _ := name.(string)
	return s
}
