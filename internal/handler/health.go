package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Dependency is one backend the readiness probe checks.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	deps []Dependency
}

func NewHealthHandler(deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			_ = c.Error(err)
			body[d.Name] = "unavailable"
			body["status"] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		body[d.Name] = "connected"
	}
	c.JSON(status, body)
}
