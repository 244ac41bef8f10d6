package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/response"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	service string
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{
		service: service,
		version: version,
	}
}

// RegisterRoutes registers the health check routes and the JSON 404 fallback.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Health)
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
}

// Health returns the service health status.
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "ok",
		"service": h.service,
		"version": h.version,
	})
}
