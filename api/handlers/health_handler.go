package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/internal/app"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	registry *app.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *app.Registry) *HealthHandler {
	return &HealthHandler{
		registry: registry,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions struct {
		Running bool `json:"running"`
		Mounted int  `json:"mounted"`
	} `json:"sessions"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Sessions.Running = h.registry.IsRunning()
	response.Sessions.Mounted = h.registry.Len()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.registry.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "session registry not running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
