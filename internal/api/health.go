package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// pinger is the database check the health endpoint needs
type pinger interface {
	Health(ctx context.Context) error
}

// HealthResponse represents the response from the health check endpoint
type HealthResponse struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Sessions int                    `json:"sessions"`
	Time     string                 `json:"time"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db       pinger
	sessions sessionManager
}

// NewHealthHandler creates a new health check handler. A nil database
// reports the notice log as disabled rather than unhealthy.
func NewHealthHandler(database pinger, sessions sessionManager) *HealthHandler {
	return &HealthHandler{db: database, sessions: sessions}
}

// Check handles the health check endpoint
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "ok",
		Database: "disabled",
		Sessions: h.sessions.Count(),
		Time:     time.Now().UTC().Format(time.RFC3339),
		Details:  make(map[string]interface{}),
	}

	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			response.Status = "degraded"
			response.Database = "unhealthy"
			response.Details["database_error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "healthy"
	}

	c.JSON(http.StatusOK, response)
}

// SetupHealthRoutes registers the health check route
func SetupHealthRoutes(apiGroup *gin.RouterGroup, database pinger, sessions sessionManager) {
	handler := NewHealthHandler(database, sessions)
	apiGroup.GET("/health", handler.Check)
}
