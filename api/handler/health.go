package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ownerlookup/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// SessionInfo reports on the scraper's browser session.
type SessionInfo interface {
	Ready() bool
	Stats() models.LookupStats
	States() []string
}

// Health returns a handler for GET /api/v1/health.
//
// Status is "idle" until the first lookup has started and signed in the
// browser session.
func Health(si SessionInfo, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready := si.Ready()

		status := "healthy"
		if !ready {
			status = "idle"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			SessionReady: ready,
			Stats:        si.Stats(),
			States:       si.States(),
			Version:      Version,
		})
	}
}
