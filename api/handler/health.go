package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/jobsift/engine"
	"github.com/use-agent/jobsift/models"
	"github.com/use-agent/jobsift/store"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports run and store state. Kept outside auth so monitoring probes
// always work.
func Health(o *engine.Orchestrator, st *store.Store, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		stored, err := st.Count(c.Request.Context())
		if err != nil {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:      status,
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			RunActive:   o.Active(),
			RunRecords:  len(o.Jobs()),
			StoredCount: stored,
			Version:     "0.1.0",
		})
	}
}
