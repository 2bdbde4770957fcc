package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/jobsift/engine"
	"github.com/use-agent/jobsift/models"
	"github.com/use-agent/jobsift/store"
)

// Command returns the handler for POST /api/v1/command: one endpoint
// dispatching on the action field, so every client speaks the same
// message-bus shape.
func Command(o *engine.Orchestrator, st *store.Store, exportDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CommandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CommandResponse{
				Success: false,
				Error:   "invalid request body",
				Detail: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		switch req.Action {
		case models.ActionStartScraping:
			startScraping(c, o, &req)

		case models.ActionStopScraping:
			if o.Stop() {
				c.JSON(http.StatusOK, models.CommandResponse{Success: true})
				return
			}
			c.JSON(http.StatusOK, models.CommandResponse{
				Success: true,
				Notice:  "no active scrape run",
			})

		case models.ActionGetScrapedJobs:
			jobs := o.Jobs()
			c.JSON(http.StatusOK, models.CommandResponse{
				Success:  true,
				Jobs:     jobs,
				JobCount: len(jobs),
			})

		case models.ActionSaveJobs:
			total, err := st.Merge(c.Request.Context(), req.Jobs)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, models.CommandResponse{Success: true, JobCount: total})

		case models.ActionGetAllJobs:
			jobs, err := st.All(c.Request.Context())
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, models.CommandResponse{
				Success:  true,
				Jobs:     jobs,
				JobCount: len(jobs),
			})

		case models.ActionExportCSV:
			path, err := st.Export(c.Request.Context(), exportDir, time.Now())
			if err != nil {
				respondError(c, err)
				return
			}
			n, err := st.Count(c.Request.Context())
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, models.CommandResponse{
				Success:  true,
				JobCount: n,
				Notice:   "exported to " + path,
			})

		case models.ActionClearJobs:
			if err := st.Clear(c.Request.Context()); err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, models.CommandResponse{Success: true})

		default:
			c.JSON(http.StatusBadRequest, models.CommandResponse{
				Success: false,
				Error:   "Unknown action",
			})
		}
	}
}

// startScraping handles START_SCRAPING. An unrecognized page is a notice,
// not an error: the engine stays idle and the caller is told why.
func startScraping(c *gin.Context, o *engine.Orchestrator, req *models.CommandRequest) {
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, models.CommandResponse{
			Success: false,
			Error:   "url is required for START_SCRAPING",
			Detail: &models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: "url is required for START_SCRAPING",
			},
		})
		return
	}

	runID, err := o.Start(c.Request.Context(), req.URL)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.CommandResponse{Success: true, RunID: runID})

	case errors.Is(err, engine.ErrRunActive):
		c.JSON(http.StatusConflict, models.CommandResponse{
			Success: false,
			Error:   err.Error(),
			Detail: &models.ErrorDetail{
				Code:    models.ErrCodeRunActive,
				Message: err.Error(),
			},
		})

	case errors.Is(err, engine.ErrPageUnrecognized):
		c.JSON(http.StatusOK, models.CommandResponse{
			Success: false,
			Notice:  err.Error(),
			Detail: &models.ErrorDetail{
				Code:    models.ErrCodeClassify,
				Message: err.Error(),
			},
		})

	default:
		respondError(c, err)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.CommandResponse{
		Success: false,
		Error:   scrapeErr.Message,
		Detail:  scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRunActive:
		return http.StatusConflict // 409
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
