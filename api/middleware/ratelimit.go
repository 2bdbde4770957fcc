package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/jobsift/config"
	"github.com/use-agent/jobsift/models"
)

// RateLimit returns token-bucket rate limiting middleware powered by
// golang.org/x/time/rate.
//
// The bucket is shared across all callers rather than keyed per API key or
// IP: every command contends on the same browser session and at most one
// scrape run, so the limit protects that session, not fairness between
// clients.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.CommandResponse{
				Success: false,
				Error:   "rate limit exceeded",
				Detail: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
