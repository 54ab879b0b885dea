// Package main provides the dialog server entry point.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ugrasage/sagebot-go/internal/config"
	"github.com/ugrasage/sagebot-go/internal/dialog"
	"github.com/ugrasage/sagebot-go/internal/metrics"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/ratelimit"
	"github.com/ugrasage/sagebot-go/internal/scraper"
	"github.com/ugrasage/sagebot-go/internal/sentry"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// dialogRequest is one user turn. Entities carries values the client
// already resolved on its side; they override extraction. Welcome
// resets the conversation and greets the user.
type dialogRequest struct {
	UserID   string        `json:"user_id" binding:"required"`
	Phrase   string        `json:"phrase"`
	Entities *entity.Store `json:"entities,omitempty"`
	Welcome  bool          `json:"welcome,omitempty"`
}

type dialogResponse struct {
	Text string `json:"text"`
}

// setupRoutes configures all HTTP routes
func setupRoutes(
	router *gin.Engine,
	engine *dialog.Engine,
	db *storage.DB,
	registry *prometheus.Registry,
	scraperClient *scraper.Client,
	cfg *config.Config,
	userLimiter *ratelimit.PerKeyLimiter,
	globalLimiter *ratelimit.Limiter,
	m *metrics.Metrics,
) {
	// Root endpoint - service identification
	rootHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "sagebot"})
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe - process is alive, no dependency checks
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe - full dependency check
	readyHandler := func(c *gin.Context) {
		if err := db.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		// Probe the first schedule mirror only, for speed
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		sourceAvailable := false
		if urls := scraperClient.BaseURLs(); len(urls) > 0 {
			req, _ := http.NewRequestWithContext(checkCtx, http.MethodHead, urls[0], http.NoBody)
			if resp, err := http.DefaultClient.Do(req); err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode < 500 {
					sourceAvailable = true
				}
			}
		}

		lessonCount, _ := db.CountLessons(c.Request.Context(), cfg.DefaultOrganization)
		employeeCount, _ := db.CountEmployees(c.Request.Context(), cfg.DefaultOrganization)

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"source":   sourceAvailable,
			"cache": gin.H{
				"lessons":   lessonCount,
				"employees": employeeCount,
			},
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Dialog endpoint
	router.POST("/api/v1/dialog", func(c *gin.Context) {
		var req dialogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		if !userLimiter.Allow(req.UserID) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestProcessing)
		defer cancel()

		waitStart := time.Now()
		if err := globalLimiter.Wait(ctx); err != nil {
			m.RecordRateLimiterDrop("global")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server overloaded"})
			return
		}
		m.RecordRateLimiterWait("global", time.Since(waitStart).Seconds())

		start := time.Now()
		text, err := engine.Process(ctx, req.UserID, req.Phrase, req.Entities, req.Welcome)
		m.RecordTurnDuration(time.Since(start).Seconds())
		if err != nil {
			sentry.CaptureExceptionWithContext(c.Request.Context(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, dialogResponse{Text: text})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics",
		metricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)
}
