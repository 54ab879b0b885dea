// Package main provides the dialog server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ugrasage/sagebot-go/internal/backup"
	"github.com/ugrasage/sagebot-go/internal/buildinfo"
	"github.com/ugrasage/sagebot-go/internal/catalog"
	"github.com/ugrasage/sagebot-go/internal/config"
	"github.com/ugrasage/sagebot-go/internal/dialog"
	"github.com/ugrasage/sagebot-go/internal/genai"
	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/metrics"
	"github.com/ugrasage/sagebot-go/internal/modules/botinfo"
	"github.com/ugrasage/sagebot-go/internal/modules/people"
	"github.com/ugrasage/sagebot-go/internal/modules/profile"
	"github.com/ugrasage/sagebot-go/internal/modules/schedule"
	"github.com/ugrasage/sagebot-go/internal/nlu/extract"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
	"github.com/ugrasage/sagebot-go/internal/ratelimit"
	"github.com/ugrasage/sagebot-go/internal/scraper"
	"github.com/ugrasage/sagebot-go/internal/sentry"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting SageBot server")

	// Initialize Sentry error reporting (disabled when DSN is empty)
	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error reporting disabled")
	}

	// Connect to the S3-compatible snapshot store when backups are enabled
	var backupStore *backup.ObjectStore
	if cfg.BackupEnabled {
		backupStore, err = backup.NewObjectStore(context.Background(), backup.StoreConfig{
			Endpoint:    cfg.S3Endpoint,
			AccessKeyID: cfg.S3AccessKeyID,
			SecretKey:   cfg.S3SecretAccessKey,
			BucketName:  cfg.S3Bucket,
		})
		if err != nil {
			log.WithError(err).Error("Failed to create backup store")
			os.Exit(1)
		}
		log.WithField("bucket", cfg.S3Bucket).Info("Backup store connected")
	}

	// A fresh instance starts from the latest remote snapshot when one exists
	if backupStore != nil {
		restoreDatabase(backupStore, cfg, log)
	}

	// Connect to database with configured TTL
	db, err := storage.New(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).
		WithField("cache_ttl", cfg.CacheTTL).
		Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()

	// Register Go and process collectors
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	// Create metrics
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Build the subject catalog from previously scraped class names
	cat := catalog.New(log)
	if names, err := db.ListClassNames(context.Background(), cfg.DefaultOrganization); err != nil {
		log.WithError(err).Warn("Failed to load class names for catalog")
	} else if len(names) > 0 {
		if err := cat.Load(names); err != nil {
			log.WithError(err).Warn("Failed to build subject catalog")
		} else {
			log.WithField("subjects", len(names)).Info("Subject catalog loaded")
		}
	}

	// Entity extraction pipeline; order matters, earlier extractors
	// consume their fragments before later ones run
	orch := extract.NewOrchestrator(
		extract.NewOrganizationExtractor(),
		extract.NewEmployeeExtractor(),
		extract.NewGroupExtractor(),
		extract.NewSubgroupExtractor(),
		extract.NewClassExtractor(cat),
		extract.NewDayExtractor(),
		extract.NewPlaceExtractor(),
	)

	// Intent classification: rules by default, LLM with rule fallback
	// when an API key is configured
	var classifier intent.Classifier = intent.NewRuleClassifier()
	if cfg.HasLLMProvider() {
		llm, err := genai.NewClassifier(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMEndpoint, genai.DefaultRetryConfig(), log)
		if err != nil {
			log.WithError(err).Warn("Failed to create LLM classifier, using rule classifier")
		} else if llm.Enabled() {
			fallback, err := genai.NewFallbackClassifier(llm, classifier, log)
			if err != nil {
				log.WithError(err).Warn("Failed to wire classifier fallback, using rule classifier")
			} else {
				fallback.OnFallback(m.RecordClassifierFallback)
				classifier = fallback
				log.WithField("model", cfg.LLMModel).Info("LLM intent classifier enabled")
			}
		}
	}

	// Register intent handlers
	profileHandler := profile.NewHandler(db, log)
	scheduleHandler := schedule.NewHandler(db, log)
	peopleHandler := people.NewHandler(db, log)
	botHandler := botinfo.NewHandler()

	dispatcher := dialog.NewDispatcher()
	dispatcher.Register(intent.NextClass, dialog.HandlerFunc(scheduleHandler.NextClass))
	dispatcher.Register(intent.ClassList, dialog.HandlerFunc(scheduleHandler.ClassList))
	dispatcher.Register(intent.ClassPeer, dialog.HandlerFunc(peopleHandler.ClassPeer))
	dispatcher.Register(intent.UserClar, dialog.HandlerFunc(profileHandler.Declare))
	dispatcher.Register(intent.EmployeeInfo, dialog.HandlerFunc(peopleHandler.EmployeeInfo))
	dispatcher.Register(intent.EducatorPlace, dialog.HandlerFunc(peopleHandler.EducatorPlace))
	dispatcher.Register(intent.BotInfo, dialog.HandlerFunc(botHandler.Describe))

	// Create dialog engine
	engine, err := dialog.NewEngine(
		db, orch, classifier, cat, dispatcher,
		rand.New(rand.NewSource(time.Now().UnixNano())), log, m,
	)
	if err != nil {
		log.WithError(err).Error("Failed to create dialog engine")
		os.Exit(1)
	}
	log.Info("Dialog engine created")

	// Create scraper client and refresher
	scraperClient := scraper.NewClient(
		cfg.ScraperTimeout,
		1.0/config.ScraperRateLimit.Seconds(),
		cfg.ScraperMaxRetries,
		cfg.ScraperBaseURLs,
	)
	refresher := scraper.NewRefresher(scraperClient, db, cat, m, log, cfg.DefaultOrganization, cfg.RefreshInterval)
	log.Info("Scraper client created")

	// Rate limiters: one bucket per user plus a global bucket
	userLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:  cfg.UserRateLimitBurst,
		RefillRate: cfg.UserRateLimitRefillPerSec,
	})
	userLimiter.OnDrop(func() { m.RecordRateLimiterDrop("user") })
	defer userLimiter.Stop()

	globalLimiter := ratelimit.New(cfg.GlobalRateLimitRPS, cfg.GlobalRateLimitRPS)

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentry.GinMiddleware())
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware(m))

	// Setup routes
	setupRoutes(router, engine, db, registry, scraperClient, cfg, userLimiter, globalLimiter, m)

	// Create HTTP server with timeouts sized for dialog request handling,
	// see internal/config/timeouts.go
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.HTTPRead,
		WriteTimeout: config.HTTPWrite,
		IdleTimeout:  config.HTTPIdle,
	}

	// Start background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Schedule refresher: initial scrape plus periodic refresh
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in schedule refresher goroutine")
			}
		}()
		refresher.Run(ctx)
	}()

	// Stale clarification dialog cleanup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in conversation cleanup goroutine")
			}
		}()
		purgeStaleConversations(ctx, db, cfg.ConversationTTL, log)
	}()

	// Periodic database backup (when enabled)
	if backupStore != nil {
		backupManager := backup.NewManager(backupStore, db, backup.Config{
			Key:      cfg.S3Key,
			Interval: cfg.BackupInterval,
		}, m, log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithField("panic", r).Error("Panic in backup goroutine")
				}
			}()
			backupManager.Run(ctx)
		}()
		log.WithField("interval", cfg.BackupInterval).Info("Periodic backups enabled")
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Failed to start server")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Cancel context to stop background goroutines
	cancel()

	// Wait for goroutines to finish (with timeout)
	goDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goDone)
	}()

	select {
	case <-goDone:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Flush pending Sentry events
	sentry.Flush(2 * time.Second)

	// Close database connection
	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// restoreDatabase pulls the latest remote snapshot when no local
// database file exists yet. Errors are not fatal, the server starts
// with an empty database and the scraper repopulates it.
func restoreDatabase(store *backup.ObjectStore, cfg *config.Config, log *logger.Logger) {
	if _, err := os.Stat(cfg.SQLitePath()); err == nil || !os.IsNotExist(err) {
		return
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Warn("Failed to create data directory for restore")
		return
	}

	restorer := backup.NewManager(store, nil, backup.Config{
		Key:      cfg.S3Key,
		Interval: cfg.BackupInterval,
	}, nil, log)

	switch err := restorer.Restore(context.Background(), cfg.SQLitePath()); {
	case errors.Is(err, backup.ErrNotFound):
		log.Info("No remote snapshot found, starting with empty database")
	case err != nil:
		log.WithError(err).Warn("Failed to restore database snapshot")
	default:
		log.Info("Database restored from remote snapshot")
	}
}
