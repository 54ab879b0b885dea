// Command warmup runs one scrape cycle and exits. Used to populate
// the cache before the first server start and from cron jobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ugrasage/sagebot-go/internal/catalog"
	"github.com/ugrasage/sagebot-go/internal/config"
	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/scraper"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

var (
	orgFlag     = flag.String("org", "", "Organization to scrape (default: DEFAULT_ORGANIZATION)")
	timeoutFlag = flag.Duration("timeout", 30*time.Minute, "Overall warmup timeout")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting warmup tool")

	org := cfg.DefaultOrganization
	if *orgFlag != "" {
		org = *orgFlag
	}

	db, err := storage.New(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).
		WithField("cache_ttl", cfg.CacheTTL).
		Info("Database connected")

	client := scraper.NewClient(
		cfg.ScraperTimeout,
		1.0/config.ScraperRateLimit.Seconds(),
		cfg.ScraperMaxRetries,
		cfg.ScraperBaseURLs,
	)
	refresher := scraper.NewRefresher(client, db, catalog.New(log), nil, log, org, cfg.RefreshInterval)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	start := time.Now()
	if err := refresher.Refresh(ctx); err != nil {
		log.WithError(err).Error("Warmup failed")
		os.Exit(1)
	}

	lessons, _ := db.CountLessons(ctx, org)
	employees, _ := db.CountEmployees(ctx, org)
	log.WithField("organization", org).
		WithField("lessons", lessons).
		WithField("employees", employees).
		WithField("duration", time.Since(start).Round(time.Second).String()).
		Info("Warmup complete")
}
