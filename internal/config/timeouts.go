// Package config provides centralized timeout constants for the
// application. Values are tuned for slow university web servers and
// SQLite in WAL mode.
package config

import "time"

// HTTP server timeouts
const (
	// RequestProcessing is the timeout for handling one dialog request,
	// including entity extraction, an optional LLM classification call
	// and database queries.
	RequestProcessing = 30 * time.Second

	// HTTPRead is the HTTP server read timeout. Dialog payloads are
	// small JSON bodies.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the HTTP server write timeout. Must accommodate
	// RequestProcessing plus response serialization.
	HTTPWrite = 35 * time.Second

	// HTTPIdle is the HTTP server idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Scraper timeouts
const (
	// ScraperRequest is the timeout for a single HTTP request to a
	// schedule source. University sites can be slow during peak hours.
	ScraperRequest = 60 * time.Second

	// ScraperRetryInitial is the initial delay before retrying a failed
	// request. Exponential backoff: 2s -> 4s -> 8s -> 16s -> 32s.
	ScraperRetryInitial = 2 * time.Second

	// ScraperRateLimit is the minimum delay between consecutive
	// scraping requests to the same source.
	ScraperRateLimit = 2 * time.Second
)
