// Package scraper fetches schedule data from university web sites:
// group lists, timetables and the staff directory.
package scraper

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ugrasage/sagebot-go/internal/ratelimit"
)

// Client is an HTTP client for web scraping with rate limiting and URL failover
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	maxRetries  int
	baseURLs    []string // mirrors, tried in order
	mu          sync.RWMutex
}

// NewClient creates a new scraper client. baseURLs are mirror roots of
// the schedule site, tried in order during failover.
func NewClient(timeout time.Duration, requestsPerSecond float64, maxRetries int, baseURLs []string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: ratelimit.New(1, requestsPerSecond),
		maxRetries:  maxRetries,
		baseURLs:    baseURLs,
	}
}

// Get performs a GET request with rate limiting and retries.
// Caller is responsible for closing the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	err := RetryWithBackoff(ctx, c.maxRetries, 2*time.Second, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return &permanentError{err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &permanentError{err: fmt.Errorf("failed to create request: %w", err)}
		}

		req.Header.Set("User-Agent", uarand.GetRandom())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
		req.Header.Set("Accept-Encoding", "gzip, deflate")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
				return fmt.Errorf("retryable status for %s: %d", url, resp.StatusCode)
			case http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized:
				return &permanentError{err: fmt.Errorf("client error for %s: status %d", url, resp.StatusCode)}
			default:
				return fmt.Errorf("unexpected status for %s: %d", url, resp.StatusCode)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetDocument performs a GET request and parses the response as HTML.
// Handles gzip transfer encoding and windows-1251 pages, which older
// university sites still serve.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "windows-1251") || strings.Contains(contentType, "cp1251") {
		reader = transform.NewReader(reader, charmap.Windows1251.NewDecoder())
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// TryFailoverURLs probes the configured mirrors and returns the first
// accessible one.
func (c *Client) TryFailoverURLs(ctx context.Context) (string, error) {
	c.mu.RLock()
	urls := c.baseURLs
	c.mu.RUnlock()

	if len(urls) == 0 {
		return "", fmt.Errorf("no base URLs configured")
	}

	for _, baseURL := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", uarand.GetRandom())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode < 500 {
			return baseURL, nil
		}
	}

	return "", fmt.Errorf("all mirrors failed")
}

// BaseURLs returns a copy of the configured mirror list.
func (c *Client) BaseURLs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, len(c.baseURLs))
	copy(result, c.baseURLs)
	return result
}
