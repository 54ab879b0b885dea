package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURLs ...string) *Client {
	return NewClient(5*time.Second, 1000, 2, baseURLs)
}

func TestGetDocument(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1>Расписание</h1></body></html>`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	doc, err := client.GetDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Расписание", doc.Find("h1").Text())
}

func TestGetRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, 1000, 5, []string{srv.URL})
	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestGetDoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after failures", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		t.Parallel()
		base := errors.New("not found")
		attempts := 0
		err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
			attempts++
			return &permanentError{err: base}
		})
		assert.ErrorIs(t, err, base)
		assert.Equal(t, 1, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		t.Parallel()
		err := RetryWithBackoff(context.Background(), 1, time.Millisecond, func() error {
			return errors.New("still failing")
		})
		assert.ErrorContains(t, err, "still failing")
	})
}

func TestURLCacheFailover(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	client := newTestClient(down.URL, up.URL)
	cache := NewURLCache(client)

	url, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, up.URL, url)

	// Cached value is reused.
	again, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, url, again)

	cache.Clear()
	url, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, up.URL, url)
}
