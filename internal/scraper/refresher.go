package scraper

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ugrasage/sagebot-go/internal/catalog"
	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/metrics"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// groupWorkers bounds concurrent per-group timetable fetches. The rate
// limiter still serializes actual requests; this bounds in-flight work.
const groupWorkers = 4

// Refresher periodically rescrapes schedule data into storage and
// rebuilds the subject catalog.
type Refresher struct {
	client   *Client
	urls     *URLCache
	db       *storage.DB
	catalog  *catalog.Catalog
	metrics  *metrics.Metrics
	logger   *logger.Logger
	org      string
	interval time.Duration
	sf       singleflight.Group
}

// NewRefresher creates a refresher for one organization.
func NewRefresher(client *Client, db *storage.DB, cat *catalog.Catalog, m *metrics.Metrics, log *logger.Logger, org string, interval time.Duration) *Refresher {
	return &Refresher{
		client:   client,
		urls:     NewURLCache(client),
		db:       db,
		catalog:  cat,
		metrics:  m,
		logger:   log.WithModule("scraper"),
		org:      org,
		interval: interval,
	}
}

// Run refreshes immediately and then on every interval tick until the
// context is canceled.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.WithError(err).Error("Initial schedule refresh failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.WithError(err).Error("Schedule refresh failed")
			}
		}
	}
}

// Refresh rescrapes all sources. Concurrent calls collapse into one
// scrape via singleflight.
func (r *Refresher) Refresh(ctx context.Context) error {
	_, err, _ := r.sf.Do("refresh", func() (any, error) {
		return nil, r.refresh(ctx)
	})
	return err
}

func (r *Refresher) refresh(ctx context.Context) error {
	baseURL, err := r.urls.Get(ctx)
	if err != nil {
		return fmt.Errorf("no reachable mirror: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var lessons []*storage.Lesson
	g.Go(func() error {
		var err error
		lessons, err = r.scrapeLessons(gctx, baseURL)
		return err
	})

	var employees []*storage.Employee
	g.Go(func() error {
		start := time.Now()
		var err error
		employees, err = ScrapeEmployees(gctx, r.client, baseURL, r.org)
		r.record("employees", err, start)
		return err
	})

	if err := g.Wait(); err != nil {
		r.urls.Clear()
		return err
	}

	if err := r.db.ReplaceLessons(ctx, r.org, lessons); err != nil {
		return fmt.Errorf("failed to store lessons: %w", err)
	}
	if err := r.db.ReplaceEmployees(ctx, r.org, employees); err != nil {
		return fmt.Errorf("failed to store employees: %w", err)
	}

	names := CollectClassNames(lessons)
	if err := r.db.ReplaceClassNames(ctx, r.org, names); err != nil {
		return fmt.Errorf("failed to store class names: %w", err)
	}
	if err := r.catalog.Load(names); err != nil {
		return fmt.Errorf("failed to rebuild subject catalog: %w", err)
	}

	r.logger.Info("Schedule data refreshed",
		"lessons", len(lessons),
		"employees", len(employees),
		"class_names", len(names))
	return nil
}

// scrapeLessons fetches the group list and every group's timetable.
func (r *Refresher) scrapeLessons(ctx context.Context, baseURL string) ([]*storage.Lesson, error) {
	start := time.Now()
	groups, err := ScrapeGroups(ctx, r.client, baseURL)
	if err != nil {
		r.record("timetable", err, start)
		return nil, err
	}
	if len(groups) == 0 {
		err := fmt.Errorf("group list is empty")
		r.record("timetable", err, start)
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(groupWorkers)

	results := make([][]*storage.Lesson, len(groups))
	for i, group := range groups {
		g.Go(func() error {
			lessons, err := ScrapeTimetable(gctx, r.client, baseURL, r.org, group)
			if err != nil {
				return err
			}
			results[i] = lessons
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.record("timetable", err, start)
		return nil, err
	}

	var lessons []*storage.Lesson
	for _, part := range results {
		lessons = append(lessons, part...)
	}
	r.record("timetable", nil, start)
	return lessons, nil
}

func (r *Refresher) record(source string, err error, start time.Time) {
	if r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordScraperRequest(source, status, time.Since(start).Seconds())
}
