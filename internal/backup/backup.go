package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/metrics"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// Config holds backup manager configuration.
type Config struct {
	Key      string        // object key for the snapshot
	LockTTL  time.Duration // leader lock TTL, defaults to Interval
	Interval time.Duration // how often to upload a snapshot
	TempDir  string        // directory for intermediate files
}

// Manager uploads periodic database snapshots and restores them on
// fresh instances.
type Manager struct {
	store   *ObjectStore
	db      *storage.DB
	config  Config
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewManager creates a backup manager.
func NewManager(store *ObjectStore, db *storage.DB, cfg Config, m *metrics.Metrics, log *logger.Logger) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Interval
	}
	return &Manager{
		store:   store,
		db:      db,
		config:  cfg,
		metrics: m,
		logger:  log.WithModule("backup"),
	}
}

// Run uploads snapshots on every interval tick until the context is
// canceled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Backup(ctx); err != nil {
				m.logger.WithError(err).Error("Database backup failed")
				m.record("error")
			}
		}
	}
}

// Backup snapshots the database, compresses it and uploads it. When
// another replica holds the leader lock the backup is skipped.
func (m *Manager) Backup(ctx context.Context) error {
	lock := NewDistributedLock(m.store, m.config.Key+".lock", m.config.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire leader lock: %w", err)
	}
	if !acquired {
		m.logger.Debug("Backup skipped, another replica is leader")
		return nil
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			m.logger.WithError(err).Warn("Failed to release leader lock")
		}
	}()

	snapshotPath := filepath.Join(m.config.TempDir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	if err := m.db.CreateSnapshot(ctx, snapshotPath); err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() { _ = os.Remove(snapshotPath) }()

	compressedPath := snapshotPath + ".zst"
	if err := CompressFile(snapshotPath, compressedPath); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	defer func() { _ = os.Remove(compressedPath) }()

	compressed, err := os.Open(compressedPath)
	if err != nil {
		return fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer func() { _ = compressed.Close() }()

	etag, err := m.store.Upload(ctx, m.config.Key, compressed, "application/zstd")
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	m.record("success")
	m.logger.Info("Database backup uploaded", "key", m.config.Key, "etag", etag)
	return nil
}

// Restore downloads the latest snapshot and decompresses it to dbPath.
// Returns ErrNotFound when no snapshot exists.
func (m *Manager) Restore(ctx context.Context, dbPath string) error {
	body, etag, err := m.store.Download(ctx, m.config.Key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer func() { _ = body.Close() }()

	compressedPath := filepath.Join(m.config.TempDir, "restore_download.db.zst")
	compressed, err := os.Create(compressedPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(compressed, body); err != nil {
		_ = compressed.Close()
		_ = os.Remove(compressedPath)
		return fmt.Errorf("write compressed snapshot: %w", err)
	}
	_ = compressed.Close()
	defer func() { _ = os.Remove(compressedPath) }()

	reader, err := os.Open(compressedPath)
	if err != nil {
		return fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer func() { _ = reader.Close() }()

	if err := DecompressStream(reader, dbPath); err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}

	m.logger.Info("Database restored from snapshot", "key", m.config.Key, "etag", etag)
	return nil
}

func (m *Manager) record(status string) {
	if m.metrics != nil {
		m.metrics.RecordBackup(status)
	}
}
