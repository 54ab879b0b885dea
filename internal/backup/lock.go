package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// LockInfo is the stored state of a distributed lock.
type LockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DistributedLock provides leader election through object storage
// conditional writes. Only the holder uploads backups.
type DistributedLock struct {
	store   *ObjectStore
	key     string
	ttl     time.Duration
	ownerID string
	etag    string
}

// NewDistributedLock creates a lock identified by key.
func NewDistributedLock(store *ObjectStore, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		store:   store,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.New().String(),
	}
}

// Acquire attempts to take the lock. Returns (true, nil) on success,
// (false, nil) when another live holder exists. An expired lock is
// stolen.
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	data, err := l.marshalInfo()
	if err != nil {
		return false, err
	}

	created, etag, err := l.store.PutObjectIfNotExists(ctx, l.key, bytes.NewReader(data), "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	info, oldEtag, err := l.readInfo(ctx)
	if err != nil {
		return false, err
	}
	if info != nil && time.Now().Before(info.ExpiresAt) {
		return false, nil
	}

	// Holder expired; replace its lock under the old ETag.
	data, err = l.marshalInfo()
	if err != nil {
		return false, err
	}
	updated, newEtag, err := l.store.PutObjectIfMatch(ctx, l.key, bytes.NewReader(data), oldEtag, "application/json")
	if err != nil {
		return false, fmt.Errorf("steal expired lock: %w", err)
	}
	if !updated {
		return false, nil
	}
	l.etag = newEtag
	return true, nil
}

// Release drops the lock if this instance still holds it.
func (l *DistributedLock) Release(ctx context.Context) error {
	info, _, err := l.readInfo(ctx)
	if err != nil {
		return err
	}
	if info == nil || info.Owner != l.ownerID {
		return nil
	}
	if err := l.store.DeleteObject(ctx, l.key); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	l.etag = ""
	return nil
}

// OwnerID returns this instance's lock owner identifier.
func (l *DistributedLock) OwnerID() string {
	return l.ownerID
}

func (l *DistributedLock) marshalInfo() ([]byte, error) {
	data, err := json.Marshal(LockInfo{
		Owner:     l.ownerID,
		ExpiresAt: time.Now().Add(l.ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal lock info: %w", err)
	}
	return data, nil
}

func (l *DistributedLock) readInfo(ctx context.Context) (*LockInfo, string, error) {
	body, etag, err := l.store.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("read lock: %w", err)
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read lock body: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, "", fmt.Errorf("decode lock info: %w", err)
	}
	return &info, etag, nil
}
