package walrus

import (
	"context"
	"errors"
	"time"

	"github.com/farellandr/namitix/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	cacheKeyPrefix  = "walrus:blob:"
	defaultCacheTTL = time.Hour
)

// BlobReader reads raw blob content.
type BlobReader interface {
	Get(ctx context.Context, blobID string) ([]byte, error)
}

// CachedReader is a read-through Redis cache in front of the aggregator.
// Blob ids are content addresses, so a cached body never goes stale; the
// TTL only bounds memory.
type CachedReader struct {
	next   BlobReader
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedReader(next BlobReader, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedReader {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedReader{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(blobID string) string {
	return cacheKeyPrefix + blobID
}

func (r *CachedReader) Get(ctx context.Context, blobID string) ([]byte, error) {
	key := cacheKey(blobID)
	cached, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return cached, nil
	case errors.Is(err, redis.Nil):
	default:
		r.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("blob cache read failed")
	}

	body, err := r.next.Get(ctx, blobID)
	if err != nil {
		return nil, err
	}

	if err := r.rdb.Set(ctx, key, body, r.ttl).Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("blob cache write failed")
	}
	return body, nil
}

// GetMetadata reads a metadata blob through the cache. Bodies that fail
// to decode are still cached; they are immutable too.
func (r *CachedReader) GetMetadata(ctx context.Context, blobID string) (models.TicketMetadata, error) {
	body, err := r.Get(ctx, blobID)
	if err != nil {
		return models.TicketMetadata{}, err
	}
	return DecodeMetadata(body)
}
