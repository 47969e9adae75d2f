// Package cache provides an optional redis-backed response cache so that
// repeated scraper runs within the TTL window do not re-hit the target
// site. The batch fetcher itself stays cache-free and stateless; the
// scrape layer consults this cache around each batch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested endpoint is not cached.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Entry is a cached response body for one endpoint.
type Entry struct {
	// Body is the raw response payload.
	Body []byte `json:"body"`

	// FetchedAt is when the body was retrieved from the site.
	FetchedAt time.Time `json:"fetched_at"`
}

// Manager handles response caching with a redis backend and a fixed TTL.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// DefaultTTL is how long cached responses stay fresh.
const DefaultTTL = 15 * time.Minute

// NewManager creates a cache manager. A non-positive ttl takes DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves the cached body for an endpoint.
// Returns ErrCacheMiss if the endpoint is not cached.
func (m *Manager) Get(ctx context.Context, endpoint string) ([]byte, error) {
	data, err := m.redis.Get(ctx, Key(endpoint)).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	cacheHits.Inc()
	return entry.Body, nil
}

// Set stores a response body for an endpoint; redis expires it after the
// configured TTL.
func (m *Manager) Set(ctx context.Context, endpoint string, body []byte) error {
	entry := Entry{
		Body:      body,
		FetchedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, Key(endpoint), data, m.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	cacheSize.Add(float64(len(data)))
	return nil
}

// Delete removes a cached endpoint.
func (m *Manager) Delete(ctx context.Context, endpoint string) error {
	if err := m.redis.Del(ctx, Key(endpoint)).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
