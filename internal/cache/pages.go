package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PageKeyPrefix namespaces every rendered page entry.
	PageKeyPrefix = "pages:"
	// IndexPage is the cache name of the global feed.
	IndexPage = "index_page"
	// IndexPageTTL is how long a rendered global feed page is served from cache.
	IndexPageTTL = 20 * time.Second
)

// PageKey builds the cache key of a rendered page for one viewer and query string.
// Query parameters are sorted so equivalent URLs share an entry.
func PageKey(page string, viewerID uint, rawQuery string) string {
	viewer := "anon"
	if viewerID != 0 {
		viewer = fmt.Sprintf("u%d", viewerID)
	}
	query := rawQuery
	if values, err := url.ParseQuery(rawQuery); err == nil {
		query = values.Encode()
	}
	return PageKeyPrefix + page + ":" + viewer + ":" + query
}

// PageCache stores rendered pages. Entries expire by TTL only; writes to the
// underlying data never evict them.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// RedisPageCache keeps pages in Redis.
type RedisPageCache struct {
	client *redis.Client
}

func NewRedisPageCache(client *redis.Client) *RedisPageCache {
	return &RedisPageCache{client: client}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, body, ttl).Err()
}

// Clear deletes every page entry.
func (c *RedisPageCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, PageKeyPrefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}

type memoryEntry struct {
	body      []byte
	expiresAt time.Time
}

// MemoryPageCache keeps pages in process memory. It serves single-instance
// deployments running without Redis.
type MemoryPageCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryPageCache() *MemoryPageCache {
	return &MemoryPageCache{items: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.items, key)
		return nil, false, nil
	}
	return entry.body, true, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, entry := range c.items {
		if !now.Before(entry.expiresAt) {
			delete(c.items, k)
		}
	}
	stored := make([]byte, len(body))
	copy(stored, body)
	c.items[key] = memoryEntry{body: stored, expiresAt: now.Add(ttl)}
	return nil
}

func (c *MemoryPageCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]memoryEntry)
	return nil
}
