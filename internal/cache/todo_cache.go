package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "todolist/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList = "todo:list"
	keyGen  = "todo:gen"
)

// ErrStale is returned by SetList when a write happened after the list was read.
var ErrStale = errors.New("cache: list is stale")

// TodoCache caches the ordered todo list in Redis.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// GetList returns cached list or nil if miss. An empty cached list is returned as a non-nil slice.
func (c *TodoCache) GetList(ctx context.Context) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, keyList).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Todo{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Generation returns the current write generation. Read it before loading
// the list from the store and pass it to SetList.
func (c *TodoCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyGen).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetList stores the list only if no write bumped the generation since gen
// was read. Otherwise it returns ErrStale and leaves the cache empty.
func (c *TodoCache) SetList(ctx context.Context, list []dom.Todo, gen int64) error {
	if list == nil {
		list = []dom.Todo{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, keyGen).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, keyList, b, c.ttl)
			return nil
		})
		return err
	}, keyGen)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate bumps the write generation and drops the cached list (called after every write).
func (c *TodoCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, keyGen)
		p.Del(ctx, keyList)
		return nil
	})
	return err
}
