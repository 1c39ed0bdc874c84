package service

import (
	"context"
	"errors"
	"time"

	"github.com/podushkina/taskflow/internal/cache"
	"github.com/podushkina/taskflow/internal/observability"
	"github.com/podushkina/taskflow/internal/task"
	"go.uber.org/zap"
)

type CacheOptions struct {
	TTL time.Duration
	// StrictFilterEviction also evicts every status-* and priority-* entry on
	// update. With it off, filtered lists can serve a renamed or re-prioritized
	// task until their TTL runs out.
	StrictFilterEviction bool
}

// CachedTasks wraps a TaskService with a read-through cache.
//
// Reads of all tasks, a single id, a status or a priority go through the cache.
// Create and delete evict the whole namespace; update writes the fresh task
// through to its id entry and evicts the full list. Paginated reads, search,
// existence checks and stats always hit the wrapped service.
//
// A failing cache never fails a request: lookup errors count as misses and
// put/evict errors are only logged.
type CachedTasks struct {
	inner  TaskService
	cache  cache.Cache
	logger *zap.Logger
	opts   CacheOptions
}

var _ TaskService = (*CachedTasks)(nil)

func NewCached(inner TaskService, c cache.Cache, logger *zap.Logger, opts CacheOptions) *CachedTasks {
	if opts.TTL <= 0 {
		opts.TTL = cache.DefaultTTL
	}
	return &CachedTasks{
		inner:  inner,
		cache:  c,
		logger: logger,
		opts:   opts,
	}
}

func (s *CachedTasks) GetAllTasks(ctx context.Context) ([]task.Response, error) {
	return readThrough(ctx, s, "all", cache.AllKey(), s.inner.GetAllTasks)
}

func (s *CachedTasks) GetTaskByID(ctx context.Context, id int64) (task.Response, error) {
	return readThrough(ctx, s, "id", cache.IDKey(id), func(ctx context.Context) (task.Response, error) {
		return s.inner.GetTaskByID(ctx, id)
	})
}

func (s *CachedTasks) GetTasksByStatus(ctx context.Context, status task.Status) ([]task.Response, error) {
	return readThrough(ctx, s, "status", cache.StatusKey(status), func(ctx context.Context) ([]task.Response, error) {
		return s.inner.GetTasksByStatus(ctx, status)
	})
}

func (s *CachedTasks) GetTasksByPriority(ctx context.Context, priority task.Priority) ([]task.Response, error) {
	return readThrough(ctx, s, "priority", cache.PriorityKey(priority), func(ctx context.Context) ([]task.Response, error) {
		return s.inner.GetTasksByPriority(ctx, priority)
	})
}

func (s *CachedTasks) GetAllTasksPaginated(ctx context.Context, req task.PageRequest) (task.Page, error) {
	return s.inner.GetAllTasksPaginated(ctx, req)
}

func (s *CachedTasks) SearchTasksByName(ctx context.Context, keyword string) ([]task.Response, error) {
	return s.inner.SearchTasksByName(ctx, keyword)
}

func (s *CachedTasks) TaskExistsByName(ctx context.Context, name string) (bool, error) {
	return s.inner.TaskExistsByName(ctx, name)
}

func (s *CachedTasks) GetTaskStats(ctx context.Context) (task.Stats, error) {
	return s.inner.GetTaskStats(ctx)
}

func (s *CachedTasks) CreateTask(ctx context.Context, req task.Request) (task.Response, error) {
	resp, err := s.inner.CreateTask(ctx, req)
	if err != nil {
		return resp, err
	}
	s.evictPrefix(ctx, cache.Prefix())
	return resp, nil
}

func (s *CachedTasks) UpdateTask(ctx context.Context, id int64, req task.Request) (task.Response, error) {
	resp, err := s.inner.UpdateTask(ctx, id, req)
	if err != nil {
		return resp, err
	}

	s.put(ctx, cache.IDKey(id), resp)
	s.evict(ctx, cache.AllKey())
	if s.opts.StrictFilterEviction {
		s.evictPrefix(ctx, cache.StatusPrefix())
		s.evictPrefix(ctx, cache.PriorityPrefix())
	}
	return resp, nil
}

func (s *CachedTasks) DeleteTask(ctx context.Context, id int64) error {
	if err := s.inner.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.evictPrefix(ctx, cache.Prefix())
	return nil
}

func (s *CachedTasks) DeleteTasksByStatus(ctx context.Context, status task.Status) (int, error) {
	n, err := s.inner.DeleteTasksByStatus(ctx, status)
	if err != nil {
		return n, err
	}
	s.evictPrefix(ctx, cache.Prefix())
	return n, nil
}

func readThrough[T any](ctx context.Context, s *CachedTasks, shape, key string, fetch func(context.Context) (T, error)) (T, error) {
	v, err := cache.Load[T](ctx, s.cache, key)
	switch {
	case err == nil:
		observability.CacheLookupsTotal.WithLabelValues(shape, observability.CacheHit).Inc()
		s.logger.Debug("cache hit", zap.String("key", key))
		return v, nil
	case errors.Is(err, cache.ErrMiss):
		observability.CacheLookupsTotal.WithLabelValues(shape, observability.CacheMiss).Inc()
		s.logger.Debug("cache miss", zap.String("key", key))
	default:
		observability.CacheLookupsTotal.WithLabelValues(shape, observability.CacheError).Inc()
		s.logger.Warn("cache lookup failed, reading from store", zap.String("key", key), zap.Error(err))
	}

	v, err = fetch(ctx)
	if err != nil {
		return v, err
	}

	if err := cache.Store(ctx, s.cache, key, v, s.opts.TTL); err != nil {
		observability.CacheWritesTotal.WithLabelValues("put", "error").Inc()
		s.logger.Warn("cache put failed", zap.String("key", key), zap.Error(err))
	} else {
		observability.CacheWritesTotal.WithLabelValues("put", "ok").Inc()
	}
	return v, nil
}

func (s *CachedTasks) put(ctx context.Context, key string, v task.Response) {
	if err := cache.Store(ctx, s.cache, key, v, s.opts.TTL); err != nil {
		observability.CacheWritesTotal.WithLabelValues("put", "error").Inc()
		s.logger.Warn("cache put failed", zap.String("key", key), zap.Error(err))
		return
	}
	observability.CacheWritesTotal.WithLabelValues("put", "ok").Inc()
}

func (s *CachedTasks) evict(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		observability.CacheWritesTotal.WithLabelValues("evict", "error").Inc()
		s.logger.Warn("cache evict failed", zap.Strings("keys", keys), zap.Error(err))
		return
	}
	observability.CacheWritesTotal.WithLabelValues("evict", "ok").Inc()
}

func (s *CachedTasks) evictPrefix(ctx context.Context, prefix string) {
	n, err := s.cache.DeleteByPrefix(ctx, prefix)
	if err != nil {
		observability.CacheWritesTotal.WithLabelValues("evict", "error").Inc()
		s.logger.Warn("cache evict failed", zap.String("prefix", prefix), zap.Error(err))
		return
	}
	observability.CacheWritesTotal.WithLabelValues("evict", "ok").Inc()
	s.logger.Debug("cache evicted", zap.String("prefix", prefix), zap.Int("entries", n))
}
