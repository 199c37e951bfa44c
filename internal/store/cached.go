package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
	"github.com/p-n-ai/pai-studio/internal/platform/cache"
)

// Cache is the key-value surface CachedStore needs. Get reports an absent key with
// cache.ErrMiss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedStore keeps a read-through copy of single courses in a cache. Writes go to the
// underlying store first and then evict the cached entry. Cache failures are logged and
// never fail the call.
type CachedStore struct {
	inner Store
	cache Cache
	ttl   time.Duration
}

// NewCachedStore wraps inner with c. A non-positive ttl uses five minutes.
func NewCachedStore(inner Store, c Cache, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{inner: inner, cache: c, ttl: ttl}
}

func cacheKey(id string) string {
	return "course:" + id
}

func (s *CachedStore) List(ctx context.Context) ([]curriculum.Course, error) {
	return s.inner.List(ctx)
}

func (s *CachedStore) Get(ctx context.Context, id string) (curriculum.Course, error) {
	data, err := s.cache.Get(ctx, cacheKey(id))
	if err == nil {
		var c curriculum.Course
		if err := json.Unmarshal(data, &c); err == nil {
			return c, nil
		}
		slog.Warn("dropping undecodable cached course", "course_id", id, "error", err)
	} else if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("course cache read failed", "course_id", id, "error", err)
	}

	c, err := s.inner.Get(ctx, id)
	if err != nil {
		return c, err
	}
	s.put(ctx, c)
	return c, nil
}

func (s *CachedStore) Create(ctx context.Context, c curriculum.Course) (curriculum.Course, error) {
	created, err := s.inner.Create(ctx, c)
	if err != nil {
		return created, err
	}
	s.evict(ctx, created.ID)
	return created, nil
}

func (s *CachedStore) Save(ctx context.Context, c curriculum.Course) (curriculum.Course, error) {
	saved, err := s.inner.Save(ctx, c)
	if err != nil {
		// A conflict means our cached copy may be stale as well.
		if errors.Is(err, curriculum.ErrConflict) {
			s.evict(ctx, c.ID)
		}
		return saved, err
	}
	s.evict(ctx, saved.ID)
	return saved, nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.inner.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *CachedStore) put(ctx context.Context, c curriculum.Course) {
	data, err := json.Marshal(c)
	if err != nil {
		slog.Warn("course not cacheable", "course_id", c.ID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey(c.ID), data, s.ttl); err != nil {
		slog.Warn("course cache write failed", "course_id", c.ID, "error", err)
	}
}

func (s *CachedStore) evict(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, cacheKey(id)); err != nil {
		slog.Warn("course cache evict failed", "course_id", id, "error", err)
	}
}
