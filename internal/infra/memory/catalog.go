package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"reading-portal/internal/domain"
)

// CatalogLoader fetches the full ordered catalog from a backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Lesson, error)
}

// Catalog caches the lesson catalog with TTL to avoid repeated loads. The
// catalog is static for a session, so one cached copy serves every component.
type Catalog struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache cachedCatalog
}

type cachedCatalog struct {
	lessons   []domain.Lesson
	byID      map[string]domain.Lesson
	expiresAt time.Time
}

func NewCatalog(loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	now := c.clock()

	c.mu.RLock()
	if c.cache.expiresAt.After(now) {
		lessons := c.cache.lessons
		c.mu.RUnlock()
		return lessons, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("catalog", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.cache.expiresAt.After(now) {
			lessons := c.cache.lessons
			c.mu.RUnlock()
			return lessons, nil
		}
		c.mu.RUnlock()

		lessons, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		byID := make(map[string]domain.Lesson, len(lessons))
		for _, lesson := range lessons {
			byID[lesson.ID] = lesson
		}

		c.mu.Lock()
		c.cache = cachedCatalog{
			lessons:   lessons,
			byID:      byID,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return lessons, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Lesson), nil
}

func (c *Catalog) FindLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	now := c.clock()

	c.mu.RLock()
	if c.cache.expiresAt.After(now) {
		lesson, ok := c.cache.byID[lessonID]
		c.mu.RUnlock()
		if !ok {
			return domain.Lesson{}, domain.ErrLessonNotFound
		}
		return lesson, nil
	}
	c.mu.RUnlock()

	if _, err := c.ListLessons(ctx); err != nil {
		return domain.Lesson{}, err
	}

	c.mu.RLock()
	lesson, ok := c.cache.byID[lessonID]
	c.mu.RUnlock()
	if !ok {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	return lesson, nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader serves a fixed ordered slice (useful for tests/demos).
type StaticCatalogLoader struct {
	lessons []domain.Lesson
}

func NewStaticCatalogLoader(lessons []domain.Lesson) *StaticCatalogLoader {
	return &StaticCatalogLoader{lessons: lessons}
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context) ([]domain.Lesson, error) {
	out := make([]domain.Lesson, len(l.lessons))
	copy(out, l.lessons)
	return out, nil
}
