package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"reading-portal/internal/domain"
)

// CatalogLoader fetches the full ordered catalog from a backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Lesson, error)
}

const catalogKey = "catalog:lessons"

// Catalog caches the ordered lesson catalog in Redis as one JSON blob and
// falls back to a loader on cache miss. The blob keeps catalog order intact,
// which the dashboard slice derivation depends on.
type Catalog struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalog(client *redis.Client, loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	if lessons, ok := c.fromCache(ctx); ok {
		return lessons, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if lessons, ok := c.fromCache(ctx); ok {
			return lessons, nil
		}

		lessons, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(lessons); err == nil {
			_ = c.client.Set(ctx, catalogKey, data, c.ttlWithJitter()).Err()
		}
		return lessons, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Lesson), nil
}

func (c *Catalog) FindLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	lessons, err := c.ListLessons(ctx)
	if err != nil {
		return domain.Lesson{}, err
	}
	for _, lesson := range lessons {
		if lesson.ID == lessonID {
			return lesson, nil
		}
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func (c *Catalog) fromCache(ctx context.Context) ([]domain.Lesson, bool) {
	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var lessons []domain.Lesson
	if err := json.Unmarshal(data, &lessons); err != nil {
		return nil, false
	}
	return lessons, true
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
