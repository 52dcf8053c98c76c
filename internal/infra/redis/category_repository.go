package redis

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz/internal/domain"
)

// CategoryLoader fetches the category list from the trivia source.
type CategoryLoader interface {
	LoadCategories(ctx context.Context) ([]domain.Category, error)
}

// CategoryRepository caches trivia categories in Redis and falls back to a loader on cache miss.
// Categories are stored as: HSET {prefix}:categories {categoryID} {name}
type CategoryRepository struct {
	client *redis.Client
	loader CategoryLoader
	prefix string
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCategoryRepository(client *redis.Client, loader CategoryLoader, prefix string, ttl time.Duration) *CategoryRepository {
	if prefix == "" {
		prefix = "trivia"
	}
	return &CategoryRepository{
		client: client,
		loader: loader,
		prefix: prefix,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CategoryRepository) GetCategories(ctx context.Context) ([]domain.Category, error) {
	key := r.categoriesKey()

	cached, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		return buildCategoriesFromCache(cached), nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			return buildCategoriesFromCache(cached), nil
		}

		categories, err := r.loader.LoadCategories(ctx)
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			return categories, nil
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		for _, c := range categories {
			pipe.HSet(ctx, key, c.ID, c.Name)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// best-effort; the loaded list is still returned when caching fails
		_, _ = pipe.Exec(ctx)

		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func (r *CategoryRepository) categoriesKey() string {
	return r.prefix + ":categories"
}

// buildCategoriesFromCache restores source order: numeric ids ascending.
func buildCategoriesFromCache(cached map[string]string) []domain.Category {
	categories := make([]domain.Category, 0, len(cached))
	for id, name := range cached {
		categories = append(categories, domain.Category{ID: id, Name: name})
	}
	sort.Slice(categories, func(i, j int) bool {
		a, errA := strconv.Atoi(categories[i].ID)
		b, errB := strconv.Atoi(categories[j].ID)
		if errA == nil && errB == nil {
			return a < b
		}
		return categories[i].ID < categories[j].ID
	})
	return categories
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
