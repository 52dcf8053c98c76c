package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/config"
	"trivia-quiz/internal/infra/memory"
	"trivia-quiz/internal/infra/opentdb"
	pgstore "trivia-quiz/internal/infra/postgres"
	redisstore "trivia-quiz/internal/infra/redis"
	"trivia-quiz/internal/telemetry"
	"trivia-quiz/internal/theme"
)

const keyPrefix = "trivia"

// components is everything a front end needs to run quizzes.
type components struct {
	service *app.QuizService
	metrics *telemetry.Metrics
	theme   theme.Theme
	backend string
	closers []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildComponents picks a score store by what is configured: Postgres first,
// then Redis, then process memory. Redis also backs sessions and the category cache.
func buildComponents(ctx context.Context, cfg config.Config, logger *slog.Logger) (*components, error) {
	c := &components{backend: "memory"}

	th, err := theme.New(theme.Scheme(cfg.Theme.Scheme))
	if err != nil {
		return nil, err
	}
	c.theme = th

	trivia := opentdb.NewClient(cfg.Trivia.BaseURL, config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second))
	categoriesTTL := config.TTLDuration(cfg.Trivia.CategoriesTTL, time.Hour)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			c.Close()
			return nil, err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
	}

	var scores app.ScoreStore
	switch {
	case pool != nil:
		scores = pgstore.NewScoreStore(pool, cfg.Scores.Key)
		c.backend = "postgres"
	case redisClient != nil:
		scores = redisstore.NewScoreStore(redisClient, cfg.Scores.Key)
		c.backend = "redis"
	default:
		scores = memory.NewScoreStore()
	}

	var sessions app.SessionRepository
	var categories app.CategoryRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, keyPrefix, redisTTL)
		categories = redisstore.NewCategoryRepository(redisClient, trivia, keyPrefix, categoriesTTL)
	} else {
		sessions = memory.NewSessionStore()
		categories = memory.NewCategoryRepository(trivia, categoriesTTL)
	}

	c.metrics = telemetry.NewMetrics()
	c.service = app.NewQuizService(app.Config{
		Sessions:   sessions,
		Source:     trivia,
		Categories: categories,
		Scores:     scores,
		Metrics:    c.metrics,
		Logger:     logger,
	})
	return c, nil
}

var errNoStore = errors.New("scores are kept in memory; configure postgres or redis to persist them")
