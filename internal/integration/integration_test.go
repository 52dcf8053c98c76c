package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/sync/errgroup"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
	"trivia-quiz/internal/infra/memory"
	pgstore "trivia-quiz/internal/infra/postgres"
	pgmigrations "trivia-quiz/internal/infra/postgres/migrations"
	infraredis "trivia-quiz/internal/infra/redis"
)

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	source := sampleSource()
	service := app.NewQuizService(app.Config{
		Sessions:   infraredis.NewSessionStore(redisClient, "it", 5*time.Minute),
		Source:     source,
		Categories: infraredis.NewCategoryRepository(redisClient, source, "it", 5*time.Minute),
		Scores:     pgstore.NewScoreStore(pool, "e2e"),
		Shuffle:    func(int, func(i, j int)) {},
	})

	session, err := service.Start(ctx, app.Settings{NumQuestions: 5, Difficulty: domain.DifficultyMedium, Category: "9"}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; session.State() == app.StateActive; i++ {
		options := session.View().Question.Options
		// two right answers, then wrong ones; the correct answer is last without shuffling
		option := options[0]
		if i < 2 {
			option = options[len(options)-1]
		}
		if err := service.SelectAnswer(ctx, session.ID(), option); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, err := service.Advance(ctx, session.ID()); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	record, err := service.Submit(ctx, session.ID(), "Alice")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// 2 of 5 on medium: 2*10*2/5
	if record.Score != 8 {
		t.Fatalf("expected score 8, got %+v", record)
	}

	scores, err := service.HighScores(ctx)
	if err != nil {
		t.Fatalf("high scores: %v", err)
	}
	if len(scores) != 1 || scores[0].Name != "Alice" {
		t.Fatalf("expected Alice's score, got %+v", scores)
	}

	categories, err := service.Categories(ctx)
	if err != nil || len(categories) != 2 {
		t.Fatalf("categories: %+v, %v", categories, err)
	}
}

func TestPostgresScoreStoreConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	exerciseScoreStore(t, ctx, pgstore.NewScoreStore(pool, "concurrent"))
}

func TestRedisScoreStoreConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	exerciseScoreStore(t, ctx, infraredis.NewScoreStore(redisClient, "concurrent"))
}

// exerciseScoreStore appends from several writers at once and checks no write was lost.
func exerciseScoreStore(t *testing.T, ctx context.Context, store app.ScoreStore) {
	t.Helper()

	records, err := store.Get(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty store, got %+v, %v", records, err)
	}

	const writers = 8
	var eg errgroup.Group
	for i := range writers {
		eg.Go(func() error {
			return store.Update(ctx, func(records []domain.ScoreRecord) ([]domain.ScoreRecord, error) {
				return append(records, domain.ScoreRecord{
					Name:           fmt.Sprintf("player-%d", i),
					Score:          float64(i),
					ElapsedSeconds: int64(i),
				}), nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("update: %v", err)
	}

	records, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(records) != writers {
		t.Fatalf("expected %d records, got %d", writers, len(records))
	}

	if err := store.Set(ctx, records[:1]); err != nil {
		t.Fatalf("set: %v", err)
	}
	records, err = store.Get(ctx)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected set to replace the list, got %+v, %v", records, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleSource() *memory.StaticTriviaSource {
	questions := make([]domain.RawQuestion, 0, 5)
	for i := range 5 {
		questions = append(questions, domain.RawQuestion{
			Question:         fmt.Sprintf("What is %d squared?", i+2),
			CorrectAnswer:    fmt.Sprint((i + 2) * (i + 2)),
			IncorrectAnswers: []string{"1", "2", "3"},
		})
	}
	return &memory.StaticTriviaSource{
		Questions: questions,
		Categories: []domain.Category{
			{ID: "9", Name: "General Knowledge"},
			{ID: "19", Name: "Science: Mathematics"},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
