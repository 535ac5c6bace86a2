// Package app wires together all dependencies and runs the search service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/activity"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/config"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine"
	esengine "github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine/elasticsearch"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine/memory"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/event"
	handler "github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/handler/http"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository/postgres"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository/postgres/migrations"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/service"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/suggest"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/database"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/health"
	pkgkafka "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/kafka"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/middleware"
)

// dedupTTL is how long processed Kafka event IDs are remembered.
const dedupTTL = 24 * time.Hour

// App wires together all dependencies and runs the search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// Postgres is the system of record and must be reachable; Redis and
// Elasticsearch are optional at startup and the service degrades to its
// relational fallback paths without them.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Postgres: authoritative store, fatal if unavailable.
	pool, err := database.NewPostgresPool(ctx, cfg.PostgresConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	prometheus.MustRegister(database.NewPoolStatsCollector(pool, "search"))

	// Redis: suggestion cache and activity pub/sub. Optional.
	redisClient, err := database.NewRedisClient(ctx, *cfg.RedisConfig())
	if err != nil {
		logger.Warn("redis unavailable, suggestion cache and activity stream disabled",
			slog.String("error", err.Error()),
		)
		redisClient = nil
	}

	// Search engine. Index creation failure is not fatal: searches fall
	// back to Postgres until a reindex brings the cluster back in line.
	var eng engine.SearchEngine
	var esEng *esengine.Engine
	switch cfg.SearchEngine {
	case "elasticsearch":
		esEng, err = esengine.New(cfg.ElasticsearchURL, cfg.RecipeIndex, cfg.IngredientIndex, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng

		ensureCtx, cancel := context.WithTimeout(ctx, cfg.ElasticsearchPingWait)
		if err := esEng.EnsureIndices(ensureCtx); err != nil {
			logger.Warn("could not ensure search indices, continuing with relational fallback",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("elasticsearch search engine initialized",
				slog.String("url", cfg.ElasticsearchURL),
				slog.String("recipe_index", cfg.RecipeIndex),
				slog.String("ingredient_index", cfg.IngredientIndex),
			)
		}
		cancel()
	default:
		eng = memory.New()
		logger.Info("in-memory search engine initialized")
	}

	// Service layer.
	repo := postgres.NewRecipeRepository(pool)
	syncService := service.NewSyncService(repo, eng, logger)
	fallbackService := service.NewFallbackService(repo, logger)
	searchService := service.NewSearchService(eng, repo, fallbackService, logger)

	// AI suggestions are enabled only when a provider key is configured.
	var suggester *suggest.Suggester
	if cfg.OpenAIAPIKey != "" {
		suggestCfg := suggest.Config{
			Model:         cfg.OpenAIModel,
			CacheTTL:      cfg.SuggestionCacheTTL,
			RatePerMinute: cfg.SuggestionRatePerMin,
		}
		suggester = suggest.New(openai.NewClient(cfg.OpenAIAPIKey), redisClient, suggestCfg, logger)
		logger.Info("recipe suggestions enabled", slog.String("model", cfg.OpenAIModel))
	}

	activityPub := activity.NewPublisher(redisClient, cfg.ActivityChannel, logger)

	// Kafka consumers for recipe lifecycle events.
	handlers := event.NewHandlers(syncService, repo, activityPub, logger)
	dedup := pkgkafka.NewMemoryIdempotencyStore(dedupTTL)

	topicHandlers := map[string]pkgkafka.Handler{
		event.TopicRecipeCreated: handlers.HandleRecipeCreated,
		event.TopicRecipeUpdated: handlers.HandleRecipeUpdated,
		event.TopicRecipeDeleted: handlers.HandleRecipeDeleted,
	}

	var consumers []*pkgkafka.Consumer
	for topic, h := range topicHandlers {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		c := pkgkafka.NewConsumer(consumerCfg, h, logger).WithIdempotencyStore(dedup)
		consumers = append(consumers, c)
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(topicHandlers)),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if esEng != nil {
		healthHandler.Register("elasticsearch", esEng.Ping)
	}
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	// HTTP router.
	searchHandler := handler.NewSearchHandler(searchService, syncService, suggester, repo, logger)
	router := handler.NewRouter(handler.RouterConfig{
		Handler: searchHandler,
		Health:  healthHandler,
		Logger:  logger,
		CORS:    middleware.DefaultCORSConfig(),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		consumers:  consumers,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
