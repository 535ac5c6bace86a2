// Package config loads the search service configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/config"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/database"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8080"`

	// Postgres (system of record)
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"cookbook"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"cookbook_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"cookbook"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Redis (suggestion cache + activity pub/sub)
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`

	// Elasticsearch (relevance projection)
	ElasticsearchURL      string        `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	RecipeIndex           string        `env:"ELASTICSEARCH_RECIPE_INDEX" envDefault:"cookbook_recipes"`
	IngredientIndex       string        `env:"ELASTICSEARCH_INGREDIENT_INDEX" envDefault:"cookbook_ingredients"`
	ElasticsearchPingWait time.Duration `env:"ELASTICSEARCH_PING_TIMEOUT" envDefault:"5s"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"search-service"`

	// AI suggestions. An empty API key disables the endpoint.
	OpenAIAPIKey         string        `env:"OPENAI_API_KEY"`
	OpenAIModel          string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	SuggestionCacheTTL   time.Duration `env:"SUGGESTION_CACHE_TTL" envDefault:"24h"`
	SuggestionRatePerMin int           `env:"SUGGESTION_RATE_PER_MINUTE" envDefault:"5"`

	// Activity stream
	ActivityChannel string `env:"ACTIVITY_CHANNEL" envDefault:"cookbook:activity"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SearchEngine != "elasticsearch" && c.SearchEngine != "memory" {
		return fmt.Errorf("invalid search engine: %q", c.SearchEngine)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}
	return nil
}

// PostgresConfig assembles the connection pool configuration.
func (c *Config) PostgresConfig() *database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return &pg
}

// RedisConfig assembles the Redis client configuration.
func (c *Config) RedisConfig() *database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	return &rc
}
