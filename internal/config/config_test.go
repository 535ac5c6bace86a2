package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, "cookbook", cfg.PostgresDB)
	assert.Equal(t, "elasticsearch", cfg.SearchEngine)
	assert.Equal(t, "cookbook_recipes", cfg.RecipeIndex)
	assert.Equal(t, "cookbook_ingredients", cfg.IngredientIndex)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.SuggestionCacheTTL)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("SEARCH_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidSearchEngine(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "solr")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search engine")
}

func TestLoad_MemoryEngine(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "memory")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.SearchEngine)
}

func TestLoad_BrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestPostgresConfig(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.PostgresConfig()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, 5433, pg.Port)
	assert.Equal(t, "cookbook", pg.DBName)
}

func TestRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")

	cfg, err := Load()
	require.NoError(t, err)

	rc := cfg.RedisConfig()
	assert.Equal(t, "cache.internal:6379", rc.Addr())
}
