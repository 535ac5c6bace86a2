// Package suggest generates AI-assisted recipe suggestions (pairings,
// variations, improvements) through a chat-completion provider. Responses
// are cached in Redis by prompt hash and per-user rate limited, since
// provider calls are slow and metered.
package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
)

// Kind selects what the suggestion should focus on.
type Kind string

const (
	KindPairing     Kind = "pairing"
	KindVariation   Kind = "variation"
	KindImprovement Kind = "improvement"
)

const cacheKeyPrefix = "cookbook:suggest:"

// CompletionClient is the subset of the OpenAI client the suggester needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds suggester tuning.
type Config struct {
	Model    string
	CacheTTL time.Duration
	// RatePerMinute is the per-user request budget.
	RatePerMinute int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Model:         openai.GPT4oMini,
		CacheTTL:      24 * time.Hour,
		RatePerMinute: 5,
	}
}

// Suggester produces recipe suggestions. A nil cache disables caching; the
// completion client is required.
type Suggester struct {
	client CompletionClient
	cache  *redis.Client
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a suggester.
func New(client CompletionClient, cache *redis.Client, cfg Config, logger *slog.Logger) *Suggester {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 5
	}
	return &Suggester{
		client:   client,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Suggest returns a suggestion for the recipe. Identical prompts are served
// from cache without consuming the user's rate budget.
func (s *Suggester) Suggest(ctx context.Context, userID string, kind Kind, recipe *domain.Recipe) (string, error) {
	prompt, err := buildPrompt(kind, recipe)
	if err != nil {
		return "", err
	}

	key := cacheKey(prompt)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	if !s.limiter(userID).Allow() {
		return "", apperrors.RateLimited("too many suggestion requests, try again shortly")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a culinary assistant for a recipe-sharing community. " +
					"Answer concisely and concretely, in at most three short paragraphs.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 400,
	})
	if err != nil {
		return "", fmt.Errorf("suggestion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("suggestion request: provider returned no choices")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.toCache(ctx, key, answer)
	return answer, nil
}

func buildPrompt(kind Kind, recipe *domain.Recipe) (string, error) {
	if recipe == nil || recipe.Title == "" {
		return "", apperrors.InvalidInput("recipe with a title is required")
	}

	var ask string
	switch kind {
	case KindPairing:
		ask = "Suggest wine, side dish and drink pairings for this recipe."
	case KindVariation:
		ask = "Suggest variations of this recipe for vegetarian, vegan and gluten-free diets."
	case KindImprovement:
		ask = "Suggest concrete technique or seasoning improvements for this recipe."
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown suggestion kind %q", kind))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nRecipe: %s\n", ask, recipe.Title)
	if recipe.Cuisine != "" {
		fmt.Fprintf(&b, "Cuisine: %s\n", recipe.Cuisine)
	}
	if len(recipe.Ingredients) > 0 {
		b.WriteString("Ingredients: ")
		b.WriteString(strings.Join(recipe.IngredientNames(), ", "))
		b.WriteString("\n")
	}
	if recipe.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", recipe.Description)
	}
	return b.String(), nil
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *Suggester) fromCache(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	val, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("suggestion cache read failed", slog.String("error", err.Error()))
		}
		return "", false
	}
	return val, true
}

func (s *Suggester) toCache(ctx context.Context, key, val string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, val, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn("suggestion cache write failed", slog.String("error", err.Error()))
	}
}

// limiter returns the per-user limiter, creating it on first use.
func (s *Suggester) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[userID]
	if !ok {
		perMinute := rate.Limit(float64(s.cfg.RatePerMinute) / 60.0)
		l = rate.NewLimiter(perMinute, s.cfg.RatePerMinute)
		s.limiters[userID] = l
	}
	return l
}
