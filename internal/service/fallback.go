package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository"
)

// FallbackService serves search requests straight from Postgres when the
// engine is unavailable. Results keep the same shape as engine-backed
// searches; they just trade relevance ranking for recency ordering.
type FallbackService struct {
	repo   repository.RecipeRepository
	logger *slog.Logger
}

// NewFallbackService creates a fallback search service.
func NewFallbackService(repo repository.RecipeRepository, logger *slog.Logger) *FallbackService {
	return &FallbackService{repo: repo, logger: logger}
}

// Search runs the relational approximation of recipe search.
func (s *FallbackService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	start := time.Now()

	recipes, total, err := s.repo.SearchFallback(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fallback search: %w", err)
	}

	return &domain.SearchResult{
		Recipes: recipes,
		Total:   total,
		TookMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Pantry returns recipes containing any of the given ingredients.
func (s *FallbackService) Pantry(ctx context.Context, ingredients []string, skip, take int) (*domain.SearchResult, error) {
	start := time.Now()

	recipes, total, err := s.repo.PantryFallback(ctx, ingredients, skip, take)
	if err != nil {
		return nil, fmt.Errorf("fallback pantry search: %w", err)
	}

	return &domain.SearchResult{
		Recipes: recipes,
		Total:   total,
		TookMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Suggest returns ingredient-name completions via DISTINCT substring
// matching, alphabetically ordered.
func (s *FallbackService) Suggest(ctx context.Context, prefix string, size int) (*domain.SuggestionResult, error) {
	start := time.Now()

	names, err := s.repo.DistinctIngredientNames(ctx, prefix, size)
	if err != nil {
		return nil, fmt.Errorf("fallback suggest: %w", err)
	}

	return &domain.SuggestionResult{
		Suggestions: names,
		TookMs:      time.Since(start).Milliseconds(),
	}, nil
}
