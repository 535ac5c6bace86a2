package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/search/query"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
)

// SearchService answers search requests. The engine provides ranking; the
// authoritative rows always come from Postgres, re-fetched per request, so
// stale index entries can never leak deleted or private recipes. When the
// engine fails or its breaker is open, requests degrade to the fallback.
type SearchService struct {
	engine   engine.SearchEngine
	repo     repository.RecipeRepository
	fallback *FallbackService
	breaker  *gobreaker.CircuitBreaker[any]
	logger   *slog.Logger
}

// NewSearchService creates a search service. A nil engine means the
// cluster was unreachable at startup; every request then uses the fallback.
func NewSearchService(
	eng engine.SearchEngine,
	repo repository.RecipeRepository,
	fallback *FallbackService,
	logger *slog.Logger,
) *SearchService {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "search-engine",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("search engine breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &SearchService{
		engine:   eng,
		repo:     repo,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

// SearchRecipes runs a recipe search and returns one page of public
// recipes in relevance order.
func (s *SearchService) SearchRecipes(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	req.Normalize()
	start := time.Now()

	if s.engine != nil {
		ranked, err := s.searchIDs(ctx, query.BuildRecipeSearch(req))
		if err == nil {
			return s.reconcile(ctx, ranked, start)
		}
		s.logger.Warn("engine search failed, using fallback", slog.String("error", err.Error()))
	}

	result, err := s.fallback.Search(ctx, req)
	if err != nil {
		s.logger.Error("fallback search failed", slog.String("error", err.Error()))
		return nil, apperrors.SearchUnavailable(err)
	}
	return result, nil
}

// PantrySearch returns recipes ranked by how many of the given ingredients
// they contain.
func (s *SearchService) PantrySearch(ctx context.Context, ingredients []string, skip, take int) (*domain.SearchResult, error) {
	page := domain.SearchRequest{Skip: skip, Take: take}
	page.Normalize()
	start := time.Now()

	if s.engine != nil {
		ranked, err := s.searchIDs(ctx, query.BuildPantrySearch(ingredients, page.Skip, page.Take))
		if err == nil {
			return s.reconcile(ctx, ranked, start)
		}
		s.logger.Warn("engine pantry search failed, using fallback", slog.String("error", err.Error()))
	}

	result, err := s.fallback.Pantry(ctx, ingredients, page.Skip, page.Take)
	if err != nil {
		s.logger.Error("fallback pantry search failed", slog.String("error", err.Error()))
		return nil, apperrors.SearchUnavailable(err)
	}
	return result, nil
}

// SuggestIngredients returns autocomplete suggestions for an ingredient
// name prefix.
func (s *SearchService) SuggestIngredients(ctx context.Context, prefix string, size int) (*domain.SuggestionResult, error) {
	if size <= 0 || size > domain.MaxTake {
		size = 10
	}

	if s.engine != nil {
		out, err := s.breaker.Execute(func() (any, error) {
			names, took, err := s.engine.SuggestIngredients(ctx, query.BuildIngredientSuggest(prefix, size))
			if err != nil {
				return nil, err
			}
			return &domain.SuggestionResult{Suggestions: names, TookMs: took}, nil
		})
		if err == nil {
			return out.(*domain.SuggestionResult), nil
		}
		s.logger.Warn("engine suggest failed, using fallback", slog.String("error", err.Error()))
	}

	result, err := s.fallback.Suggest(ctx, prefix, size)
	if err != nil {
		s.logger.Error("fallback suggest failed", slog.String("error", err.Error()))
		return nil, apperrors.SearchUnavailable(err)
	}
	return result, nil
}

func (s *SearchService) searchIDs(ctx context.Context, q query.Query) (*domain.RankedIDs, error) {
	out, err := s.breaker.Execute(func() (any, error) {
		return s.engine.SearchRecipeIDs(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.RankedIDs), nil
}

// reconcile re-fetches the ranked IDs from Postgres and restores engine
// order. IDs the database no longer returns as public are dropped without
// adjusting the total: the gap closes once the index catches up.
func (s *SearchService) reconcile(ctx context.Context, ranked *domain.RankedIDs, start time.Time) (*domain.SearchResult, error) {
	recipes, err := s.repo.GetPublicByIDs(ctx, ranked.IDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}

	ordered := make([]domain.Recipe, 0, len(ranked.IDs))
	for _, id := range ranked.IDs {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, *rec)
			continue
		}
		s.logger.Debug("dropping stale search hit", slog.String("recipe_id", id))
	}

	return &domain.SearchResult{
		Recipes:  ordered,
		Total:    ranked.Total,
		TookMs:   time.Since(start).Milliseconds(),
		MaxScore: ranked.MaxScore,
	}, nil
}
